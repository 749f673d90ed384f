package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// clozePattern matches {{cN::answer}} and {{cN::answer::hint}} spans.
// The payload is captured whole and split afterwards so answers may
// contain single colons.
var clozePattern = regexp.MustCompile(`\{\{c(\d+)::(.+?)\}\}`)

// ClozeSpan is one parsed cloze deletion.
type ClozeSpan struct {
	Index  int
	Answer string
	Hint   string
}

// ParseClozeSpans extracts every cloze span from text, in order. Used by
// the card builder to detect cloze content in standard note-types.
func ParseClozeSpans(text string) []ClozeSpan {
	matches := clozePattern.FindAllStringSubmatch(text, -1)
	spans := make([]ClozeSpan, 0, len(matches))
	for _, m := range matches {
		span := ClozeSpan{Answer: m[2]}
		fmt.Sscanf(m[1], "%d", &span.Index)
		if i := strings.Index(m[2], "::"); i >= 0 {
			span.Answer = m[2][:i]
			span.Hint = m[2][i+len("::"):]
		}
		spans = append(spans, span)
	}
	return spans
}

// HasCloze reports whether text contains any cloze span.
func HasCloze(text string) bool {
	return clozePattern.MatchString(text)
}

// convertCloze rewrites cloze spans into the configured target syntax.
// Answer and hint stay independently recoverable in both styles.
func convertCloze(text string, style ClozeStyle) string {
	return clozePattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := clozePattern.FindStringSubmatch(match)
		index, payload := groups[1], groups[2]

		answer, hint := payload, ""
		if i := strings.Index(payload, "::"); i >= 0 {
			answer = payload[:i]
			hint = payload[i+len("::"):]
		}

		switch style {
		case ClozeStyleHighlight:
			if hint != "" {
				return fmt.Sprintf("==%s==^[%s]", answer, hint)
			}
			return fmt.Sprintf("==%s==", answer)
		default:
			if hint != "" {
				return fmt.Sprintf("{{c%s::%s::%s}}", index, answer, hint)
			}
			return fmt.Sprintf("{{c%s::%s}}", index, answer)
		}
	})
}
