package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MediaKind classifies an extracted media reference.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// ClozeStyle selects the target cloze syntax.
type ClozeStyle string

const (
	// ClozeStyleCurly keeps index, answer and hint: {{c1::answer::hint}}
	ClozeStyleCurly ClozeStyle = "curly"
	// ClozeStyleHighlight renders ==answer==^[hint]
	ClozeStyleHighlight ClozeStyle = "highlight"
)

// Config controls conversion heuristics.
type Config struct {
	// Tables larger than these bounds (or containing merged cells) are
	// preserved as raw markup instead of converted.
	MaxTableRows    int
	MaxTableColumns int

	ClozeStyle ClozeStyle
}

// DefaultConfig returns the conversion defaults.
func DefaultConfig() Config {
	return Config{
		MaxTableRows:    20,
		MaxTableColumns: 8,
		ClozeStyle:      ClozeStyleCurly,
	}
}

// MediaRef is one media reference extracted from field markup, in order
// of appearance.
type MediaRef struct {
	Name string
	Kind MediaKind
}

// Converted is the result of transcoding one field. Markdown still
// contains positional media placeholders; ResolveMedia substitutes them
// once stored paths are known.
type Converted struct {
	Markdown  string
	MediaRefs []MediaRef
	Warnings  []string
}

// Convert transcodes a field's HTML markup into markdown. The pass order
// is fixed: media references are pulled out first so no later text
// transformation can mangle their syntax, tables are handled next, then
// structural markup, then cloze spans. Anything unrecognized passes
// through untouched; Convert never fails on malformed input.
func Convert(input string, cfg Config) Converted {
	result := Converted{}

	text, refs := extractMedia(input)
	result.MediaRefs = refs

	// Tables kept as raw markup are parked behind placeholders so the
	// inline pass cannot rewrite their internals.
	text, preserved := convertTables(text, cfg, &result.Warnings)
	text = convertInline(text, &result.Warnings)
	text = convertCloze(text, cfg.ClozeStyle)
	text = restorePreserved(text, preserved)

	result.Markdown = tidyWhitespace(text)
	return result
}

// Placeholder tokens are delimited by private-use runes, which survive
// both the HTML parser and every text transformation untouched.
const (
	tokenOpen  = ""
	tokenClose = ""
)

// mediaPlaceholder builds the opaque token standing in for media ref i.
func mediaPlaceholder(i int) string {
	return fmt.Sprintf("%smedia:%d%s", tokenOpen, i, tokenClose)
}

var placeholderPattern = regexp.MustCompile(tokenOpen + `media:(\d+)` + tokenClose)

// ResolveMedia substitutes media placeholders with markdown embeds using
// the stored-path map. A reference whose asset was not persisted keeps its
// original name and is reported in the returned warnings.
func ResolveMedia(converted Converted, paths map[string]string) (string, []string) {
	var warnings []string

	text := placeholderPattern.ReplaceAllStringFunc(converted.Markdown, func(token string) string {
		i, err := strconv.Atoi(placeholderPattern.FindStringSubmatch(token)[1])
		if err != nil || i >= len(converted.MediaRefs) {
			return ""
		}
		ref := converted.MediaRefs[i]

		path, ok := paths[ref.Name]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("media %q was not stored; reference kept unresolved", ref.Name))
			path = ref.Name
		}

		if ref.Kind == MediaImage {
			return fmt.Sprintf("![%s](%s)", ref.Name, path)
		}
		// Audio and video use embed links markdown renderers resolve natively.
		return fmt.Sprintf("![[%s]]", path)
	})

	return text, warnings
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

func tidyWhitespace(s string) string {
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
