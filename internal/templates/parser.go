package templates

import (
	"fmt"
	"strings"
)

// Node is one element of a parsed template. The template language is the
// mustache dialect used by card templates: bare field references,
// conditional sections, filtered references and the FrontSide macro.
type Node interface {
	node()
}

// Literal is verbatim template text between placeholders.
type Literal struct {
	Text string
}

// FieldRef is a bare placeholder naming a field, e.g. {{Front}}.
type FieldRef struct {
	Name string
}

// FilteredRef is a placeholder with one or more filter prefixes,
// e.g. {{cloze:Text}} or {{furigana:kanji:Reading}}. Filters are kept in
// order but field-side classification only cares about the field name.
type FilteredRef struct {
	Filters []string
	Name    string
}

// Section is a conditional block: {{#Field}}...{{/Field}} shows its body
// when the field is non-empty, {{^Field}}...{{/Field}} when it is empty.
// Either way the section counts as a reference to the field.
type Section struct {
	Negated bool
	Field   string
	Body    []Node
}

// FrontSideMacro reproduces the rendered front template inside a back
// template. It introduces no field references of its own.
type FrontSideMacro struct{}

func (Literal) node()        {}
func (FieldRef) node()       {}
func (FilteredRef) node()    {}
func (Section) node()        {}
func (FrontSideMacro) node() {}

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Parse builds the AST for one template side. It is strict about section
// nesting: an unclosed or mismatched section is a parse error, which the
// resolver treats as a degraded (not fatal) condition.
func Parse(input string) ([]Node, error) {
	nodes, _, err := parseNodes(input, "")
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// parseNodes consumes input until the end of text or until the close tag
// of the section named by until. It returns the remaining input after the
// close tag so the caller can continue.
func parseNodes(input, until string) ([]Node, string, error) {
	var nodes []Node

	for input != "" {
		open := strings.Index(input, openDelim)
		if open == -1 {
			nodes = append(nodes, Literal{Text: input})
			return nodes, "", closeError(until)
		}

		if open > 0 {
			nodes = append(nodes, Literal{Text: input[:open]})
		}
		input = input[open+len(openDelim):]

		end := strings.Index(input, closeDelim)
		if end == -1 {
			return nil, "", fmt.Errorf("unterminated placeholder near %q", truncate(input, 40))
		}
		tag := strings.TrimSpace(input[:end])
		input = input[end+len(closeDelim):]

		switch {
		case tag == "":
			return nil, "", fmt.Errorf("empty placeholder")

		case strings.HasPrefix(tag, "/"):
			name := strings.TrimSpace(tag[1:])
			if until == "" || name != until {
				return nil, "", fmt.Errorf("unmatched section close {{/%s}}", name)
			}
			return nodes, input, nil

		case strings.HasPrefix(tag, "#"), strings.HasPrefix(tag, "^"):
			name := strings.TrimSpace(tag[1:])
			if name == "" {
				return nil, "", fmt.Errorf("section with empty field name")
			}
			body, rest, err := parseNodes(input, name)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, Section{
				Negated: strings.HasPrefix(tag, "^"),
				Field:   name,
				Body:    body,
			})
			input = rest

		case tag == "FrontSide":
			nodes = append(nodes, FrontSideMacro{})

		case strings.Contains(tag, ":"):
			parts := strings.Split(tag, ":")
			name := strings.TrimSpace(parts[len(parts)-1])
			filters := make([]string, 0, len(parts)-1)
			for _, f := range parts[:len(parts)-1] {
				filters = append(filters, strings.TrimSpace(f))
			}
			if name == "" {
				return nil, "", fmt.Errorf("filtered placeholder %q has no field", tag)
			}
			nodes = append(nodes, FilteredRef{Filters: filters, Name: name})

		default:
			nodes = append(nodes, FieldRef{Name: tag})
		}
	}

	return nodes, "", closeError(until)
}

func closeError(until string) error {
	if until == "" {
		return nil
	}
	return fmt.Errorf("unclosed section {{#%s}}", until)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
