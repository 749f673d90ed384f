package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// renderState tracks list nesting while walking the node tree.
type renderState struct {
	listDepth int
	ordered   bool
	itemIndex int
}

// convertInline transcodes structural and inline HTML into markdown via a
// DOM walk. Elements without a markdown equivalent are re-emitted with
// their attributes so nothing is stripped.
func convertInline(input string, warnings *[]string) string {
	if !strings.Contains(input, "<") && !strings.Contains(input, "&") {
		return input
	}

	nodes, err := parseFragment(input)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("markup left unconverted: %v", err))
		return input
	}

	var sb strings.Builder
	for _, n := range nodes {
		renderNode(n, &sb, &renderState{})
	}
	return sb.String()
}

func parseFragment(input string) ([]*html.Node, error) {
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	return html.ParseFragment(strings.NewReader(input), ctx)
}

func renderNode(n *html.Node, sb *strings.Builder, state *renderState) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		fmt.Fprintf(sb, "<!--%s-->", n.Data)
		return
	case html.ElementNode:
		// handled below
	default:
		renderChildren(n, sb, state)
		return
	}

	switch n.DataAtom {
	case atom.B, atom.Strong:
		wrapInline(n, sb, state, "**")
	case atom.I, atom.Em:
		wrapInline(n, sb, state, "*")
	case atom.S, atom.Del, atom.Strike:
		wrapInline(n, sb, state, "~~")
	case atom.Code:
		wrapInline(n, sb, state, "`")
	case atom.Br:
		sb.WriteString("\n")
	case atom.Hr:
		sb.WriteString("\n\n---\n\n")
	case atom.P:
		sb.WriteString("\n\n")
		renderChildren(n, sb, state)
		sb.WriteString("\n\n")
	case atom.Div:
		// Source editors emit one div per visual line.
		renderChildren(n, sb, state)
		sb.WriteString("\n")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		sb.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		renderChildren(n, sb, state)
		sb.WriteString("\n\n")
	case atom.Ul, atom.Ol:
		nested := renderState{
			listDepth: state.listDepth + 1,
			ordered:   n.DataAtom == atom.Ol,
		}
		if state.listDepth == 0 {
			sb.WriteString("\n")
		}
		renderChildren(n, sb, &nested)
		if state.listDepth == 0 {
			sb.WriteString("\n")
		}
	case atom.Li:
		state.itemIndex++
		indent := strings.Repeat("    ", max(state.listDepth-1, 0))
		if state.ordered {
			fmt.Fprintf(sb, "%s%d. ", indent, state.itemIndex)
		} else {
			sb.WriteString(indent + "- ")
		}
		renderChildren(n, sb, state)
		sb.WriteString("\n")
	case atom.A:
		var inner strings.Builder
		renderChildren(n, &inner, state)
		href := attrValue(n, "href")
		if href == "" {
			sb.WriteString(inner.String())
			return
		}
		fmt.Fprintf(sb, "[%s](%s)", strings.TrimSpace(inner.String()), href)
	case atom.Pre:
		sb.WriteString("\n\n```\n")
		sb.WriteString(strings.TrimRight(textContent(n), "\n"))
		sb.WriteString("\n```\n\n")
	case atom.Blockquote:
		var inner strings.Builder
		renderChildren(n, &inner, state)
		sb.WriteString("\n\n")
		for _, line := range strings.Split(strings.TrimSpace(inner.String()), "\n") {
			sb.WriteString("> " + line + "\n")
		}
		sb.WriteString("\n")
	default:
		// No markdown equivalent: re-emit the element around its
		// converted children rather than stripping it.
		writeStartTag(n, sb)
		renderChildren(n, sb, state)
		if !voidElements[n.DataAtom] {
			fmt.Fprintf(sb, "</%s>", n.Data)
		}
	}
}

func renderChildren(n *html.Node, sb *strings.Builder, state *renderState) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(c, sb, state)
	}
}

// wrapInline surrounds non-empty converted content with a markdown marker.
func wrapInline(n *html.Node, sb *strings.Builder, state *renderState, marker string) {
	var inner strings.Builder
	renderChildren(n, &inner, state)
	content := inner.String()
	if strings.TrimSpace(content) == "" {
		sb.WriteString(content)
		return
	}
	// Markers must hug the content, so leading/trailing space moves outside.
	trimmed := strings.TrimSpace(content)
	leading := content[:strings.Index(content, trimmed)]
	trailing := content[len(leading)+len(trimmed):]
	sb.WriteString(leading + marker + trimmed + marker + trailing)
}

var voidElements = map[atom.Atom]bool{
	atom.Img: true, atom.Input: true, atom.Meta: true, atom.Link: true,
	atom.Area: true, atom.Base: true, atom.Col: true, atom.Embed: true,
	atom.Source: true, atom.Track: true, atom.Wbr: true,
}

func writeStartTag(n *html.Node, sb *strings.Builder) {
	sb.WriteString("<" + n.Data)
	for _, attr := range n.Attr {
		fmt.Fprintf(sb, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
	}
	sb.WriteString(">")
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
