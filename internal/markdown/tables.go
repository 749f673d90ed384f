package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var tablePattern = regexp.MustCompile(`(?is)<table\b.*?</table>`)

// convertTables rewrites every table that fits the structural bounds as a
// markdown pipe table. Tables that are too large or contain merged cells
// are preserved verbatim; the returned slice holds their raw markup,
// parked behind placeholder tokens until restorePreserved.
func convertTables(input string, cfg Config, warnings *[]string) (string, []string) {
	var preserved []string

	out := tablePattern.ReplaceAllStringFunc(input, func(tableHTML string) string {
		md, reason := tableToMarkdown(tableHTML, cfg)
		if reason != "" {
			*warnings = append(*warnings, fmt.Sprintf("table preserved as raw markup: %s", reason))
			preserved = append(preserved, tableHTML)
			return fmt.Sprintf("\n\n%sraw:%d%s\n\n", tokenOpen, len(preserved)-1, tokenClose)
		}
		return "\n\n" + md + "\n\n"
	})

	return out, preserved
}

var rawPattern = regexp.MustCompile(tokenOpen + `raw:(\d+)` + tokenClose)

// restorePreserved puts parked raw markup back in place of its tokens.
func restorePreserved(input string, preserved []string) string {
	if len(preserved) == 0 {
		return input
	}
	return rawPattern.ReplaceAllStringFunc(input, func(token string) string {
		i, err := strconv.Atoi(rawPattern.FindStringSubmatch(token)[1])
		if err != nil || i >= len(preserved) {
			return token
		}
		return preserved[i]
	})
}

type tableCell struct {
	header bool
	text   string
}

// tableToMarkdown converts a single table, or returns a non-empty reason
// for keeping the original markup.
func tableToMarkdown(tableHTML string, cfg Config) (string, string) {
	nodes, err := parseFragment(tableHTML)
	if err != nil {
		return "", fmt.Sprintf("unparseable markup: %v", err)
	}

	table := findElement(nodes, atom.Table)
	if table == nil {
		return "", "no table element found"
	}

	var rows [][]tableCell
	merged := false

	var collectRows func(n *html.Node)
	collectRows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Tr {
				rows = append(rows, collectCells(c, &merged))
				continue
			}
			collectRows(c)
		}
	}
	collectRows(table)

	if merged {
		return "", "contains merged cells"
	}
	if len(rows) == 0 {
		return "", "no rows"
	}
	if len(rows) > cfg.MaxTableRows {
		return "", fmt.Sprintf("%d rows exceeds limit of %d", len(rows), cfg.MaxTableRows)
	}

	columns := 0
	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
	}
	if columns > cfg.MaxTableColumns {
		return "", fmt.Sprintf("%d columns exceeds limit of %d", columns, cfg.MaxTableColumns)
	}
	if columns == 0 {
		return "", "no cells"
	}

	return renderPipeTable(rows, columns), ""
}

// collectCells gathers the td/th cells of one row and flags any
// row- or column-span.
func collectCells(tr *html.Node, merged *bool) []tableCell {
	var cells []tableCell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom != atom.Td && c.DataAtom != atom.Th {
			continue
		}
		for _, attr := range c.Attr {
			key := strings.ToLower(attr.Key)
			if key == "rowspan" || key == "colspan" {
				if span, err := strconv.Atoi(strings.TrimSpace(attr.Val)); err != nil || span > 1 {
					*merged = true
				}
			}
		}
		cells = append(cells, tableCell{
			header: c.DataAtom == atom.Th,
			text:   cellText(c),
		})
	}
	return cells
}

// cellText renders a cell's children through the inline converter and
// flattens the result onto one line.
func cellText(cell *html.Node) string {
	var sb strings.Builder
	for c := cell.FirstChild; c != nil; c = c.NextSibling {
		renderNode(c, &sb, &renderState{})
	}
	text := strings.TrimSpace(sb.String())
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "|", `\|`)
}

// renderPipeTable emits a markdown table. The first row becomes the
// header when it is made of th cells; otherwise an empty header is
// synthesized so every source row stays a data row.
func renderPipeTable(rows [][]tableCell, columns int) string {
	var sb strings.Builder

	headerRow := make([]string, columns)
	dataRows := rows
	if allHeaders(rows[0]) {
		for i, cell := range rows[0] {
			headerRow[i] = cell.text
		}
		dataRows = rows[1:]
	}

	writeRow := func(values []string) {
		sb.WriteString("|")
		for i := 0; i < columns; i++ {
			value := ""
			if i < len(values) {
				value = values[i]
			}
			sb.WriteString(" " + value + " |")
		}
		sb.WriteString("\n")
	}

	writeRow(headerRow)
	sb.WriteString("|")
	for i := 0; i < columns; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	for _, row := range dataRows {
		values := make([]string, len(row))
		for i, cell := range row {
			values[i] = cell.text
		}
		writeRow(values)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func allHeaders(row []tableCell) bool {
	if len(row) == 0 {
		return false
	}
	for _, cell := range row {
		if !cell.header {
			return false
		}
	}
	return true
}

func findElement(nodes []*html.Node, target atom.Atom) *html.Node {
	for _, n := range nodes {
		if found := findElementIn(n, target); found != nil {
			return found
		}
	}
	return nil
}

func findElementIn(n *html.Node, target atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == target {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElementIn(c, target); found != nil {
			return found
		}
	}
	return nil
}
