package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_SmallTableBecomesPipeTable(t *testing.T) {
	input := `<table>` +
		`<tr><td>a</td><td>b</td></tr>` +
		`<tr><td>c</td><td>d</td></tr>` +
		`<tr><td>e</td><td>f</td></tr>` +
		`</table>`

	result := Convert(input, DefaultConfig())

	lines := strings.Split(result.Markdown, "\n")
	// Synthesized header + separator + three data rows
	require.Len(t, lines, 5)
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Equal(t, "| a | b |", lines[2])
	assert.Equal(t, "| c | d |", lines[3])
	assert.Equal(t, "| e | f |", lines[4])
}

func TestConvert_TableHeaderRowIsUsed(t *testing.T) {
	input := `<table>` +
		`<tr><th>City</th><th>Country</th></tr>` +
		`<tr><td>Paris</td><td>France</td></tr>` +
		`</table>`

	result := Convert(input, DefaultConfig())

	lines := strings.Split(result.Markdown, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| City | Country |", lines[0])
	assert.Equal(t, "| Paris | France |", lines[2])
}

func TestConvert_MergedCellsPreserveRawMarkup(t *testing.T) {
	input := `<table><tr><td rowspan="2">a</td><td>b</td></tr><tr><td>c</td></tr></table>`

	result := Convert(input, DefaultConfig())

	assert.Equal(t, input, result.Markdown)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "merged cells")
}

func TestConvert_OversizedTablePreservesRawMarkup(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<table>")
	for i := 0; i < 30; i++ {
		sb.WriteString("<tr><td>x</td></tr>")
	}
	sb.WriteString("</table>")

	result := Convert(sb.String(), DefaultConfig())

	assert.Equal(t, sb.String(), result.Markdown)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "rows exceeds limit")
}

func TestConvert_TooManyColumnsPreservesRawMarkup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTableColumns = 2

	input := `<table><tr><td>a</td><td>b</td><td>c</td></tr></table>`
	result := Convert(input, cfg)

	assert.Equal(t, input, result.Markdown)
}

func TestConvert_TableCellsConvertInlineMarkup(t *testing.T) {
	input := `<table><tr><td><b>bold</b></td><td>pipe|char</td></tr></table>`

	result := Convert(input, DefaultConfig())

	assert.Contains(t, result.Markdown, "**bold**")
	assert.Contains(t, result.Markdown, `pipe\|char`)
}

func TestConvert_TableSurroundedByText(t *testing.T) {
	input := `before<table><tr><td>a</td></tr></table>after`

	result := Convert(input, DefaultConfig())

	assert.True(t, strings.HasPrefix(result.Markdown, "before"))
	assert.True(t, strings.HasSuffix(result.Markdown, "after"))
	assert.Contains(t, result.Markdown, "| a |")
}
