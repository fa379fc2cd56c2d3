package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuepulse/venuepulse/cli/pkg/color"
)

func renderTable(t *Table) string {
	var buf bytes.Buffer
	t.RenderTo(&buf)
	return buf.String()
}

func TestTable_Render(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	table := NewTable([]string{"NAME", "CAPACITY"})
	table.AddRow([]string{"The Anchor", "200"})
	table.AddRow([]string{"Borealis", "80"})

	out := renderTable(table)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header, separator, two rows")

	assert.Equal(t, "NAME        CAPACITY  ", lines[0])
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "The Anchor")
	assert.Contains(t, lines[3], "Borealis")
}

func TestTable_Render_ColumnsWidenToLongestCell(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	table := NewTable([]string{"ID", "ERROR"})
	table.AddRow([]string{"1712345678-0", "decode entry failed"})
	table.AddRow([]string{"2-0", "nope"})

	lines := strings.Split(strings.TrimRight(renderTable(table), "\n"), "\n")
	for _, line := range lines[1:] {
		assert.Equal(t, len(lines[2]), len(line), "all rows padded to the same width")
	}
}

func TestTable_Render_Empty(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	table := NewTable([]string{"ENTRY ID", "VENUE"})
	out := renderTable(table)

	assert.Contains(t, out, "ENTRY ID")
	assert.Contains(t, out, "----")
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 2)
}
