package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:    "Goals",
		Subtitle: "Generated for tests",
		Columns: []Column{
			{Key: "title", Title: "Title", Weight: 3},
			{Key: "status", Title: "Status"},
		},
		Rows: []map[string]string{
			{"title": "Run a marathon", "status": "completed"},
			{"title": "Learn Go, properly", "status": "in progress"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,Status", lines[0])
	assert.Equal(t, `"Learn Go, properly",in progress`, lines[2])
}

func TestPDFExporterRender(t *testing.T) {
	table := sampleTable()
	for i := 0; i < 80; i++ {
		table.Rows = append(table.Rows, map[string]string{"title": strings.Repeat("long title ", 20), "status": "open"})
	}

	out, err := NewPDFExporter().Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderersRequireColumns(t *testing.T) {
	for _, r := range []Renderer{NewCSVExporter(), NewPDFExporter()} {
		_, err := r.Render(Table{})
		assert.Error(t, err, r.Extension())
	}
}

func TestColumnWidthsSpanPage(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	assert.InDelta(t, pageWidth, widths[0]+widths[1], 0.001)
	assert.InDelta(t, widths[1]*3, widths[0], 0.001)
}
