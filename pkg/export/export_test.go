package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Class 7A: Timetable",
		Headers: []string{"Period", "Monday"},
		Rows: []map[string]string{
			{"Period": "1 (07:00-07:45)", "Monday": "Maths / Ana"},
			{"Period": "2 (07:45-08:30)", "Monday": ""},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Period,Monday\n1 (07:00-07:45),Maths / Ana\n2 (07:45-08:30),\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close()

	value, err := file.GetCellValue("Class 7A- Timetable", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Maths / Ana", value)
}

func TestRenderersRequireHeaders(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		renderer, err := NewRenderer(format)
		require.NoError(t, err)
		_, err = renderer.Render(Dataset{})
		assert.Error(t, err, format)
	}
}
