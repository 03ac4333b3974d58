package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestCSVBytesPassthrough(t *testing.T) {
	content := []byte("Date,temp\n01/04/2025,10\n")

	out, err := NewDataReader("ALGA_GP_C_S_2504-2506.csv").CSVBytes(content)
	require.NoError(t, err)
	assert.Equal(t, content, out)
}

func TestCSVBytesConvertsWorkbook(t *testing.T) {
	content := xlsxBytes(t, [][]interface{}{
		{" Date ", "temp", "note"},
		{"01/04/2025", "10", "calm"},
		{"02/04/2025", "11"}, // short row padded to header width
	})

	out, err := NewDataReader("ALGA_GP_C_S_2504-2506.xlsx").CSVBytes(content)
	require.NoError(t, err)

	assert.Equal(t, "Date,temp,note\n01/04/2025,10,calm\n02/04/2025,11,\n", string(out))
}

func TestCSVBytesRejectsHeaderOnlyWorkbook(t *testing.T) {
	content := xlsxBytes(t, [][]interface{}{
		{"Date", "temp"},
	})

	_, err := NewDataReader("empty.xlsx").CSVBytes(content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least a header row")
}

func TestNewDataReaderExtensionDetection(t *testing.T) {
	assert.Equal(t, "xlsx", NewDataReader("export.XLSX").fileType)
	assert.Equal(t, "xlsx", NewDataReader("export.xls").fileType)
	assert.Equal(t, "csv", NewDataReader("export.csv").fileType)
	assert.Equal(t, "csv", NewDataReader("export").fileType)
}
