// Package excel reads sensor exports that arrive as spreadsheets and
// normalizes them into the CSV byte form the ingestion pipeline expects.
package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DataReader normalizes Excel and CSV sensor exports into CSV bytes
type DataReader struct {
	fileName string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader keyed on the file's extension
func NewDataReader(fileName string) *DataReader {
	ext := strings.ToLower(filepath.Ext(fileName))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xls" {
		fileType = "xlsx"
	}
	return &DataReader{fileName: fileName, fileType: fileType}
}

// CSVBytes returns the file content as CSV bytes, converting
// spreadsheets and passing CSV through untouched
func (r *DataReader) CSVBytes(content []byte) ([]byte, error) {
	if r.fileType == "csv" {
		return content, nil
	}

	headers, rows, err := r.readExcelData(content)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		// Pad ragged rows out to the header width
		record := make([]string, len(headers))
		copy(record, row)
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// readExcelData reads the first sheet of a spreadsheet into a trimmed
// header row plus data rows
func (r *DataReader) readExcelData(content []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = "Sheet1"
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}

	log.Printf("[DataReader] %s: read %d rows from sheet %s", r.fileName, len(rows), sheet)

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}
	return headers, rows[1:], nil
}
