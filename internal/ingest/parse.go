package ingest

import (
	"fmt"

	"seamerge/domain/core"
	"seamerge/domain/sensor"
)

// ParseFile ingests a raw file into a ParsedFile ready for merging. The
// date analysis runs (or is served from cache) as part of parsing; an
// analysis failure is returned as an error here because a file without
// a usable time column cannot participate in a merge.
func (a *DateAnalyzer) ParseFile(fileID core.FileID, raw *sensor.RawFile) (*sensor.ParsedFile, error) {
	analysis := a.AnalyzeDateRange(fileID, raw.Name, raw.Content)
	if analysis.Error != "" {
		return nil, fmt.Errorf("analysis of %s failed: %s", raw.Name, analysis.Error)
	}

	headers, records, err := readCSVTable(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", raw.Name, err)
	}

	rows := make([]sensor.Row, len(records))
	for i, record := range records {
		row := make(sensor.Row, len(headers))
		for j, header := range headers {
			if j < len(record) && record[j] != "" {
				row[header] = record[j]
			} else {
				row[header] = nil
			}
		}
		rows[i] = row
	}

	return &sensor.ParsedFile{
		FileName:    raw.Name,
		FileID:      fileID,
		Headers:     headers,
		Rows:        rows,
		TimeColumn:  analysis.TimeColumn,
		IsDiscrete:  analysis.IsDiscrete,
		StartDate:   analysis.StartDate,
		EndDate:     analysis.EndDate,
		UniqueDates: analysis.UniqueDates,
	}, nil
}
