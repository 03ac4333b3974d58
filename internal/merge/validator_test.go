package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"seamerge/domain/core"
	"seamerge/domain/sensor"
)

func parsedFile(name, timeCol string, headers []string, rows ...sensor.Row) *sensor.ParsedFile {
	return &sensor.ParsedFile{
		FileName:   name,
		FileID:     core.FileID("id-" + name),
		Headers:    headers,
		Rows:       rows,
		TimeColumn: timeCol,
		StartDate:  "01/04/2025",
		EndDate:    "30/04/2025",
	}
}

func TestValidateSequential(t *testing.T) {
	a := parsedFile("a.csv", "Date", []string{"Date", "temp"})
	b := parsedFile("b.csv", "Date", []string{"temp", "Date"}) // order-insensitive
	c := parsedFile("c.csv", "Date", []string{"Date", "salinity"})

	result := Validate([]*sensor.ParsedFile{a, b}, ModeSequential)
	assert.True(t, result.Compatible)
	assert.Equal(t, []string{"Date", "temp"}, result.CommonHeaders)
	assert.Empty(t, result.VaryingHeaders)

	result = Validate([]*sensor.ParsedFile{a, c}, ModeSequential)
	assert.False(t, result.Compatible)
	assert.Equal(t, "header mismatch", result.Reason)
	assert.Equal(t, []string{"Date"}, result.CommonHeaders)
	assert.Equal(t, []string{"salinity", "temp"}, result.VaryingHeaders)
}

func TestValidateStackParameters(t *testing.T) {
	a := parsedFile("a.csv", "Date", []string{"Date", "temp"})
	c := parsedFile("c.csv", "Date", []string{"Date", "salinity"})

	// Differing non-time headers are fine: they widen the output
	result := Validate([]*sensor.ParsedFile{a, c}, ModeStackParameters)
	assert.True(t, result.Compatible)

	d := parsedFile("d.csv", "Timestamp", []string{"Timestamp", "ph"})
	result = Validate([]*sensor.ParsedFile{a, d}, ModeStackParameters)
	assert.False(t, result.Compatible)
	assert.Equal(t, "time column mismatch", result.Reason)
}

func TestValidateRequiresTwoFiles(t *testing.T) {
	a := parsedFile("a.csv", "Date", []string{"Date", "temp"})

	for _, mode := range []Mode{ModeSequential, ModeStackParameters} {
		result := Validate([]*sensor.ParsedFile{a}, mode)
		assert.False(t, result.Compatible)
		assert.Equal(t, "merge requires at least two files", result.Reason)
	}
}

func TestValidateUnknownMode(t *testing.T) {
	a := parsedFile("a.csv", "Date", []string{"Date", "temp"})
	b := parsedFile("b.csv", "Date", []string{"Date", "temp"})

	result := Validate([]*sensor.ParsedFile{a, b}, Mode("zip"))
	assert.False(t, result.Compatible)
	assert.Contains(t, result.Reason, "unknown merge mode")
}
