package core

import (
	"fmt"
	"time"
)

// CoverageDate is a calendar date rendered as DD/MM/YYYY, the display
// format used throughout coverage windows and merged file metadata.
type CoverageDate string

const coverageLayout = "02/01/2006"

// NewCoverageDate formats a time.Time as a coverage date in UTC
func NewCoverageDate(t time.Time) CoverageDate {
	return CoverageDate(t.UTC().Format(coverageLayout))
}

// String returns the string representation
func (d CoverageDate) String() string {
	return string(d)
}

// IsZero checks if the date is unset
func (d CoverageDate) IsZero() bool {
	return d == ""
}

// Time parses the coverage date back into a UTC time.Time
func (d CoverageDate) Time() (time.Time, error) {
	t, err := time.Parse(coverageLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid coverage date %q: %w", d, err)
	}
	return t, nil
}

// Before returns true if d is an earlier calendar date than other.
// Unparseable dates compare as not-before.
func (d CoverageDate) Before(other CoverageDate) bool {
	a, err := d.Time()
	if err != nil {
		return false
	}
	b, err := other.Time()
	if err != nil {
		return false
	}
	return a.Before(b)
}

// DayKey is a sortable YYYY-MM-DD calendar-day key for unique date sets
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
