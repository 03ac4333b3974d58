// Package merge validates, combines and names sets of parsed sensor
// data files.
package merge

import (
	"sort"

	"seamerge/domain/sensor"
)

// Mode selects the merge algorithm
type Mode string

const (
	// ModeSequential concatenates every source row, ordered by time
	ModeSequential Mode = "sequential"
	// ModeStackParameters widens rows keyed by timestamp with columns
	// drawn from every source file
	ModeStackParameters Mode = "stack-parameters"
)

// ValidationResult reports whether a file set may be merged under a
// mode, and how their headers relate
type ValidationResult struct {
	Compatible     bool     `json:"compatible"`
	Reason         string   `json:"reason,omitempty"`
	CommonHeaders  []string `json:"common_headers"`
	VaryingHeaders []string `json:"varying_headers"`
}

// Validate decides whether files may be merged under mode. A failing
// result is hard-blocking: no merge computation may be attempted.
func Validate(files []*sensor.ParsedFile, mode Mode) ValidationResult {
	common, varying := headerOverlap(files)
	result := ValidationResult{CommonHeaders: common, VaryingHeaders: varying}

	if len(files) < 2 {
		result.Reason = "merge requires at least two files"
		return result
	}

	switch mode {
	case ModeSequential:
		// Every file must carry the identical header set, order-insensitive
		first := headerSet(files[0].Headers)
		for _, f := range files[1:] {
			if !sameHeaderSet(first, headerSet(f.Headers)) {
				result.Reason = "header mismatch"
				return result
			}
		}
	case ModeStackParameters:
		// Files must share the time column; other headers become extra
		// output columns
		timeCol := files[0].TimeColumn
		if timeCol == "" {
			result.Reason = "no time column identified"
			return result
		}
		for _, f := range files[1:] {
			if f.TimeColumn != timeCol {
				result.Reason = "time column mismatch"
				return result
			}
		}
		for _, f := range files {
			if f.StartDate.IsZero() {
				result.Reason = "file " + f.FileName + " has no parsable time values"
				return result
			}
		}
	default:
		result.Reason = "unknown merge mode: " + string(mode)
		return result
	}

	result.Compatible = true
	return result
}

func headerSet(headers []string) map[string]bool {
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[h] = true
	}
	return set
}

func sameHeaderSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for h := range a {
		if !b[h] {
			return false
		}
	}
	return true
}

// headerOverlap splits the files' headers into those shared by all and
// those present in only some. Common headers keep the first file's
// order; varying headers are sorted.
func headerOverlap(files []*sensor.ParsedFile) (common, varying []string) {
	if len(files) == 0 {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, f := range files {
		for h := range headerSet(f.Headers) {
			counts[h]++
		}
	}

	for _, h := range files[0].Headers {
		if counts[h] == len(files) {
			common = append(common, h)
		}
	}
	for h, n := range counts {
		if n < len(files) {
			varying = append(varying, h)
		}
	}
	sort.Strings(varying)
	return common, varying
}
