package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"seamerge/domain/core"
)

// DateRange is the outcome of analyzing one file's date coverage.
// Failures are reported through Error; AnalyzeDateRange never panics or
// returns a Go error, so one bad file cannot abort a batch.
type DateRange struct {
	TotalDays   int               `json:"total_days"`
	StartDate   core.CoverageDate `json:"start_date"`
	EndDate     core.CoverageDate `json:"end_date"`
	UniqueDates []string          `json:"unique_dates,omitempty"`
	IsDiscrete  bool              `json:"is_discrete"`
	TimeColumn  string            `json:"time_column,omitempty"`
	Gaps        *GapSummary       `json:"gaps,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// GapSummary describes spacing between consecutive sampled days
type GapSummary struct {
	Count      int     `json:"count"`
	MedianDays float64 `json:"median_days"`
	P90Days    float64 `json:"p90_days"`
}

// Column header keywords identifying time candidates, in rank order.
// timestamp/datetime/time outrank the generic calendar words.
var (
	primaryTimeKeywords   = []string{"timestamp", "datetime", "time"}
	secondaryTimeKeywords = []string{"date", "day", "year", "month"}
)

type cacheKey struct {
	fileID  core.FileID
	content core.ContentHash
}

// DateAnalyzer analyzes date coverage of sensor data files. Results are
// cached content-addressed (file ID + content hash), so re-analysis of
// unchanged content is free and changed content never serves stale data.
type DateAnalyzer struct {
	mu    sync.Mutex
	cache map[cacheKey]DateRange
}

// NewDateAnalyzer creates an analyzer with an empty cache
func NewDateAnalyzer() *DateAnalyzer {
	return &DateAnalyzer{cache: make(map[cacheKey]DateRange)}
}

// Invalidate drops every cached result for the given file ID
func (a *DateAnalyzer) Invalidate(fileID core.FileID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.cache {
		if key.fileID == fileID {
			delete(a.cache, key)
		}
	}
}

// AnalyzeDateRange computes the date coverage of a raw file. All failure
// modes come back in the Error field.
func (a *DateAnalyzer) AnalyzeDateRange(fileID core.FileID, fileName string, content []byte) DateRange {
	key := cacheKey{fileID: fileID, content: core.NewContentHash(content)}

	a.mu.Lock()
	if cached, ok := a.cache[key]; ok {
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	result := a.analyze(fileName, content)

	a.mu.Lock()
	a.cache[key] = result
	a.mu.Unlock()

	return result
}

func (a *DateAnalyzer) analyze(fileName string, content []byte) DateRange {
	headers, rows, err := readCSVTable(content)
	if err != nil {
		return DateRange{Error: fmt.Sprintf("Failed to parse CSV: %v", err)}
	}

	candidates := timeColumnCandidates(headers)
	if len(candidates) == 0 {
		return DateRange{Error: core.ErrNoDateColumn.Error()}
	}

	// One strategy set per candidate column so the winning format is
	// remembered and reused for the rest of the file
	sets := make([]*StrategySet, len(candidates))
	for i := range sets {
		sets[i] = NewStrategySet()
	}

	var parsed []time.Time
	hits := make([]int, len(candidates))
	for _, row := range rows {
		for ci, col := range candidates {
			idx := col.index
			if idx >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[idx])
			if value == "" {
				continue
			}
			if t, ok := sets[ci].Parse(value); ok {
				parsed = append(parsed, t)
				hits[ci]++
				break
			}
		}
		// Rows failing every candidate are dropped from the date set only
	}

	if len(parsed) == 0 {
		return DateRange{Error: core.ErrNoParsableDates.Error()}
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })
	min, max := parsed[0], parsed[len(parsed)-1]

	best := 0
	for ci := range candidates {
		if hits[ci] > hits[best] {
			best = ci
		}
	}

	classification := ClassifyFile(fileName)
	result := DateRange{
		StartDate:  core.NewCoverageDate(min),
		EndDate:    core.NewCoverageDate(max),
		IsDiscrete: classification.Type.IsDiscrete(),
		TimeColumn: candidates[best].name,
	}

	uniqueDays := uniqueDayKeys(parsed)
	if result.IsDiscrete {
		result.UniqueDates = uniqueDays
		result.TotalDays = len(uniqueDays)
	} else {
		span := max.Sub(min)
		result.TotalDays = int(math.Ceil(span.Hours()/24)) + 1
	}

	result.Gaps = summarizeGaps(uniqueDays)

	a.sanityCheckRange(fileName, classification, parsed)

	return result
}

// sanityCheckRange flags parsed dates falling outside the filename's
// encoded YYMM-YYMM window. Log-only: a hit signals a likely date-format
// misparse but never blocks downstream use.
func (a *DateAnalyzer) sanityCheckRange(fileName string, c Classification, parsed []time.Time) {
	if !c.Type.IsDiscrete() || c.ExpectedRange == nil {
		return
	}
	outside := 0
	for _, t := range parsed {
		if !c.ExpectedRange.Contains(t.Year(), int(t.Month())) {
			outside++
		}
	}
	if outside > 0 {
		log.Printf("[DateAnalyzer] %s: %d/%d parsed dates fall outside the filename range %02d%02d-%02d%02d, possible format misparse",
			fileName, outside, len(parsed),
			c.ExpectedRange.StartYear%100, c.ExpectedRange.StartMonth,
			c.ExpectedRange.EndYear%100, c.ExpectedRange.EndMonth)
	}
}

// summarizeGaps reports day gaps between consecutive sampled days
func summarizeGaps(uniqueDays []string) *GapSummary {
	if len(uniqueDays) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(uniqueDays)-1)
	for i := 1; i < len(uniqueDays); i++ {
		prev, err1 := time.Parse("2006-01-02", uniqueDays[i-1])
		next, err2 := time.Parse("2006-01-02", uniqueDays[i])
		if err1 != nil || err2 != nil {
			continue
		}
		gaps = append(gaps, next.Sub(prev).Hours()/24)
	}
	if len(gaps) == 0 {
		return nil
	}
	median, err := stats.Median(gaps)
	if err != nil {
		return nil
	}
	p90, err := stats.Percentile(gaps, 90)
	if err != nil {
		p90 = median
	}
	return &GapSummary{Count: len(gaps), MedianDays: median, P90Days: p90}
}

// timeColumn holds a candidate header with its original position
type timeColumn struct {
	name  string
	index int
	rank  int
}

// timeColumnCandidates selects headers containing a time keyword,
// ranked with timestamp/datetime/time ahead of date/day/year/month
func timeColumnCandidates(headers []string) []timeColumn {
	var candidates []timeColumn
	for i, h := range headers {
		lower := strings.ToLower(h)
		rank := -1
		for _, kw := range primaryTimeKeywords {
			if strings.Contains(lower, kw) {
				rank = 0
				break
			}
		}
		if rank < 0 {
			for _, kw := range secondaryTimeKeywords {
				if strings.Contains(lower, kw) {
					rank = 1
					break
				}
			}
		}
		if rank >= 0 {
			candidates = append(candidates, timeColumn{name: h, index: i, rank: rank})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].rank < candidates[j].rank
	})
	return candidates
}

// uniqueDayKeys returns the sorted distinct calendar days of a parsed,
// ascending timestamp list
func uniqueDayKeys(parsed []time.Time) []string {
	seen := make(map[string]bool)
	var days []string
	for _, t := range parsed {
		key := core.DayKey(t)
		if !seen[key] {
			seen[key] = true
			days = append(days, key)
		}
	}
	return days
}

// readCSVTable decodes CSV bytes into a trimmed header row plus raw
// string rows. Ragged rows are tolerated; short rows are padded by the
// consumers that index into them.
func readCSVTable(content []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("CSV file is empty")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	return headers, records[1:], nil
}
