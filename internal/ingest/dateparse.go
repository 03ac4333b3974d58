package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Years outside this window are rejected by every strategy; a parse
// landing outside it signals a misread format, not real data.
const (
	minValidYear = 1991
	maxValidYear = 2099
)

// ParseStrategy attempts one interpretation of a raw cell value.
// Strategies are tried in a fixed priority order; the first to yield a
// time with an in-range year wins.
type ParseStrategy interface {
	Name() string
	TryParse(value string) (time.Time, bool)
}

// DefaultStrategies returns the strategy chain in priority order:
// ISO with Z, ISO without Z, unix seconds, unix milliseconds, Excel
// serial date, locale-ambiguous slash dates.
func DefaultStrategies() []ParseStrategy {
	return []ParseStrategy{
		isoUTCStrategy{},
		isoLocalStrategy{},
		unixSecondsStrategy{},
		unixMillisStrategy{},
		excelSerialStrategy{},
		ambiguousNumericStrategy{},
	}
}

// StrategySet tries strategies in order and remembers the winner so
// subsequent cells of the same file skip the guessing.
type StrategySet struct {
	strategies []ParseStrategy
	winner     int // index of last winning strategy, -1 until first win
}

// NewStrategySet builds a set over the default strategy chain
func NewStrategySet() *StrategySet {
	return &StrategySet{strategies: DefaultStrategies(), winner: -1}
}

// Parse attempts the remembered winner first, then the rest in priority
// order. Returns false when no strategy accepts the value.
func (s *StrategySet) Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if s.winner >= 0 {
		if t, ok := s.strategies[s.winner].TryParse(value); ok {
			return t, true
		}
	}

	for i, strat := range s.strategies {
		if i == s.winner {
			continue
		}
		if t, ok := strat.TryParse(value); ok {
			s.winner = i
			return t, true
		}
	}
	return time.Time{}, false
}

// Winner returns the name of the remembered strategy, or "" before the
// first successful parse.
func (s *StrategySet) Winner() string {
	if s.winner < 0 {
		return ""
	}
	return s.strategies[s.winner].Name()
}

func yearInRange(t time.Time) bool {
	y := t.UTC().Year()
	return y >= minValidYear && y <= maxValidYear
}

// isoUTCStrategy handles ISO 8601 strings with an explicit Z offset
type isoUTCStrategy struct{}

func (isoUTCStrategy) Name() string { return "iso-utc" }

func (isoUTCStrategy) TryParse(value string) (time.Time, bool) {
	if !strings.HasSuffix(value, "Z") {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil && yearInRange(t) {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// isoLocalStrategy handles ISO-shaped strings without an offset,
// treating them as UTC
type isoLocalStrategy struct{}

func (isoLocalStrategy) Name() string { return "iso-local" }

var isoLocalLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (isoLocalStrategy) TryParse(value string) (time.Time, bool) {
	if strings.HasSuffix(value, "Z") {
		return time.Time{}, false
	}
	for _, layout := range isoLocalLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil && yearInRange(t) {
			return t, true
		}
	}
	return time.Time{}, false
}

var tenDigits = regexp.MustCompile(`^\d{10}$`)

// unixSecondsStrategy handles 10-digit Unix epoch seconds
type unixSecondsStrategy struct{}

func (unixSecondsStrategy) Name() string { return "unix-seconds" }

func (unixSecondsStrategy) TryParse(value string) (time.Time, bool) {
	if !tenDigits.MatchString(value) {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	t := time.Unix(secs, 0).UTC()
	if !yearInRange(t) {
		return time.Time{}, false
	}
	return t, true
}

var thirteenPlusDigits = regexp.MustCompile(`^\d{13,}$`)

// unixMillisStrategy handles 13-or-more-digit Unix epoch milliseconds
type unixMillisStrategy struct{}

func (unixMillisStrategy) Name() string { return "unix-millis" }

func (unixMillisStrategy) TryParse(value string) (time.Time, bool) {
	if !thirteenPlusDigits.MatchString(value) {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	t := time.UnixMilli(ms).UTC()
	if !yearInRange(t) {
		return time.Time{}, false
	}
	return t, true
}

// excelSerialStrategy handles numeric serial dates on the 1899-12-30
// epoch, as exported by spreadsheet-based loggers
type excelSerialStrategy struct{}

func (excelSerialStrategy) Name() string { return "excel-serial" }

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func (excelSerialStrategy) TryParse(value string) (time.Time, bool) {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n < 1 || n > 100000 {
		return time.Time{}, false
	}
	t := excelEpoch.Add(time.Duration(n * 86400000 * float64(time.Millisecond)))
	if !yearInRange(t) {
		return time.Time{}, false
	}
	return t, true
}

// ambiguousNumericStrategy handles slash/dash/dot dates where the field
// order is locale-ambiguous. Interpretations are tried as D/M/Y, then
// M/D/Y, then Y/M/D; the first whose calendar fields are coherent and
// whose year is in range wins. When the first group exceeds 12 only the
// D/M/Y reading can succeed.
type ambiguousNumericStrategy struct{}

func (ambiguousNumericStrategy) Name() string { return "ambiguous-numeric" }

var ambiguousPattern = regexp.MustCompile(
	`^(\d{1,4})[/\-.](\d{1,2})[/\-.](\d{1,4})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)

func (ambiguousNumericStrategy) TryParse(value string) (time.Time, bool) {
	m := ambiguousPattern.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, false
	}

	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	c, _ := strconv.Atoi(m[3])

	hour, minute, sec := 0, 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			sec, _ = strconv.Atoi(m[6])
		}
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}

	// day, month, year triples in interpretation order: D/M/Y, M/D/Y, Y/M/D
	interpretations := [][3]int{
		{a, b, c},
		{b, a, c},
		{c, b, a},
	}
	for _, in := range interpretations {
		day, month, year := in[0], in[1], in[2]
		year = expandYear(year)
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		if year < minValidYear || year > maxValidYear {
			continue
		}
		t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
		// time.Date normalizes overflow (31/02 becomes 02/03 or 03/03);
		// reject interpretations that did not survive intact
		if t.Day() != day || int(t.Month()) != month || t.Year() != year {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// expandYear maps two-digit years onto 19xx/20xx
func expandYear(y int) int {
	if y >= 100 {
		return y
	}
	if y >= 91 {
		return 1900 + y
	}
	return 2000 + y
}
