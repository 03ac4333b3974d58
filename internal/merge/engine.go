package merge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"seamerge/domain/core"
	"seamerge/domain/sensor"
	"seamerge/internal/ingest"
)

// ConflictPolicy decides what happens when two files supply differing
// values for the same column at the same timestamp during a
// stack-parameters merge. Chosen up front by the caller rather than
// inferred from the rule set.
type ConflictPolicy string

const (
	// LastWins keeps the value from the later file in processing order
	// unless an enabled merge rule qualifies the column instead
	LastWins ConflictPolicy = "last-wins"
	// FirstWins keeps the earlier file's value unless a rule qualifies
	FirstWins ConflictPolicy = "first-wins"
	// ErrorOnConflict aborts the merge on any conflict no rule covers
	ErrorOnConflict ConflictPolicy = "error"
	// SuffixQualify always splits conflicting columns per source suffix
	SuffixQualify ConflictPolicy = "suffix-qualify"
)

// Result is merged tabular output
type Result struct {
	Headers []string
	Rows    []sensor.Row
}

// Engine executes validated merges
type Engine struct{}

// NewEngine creates a merge engine
func NewEngine() *Engine { return &Engine{} }

// Merge combines at least two validated files under the given mode.
// Callers must have run Validate first; Merge re-checks and refuses an
// incompatible set rather than producing a partial result.
func (e *Engine) Merge(files []*sensor.ParsedFile, mode Mode, policy ConflictPolicy, rules []sensor.MergeRule) (*Result, error) {
	if len(files) < 2 {
		return nil, core.ErrTooFewFiles
	}
	if v := Validate(files, mode); !v.Compatible {
		return nil, core.NewIncompatibleError(v.Reason)
	}

	switch mode {
	case ModeSequential:
		return e.mergeSequential(files)
	case ModeStackParameters:
		return e.mergeStackParameters(files, policy, rules)
	}
	return nil, fmt.Errorf("unknown merge mode: %s", mode)
}

// mergeSequential concatenates every row from every file, stable-sorted
// ascending by the shared time column. Equal timestamps keep original
// file order, earlier file first.
func (e *Engine) mergeSequential(files []*sensor.ParsedFile) (*Result, error) {
	timeCol := files[0].TimeColumn

	type sortableRow struct {
		row    sensor.Row
		ts     time.Time
		parsed bool
	}

	var all []sortableRow
	for _, f := range files {
		set := ingest.NewStrategySet()
		for _, row := range f.Rows {
			item := sortableRow{row: row}
			if raw, ok := row[timeCol].(string); ok {
				if t, ok := set.Parse(raw); ok {
					item.ts = t
					item.parsed = true
				}
			}
			all = append(all, item)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.parsed != b.parsed {
			return a.parsed // unparseable timestamps sink to the end
		}
		if !a.parsed {
			return false
		}
		return a.ts.Before(b.ts)
	})

	rows := make([]sensor.Row, len(all))
	for i, item := range all {
		rows[i] = item.row
	}

	return &Result{Headers: append([]string(nil), files[0].Headers...), Rows: rows}, nil
}

// cell tracks a written value and which file wrote it
type cell struct {
	value   interface{}
	fileIdx int
}

// mergeStackParameters builds one output row per unique raw time value,
// widening it with every file's non-time columns. Conflicting columns
// are suffix-qualified or resolved per the conflict policy.
func (e *Engine) mergeStackParameters(files []*sensor.ParsedFile, policy ConflictPolicy, rules []sensor.MergeRule) (*Result, error) {
	timeCol := files[0].TimeColumn
	suffixes := make([]string, len(files))
	for i, f := range files {
		suffixes[i] = FileSuffix(f.FileName)
	}

	// Pass 1: find columns where two files supply differing values at
	// the same time key
	type colKey struct {
		key string
		col string
	}
	written := make(map[colKey]cell)
	conflicted := make(map[string]bool)
	var firstConflict *colKey

	for fi, f := range files {
		for _, row := range f.Rows {
			key := rawTimeKey(row, timeCol)
			if key == "" {
				continue
			}
			for _, col := range f.Headers {
				if col == timeCol {
					continue
				}
				value := row[col]
				if value == nil {
					continue
				}
				ck := colKey{key: key, col: col}
				if prev, ok := written[ck]; ok && prev.fileIdx != fi && prev.value != value {
					if !conflicted[col] {
						conflicted[col] = true
						if firstConflict == nil {
							fc := ck
							firstConflict = &fc
						}
					}
				}
				written[ck] = cell{value: value, fileIdx: fi}
			}
		}
	}

	// Decide disposition of each conflicted column
	qualify := make(map[string]bool)
	for col := range conflicted {
		switch policy {
		case SuffixQualify:
			qualify[col] = true
		case LastWins, FirstWins:
			if rulesCoverSuffixes(rules, suffixes) {
				qualify[col] = true
			}
		case ErrorOnConflict:
			if rulesCoverSuffixes(rules, suffixes) {
				qualify[col] = true
			} else {
				return nil, core.NewConflictError(col, firstConflict.key)
			}
		default:
			return nil, fmt.Errorf("unknown conflict policy: %s", policy)
		}
	}

	// Pass 2: build output rows with per-file target column names
	outCols := []string{timeCol}
	seenCol := map[string]bool{timeCol: true}
	data := make(map[string]sensor.Row)
	var keyOrder []string

	for fi, f := range files {
		for _, col := range f.Headers {
			if col == timeCol {
				continue
			}
			target := col
			if qualify[col] {
				target = qualifiedName(col, suffixes[fi])
			}
			if !seenCol[target] {
				seenCol[target] = true
				outCols = append(outCols, target)
			}
		}

		for _, row := range f.Rows {
			key := rawTimeKey(row, timeCol)
			if key == "" {
				continue
			}
			out, ok := data[key]
			if !ok {
				out = sensor.Row{timeCol: row[timeCol]}
				data[key] = out
				keyOrder = append(keyOrder, key)
			}
			for _, col := range f.Headers {
				if col == timeCol {
					continue
				}
				value := row[col]
				if value == nil {
					continue
				}
				target := col
				if qualify[col] {
					target = qualifiedName(col, suffixes[fi])
				}
				if policy == FirstWins && !qualify[col] {
					if existing, ok := out[target]; ok && existing != nil {
						continue
					}
				}
				out[target] = value
			}
		}
	}

	sortTimeKeys(keyOrder)

	rows := make([]sensor.Row, len(keyOrder))
	for i, key := range keyOrder {
		out := data[key]
		// Missing column/time combinations get explicit nulls
		for _, col := range outCols {
			if _, ok := out[col]; !ok {
				out[col] = nil
			}
		}
		rows[i] = out
	}

	return &Result{Headers: outCols, Rows: rows}, nil
}

// rulesCoverSuffixes reports whether every distinct source suffix has an
// enabled merge rule, the condition for splitting a conflicted column
// into per-series outputs
func rulesCoverSuffixes(rules []sensor.MergeRule, suffixes []string) bool {
	distinct := make(map[string]bool)
	for _, s := range suffixes {
		if s != "" {
			distinct[s] = true
		}
	}
	if len(distinct) < 2 {
		return false
	}
	for s := range distinct {
		covered := false
		for _, r := range rules {
			if r.Enabled && strings.EqualFold(r.Suffix, s) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func qualifiedName(col, suffix string) string {
	if suffix == "" {
		return col
	}
	return col + "_" + suffix
}

func rawTimeKey(row sensor.Row, timeCol string) string {
	raw, _ := row[timeCol].(string)
	return strings.TrimSpace(raw)
}

// sortTimeKeys orders raw time keys ascending by parsed timestamp;
// unparseable keys sort after parseable ones, lexically
func sortTimeKeys(keys []string) {
	set := ingest.NewStrategySet()
	parsed := make(map[string]time.Time, len(keys))
	ok := make(map[string]bool, len(keys))
	for _, k := range keys {
		if t, good := set.Parse(k); good {
			parsed[k] = t
			ok[k] = true
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if ok[a] != ok[b] {
			return ok[a]
		}
		if !ok[a] {
			return a < b
		}
		return parsed[a].Before(parsed[b])
	})
}
