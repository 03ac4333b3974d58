// Package ingest classifies raw sensor export files and analyzes their
// date coverage ahead of merging.
//
// File naming convention (classification and naming both depend on it):
//
//	<PROJECT>_<DATATYPE>_<STATION>_<DIRECTION>[_PELAGIC]_<YYMM>-<YYMM>[_<suffix>...].csv
//
// Legacy alternate form also recognized:
//
//	<DATATYPE>-<Variant>_<Project>-<Station>_<YYMM>-<YYMM>[_<suffix>...].csv
package ingest

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"seamerge/domain/sensor"
)

// Classification is the result of inspecting a filename
type Classification struct {
	Type          sensor.InstrumentType
	AreaWide      bool           // token[2] == ALL: project-wide, not station-specific
	ExpectedRange *YearMonthRange // from the YYMM-YYMM segment, when present
}

// YearMonthRange is an inclusive calendar window parsed from a
// filename's YYMM-YYMM segment
type YearMonthRange struct {
	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int
}

// Contains reports whether year/month falls inside the window
func (r *YearMonthRange) Contains(year, month int) bool {
	from := r.StartYear*100 + r.StartMonth
	to := r.EndYear*100 + r.EndMonth
	ym := year*100 + month
	return ym >= from && ym <= to
}

// instrumentCodes in match priority order. Order matters: some codes are
// substrings of others (CHEM of CHEMSW/CHEMWQ, WQ of CHEMWQ).
var instrumentCodes = []sensor.InstrumentType{
	sensor.InstrumentCROP,
	sensor.InstrumentCHEMSW,
	sensor.InstrumentCHEMWQ,
	sensor.InstrumentCHEM,
	sensor.InstrumentWQ,
	sensor.InstrumentEDNA,
	sensor.InstrumentFPOD,
	sensor.InstrumentSubcam,
	sensor.InstrumentGP,
}

var yymmRangePattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Classify derives the instrument type from a filename. Pure: the same
// input always yields the same result.
func Classify(fileName string) sensor.InstrumentType {
	base := stripExtension(fileName)
	tokens := strings.Split(base, "_")

	for _, code := range instrumentCodes {
		needle := strings.ToLower(code.String())
		for i := 0; i < 2 && i < len(tokens); i++ {
			if strings.Contains(strings.ToLower(tokens[i]), needle) {
				return code
			}
		}
	}

	// Suffix fallback for legacy names carrying the code later on
	lower := strings.ToLower(base)
	if strings.Contains(lower, "_chem") {
		return sensor.InstrumentCHEM
	}
	if strings.Contains(lower, "_wq") {
		return sensor.InstrumentWQ
	}

	return sensor.InstrumentGP
}

// ClassifyFile inspects the full filename: instrument type, area-wide
// marker and the expected YYMM-YYMM coverage window
func ClassifyFile(fileName string) Classification {
	base := stripExtension(fileName)
	tokens := strings.Split(base, "_")

	c := Classification{Type: Classify(fileName)}

	if len(tokens) > 2 && strings.EqualFold(tokens[2], "ALL") {
		c.AreaWide = true
	}

	c.ExpectedRange = extractExpectedRange(tokens)
	return c
}

// extractExpectedRange finds the YYMM-YYMM segment. The 24hr shape
// splits the range across two plain YYMM tokens instead.
func extractExpectedRange(tokens []string) *YearMonthRange {
	for i, tok := range tokens {
		if m := yymmRangePattern.FindStringSubmatch(tok); m != nil {
			return rangeFromYYMM(m[1], m[2])
		}
		// 24hr shape: ..._2504_2506_24hr
		if i+1 < len(tokens) && isYYMM(tok) && isYYMM(tokens[i+1]) {
			return rangeFromYYMM(tok, tokens[i+1])
		}
	}
	return nil
}

func rangeFromYYMM(from, to string) *YearMonthRange {
	fy, fm, ok1 := parseYYMM(from)
	ty, tm, ok2 := parseYYMM(to)
	if !ok1 || !ok2 {
		return nil
	}
	return &YearMonthRange{StartYear: fy, StartMonth: fm, EndYear: ty, EndMonth: tm}
}

func parseYYMM(s string) (year, month int, ok bool) {
	if len(s) != 4 {
		return 0, 0, false
	}
	yy, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, 0, false
	}
	mm, err := strconv.Atoi(s[2:])
	if err != nil || mm < 1 || mm > 12 {
		return 0, 0, false
	}
	return 2000 + yy, mm, true
}

func isYYMM(s string) bool {
	_, _, ok := parseYYMM(s)
	return ok
}

func stripExtension(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
