package merge

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var dateRangeToken = regexp.MustCompile(`^\d{4}-\d{4}$`)

// FileSuffix derives the distinguishing suffix of a filename: the
// tokens after the YYMM-YYMM date range segment, underscore-joined
// (e.g. "LOG_AVG"). Falls back to the last token when no range segment
// is present; empty when there is nothing to derive.
func FileSuffix(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	tokens := strings.Split(base, "_")

	for i, tok := range tokens {
		if dateRangeToken.MatchString(tok) {
			return strings.Join(tokens[i+1:], "_")
		}
		// 24hr shape spreads the range over two plain YYMM tokens
		if i+1 < len(tokens) && isYYMMToken(tok) && isYYMMToken(tokens[i+1]) {
			return strings.Join(tokens[i+2:], "_")
		}
	}

	if len(tokens) < 2 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func isYYMMToken(s string) bool {
	if len(s) != 4 {
		return false
	}
	if _, err := strconv.Atoi(s); err != nil {
		return false
	}
	mm, _ := strconv.Atoi(s[2:])
	return mm >= 1 && mm <= 12
}

// NameMergedFile derives a deterministic output filename from the input
// filenames. Order-sensitive: re-ordering inputs may change the result
// when token positions diverge. Idempotent for a fixed ordered list; it
// does not guarantee non-collision with existing filenames.
func NameMergedFile(fileNames []string) string {
	if len(fileNames) == 0 {
		return "merge.csv"
	}

	tokenLists := make([][]string, len(fileNames))
	minTokens := -1
	for i, name := range fileNames {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		tokenLists[i] = strings.Split(base, "_")
		if minTokens < 0 || len(tokenLists[i]) < minTokens {
			minTokens = len(tokenLists[i])
		}
	}

	if name, ok := name24hr(tokenLists); ok {
		return name
	}

	// Generic: keep tokens shared by every file; diverging positions
	// collapse to a single "merge" token, never repeated consecutively
	var out []string
	for i := 0; i < minTokens; i++ {
		identical := true
		for _, tokens := range tokenLists[1:] {
			if tokens[i] != tokenLists[0][i] {
				identical = false
				break
			}
		}
		if identical {
			out = append(out, tokenLists[0][i])
		} else if len(out) == 0 || out[len(out)-1] != "merge" {
			out = append(out, "merge")
		}
	}

	return strings.Join(out, "_") + ".csv"
}

// name24hr handles the 24hr export shape
// <PROJECT>_<TYPE>_<ST>_<DIR>_<YYMM>_<YYMM>_24hr: same date range but
// different stations collapses the station segment into a bracketed
// sorted list; when the ranges differ too, both segments become the
// literal "merge".
func name24hr(tokenLists [][]string) (string, bool) {
	for _, tokens := range tokenLists {
		if len(tokens) < 7 || tokens[len(tokens)-1] != "24hr" {
			return "", false
		}
	}

	stations := make([]string, len(tokenLists))
	ranges := make([]string, len(tokenLists))
	for i, tokens := range tokenLists {
		stations[i] = tokens[2] + "_" + tokens[3]
		ranges[i] = tokens[4] + "_" + tokens[5]
	}

	sameRange := allEqual(ranges)
	sameStation := allEqual(stations)

	first := tokenLists[0]
	switch {
	case sameRange && !sameStation:
		bracket := "[" + strings.Join(sortedDistinct(stations), "_") + "]"
		out := append([]string{first[0], first[1], bracket, first[4], first[5]}, first[6:]...)
		return strings.Join(out, "_") + ".csv", true
	case !sameRange && !sameStation:
		out := append([]string{first[0], first[1], "merge", "merge"}, first[6:]...)
		return strings.Join(out, "_") + ".csv", true
	}

	// Same stations (ranges equal or not): generic algorithm applies
	return "", false
}

func allEqual(values []string) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func sortedDistinct(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
