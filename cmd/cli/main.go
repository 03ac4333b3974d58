// Command cli merges local sensor export files without the HTTP
// service: analyze each input, validate the set, merge, and write the
// derived output file next to the inputs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"seamerge/adapters/excel"
	"seamerge/domain/core"
	"seamerge/domain/sensor"
	"seamerge/internal/ingest"
	"seamerge/internal/merge"
)

func main() {
	mode := flag.String("mode", string(merge.ModeSequential), "merge mode: sequential or stack-parameters")
	policy := flag.String("policy", string(merge.LastWins), "conflict policy: last-wins, first-wins, error, suffix-qualify")
	rulesJSON := flag.String("rules", "", `merge rules as JSON, e.g. [{"suffix":"LOG_AVG","enabled":true}]`)
	outDir := flag.String("out", ".", "output directory for the merged CSV")
	analyzeOnly := flag.Bool("analyze", false, "only print per-file date analysis")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Printf("[CLI] loaded .env")
	}

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatal("[CLI] no input files given")
	}

	var rules []sensor.MergeRule
	if *rulesJSON != "" {
		if err := json.Unmarshal([]byte(*rulesJSON), &rules); err != nil {
			log.Fatalf("[CLI] invalid -rules: %v", err)
		}
	}

	analyzer := ingest.NewDateAnalyzer()
	var files []*sensor.ParsedFile
	var names []string

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("[CLI] failed to read %s: %v", path, err)
		}
		name := filepath.Base(path)
		content, err := excel.NewDataReader(name).CSVBytes(raw)
		if err != nil {
			log.Fatalf("[CLI] failed to normalize %s: %v", path, err)
		}

		fileID := core.FileID(core.NewID())
		result := analyzer.AnalyzeDateRange(fileID, name, content)
		if result.Error != "" {
			fmt.Printf("%s: ERROR %s\n", name, result.Error)
			if !*analyzeOnly {
				os.Exit(1)
			}
			continue
		}
		fmt.Printf("%s: %s type=%s days=%d %s..%s column=%q\n",
			name, discreteness(result.IsDiscrete), ingest.Classify(name),
			result.TotalDays, result.StartDate, result.EndDate, result.TimeColumn)

		if *analyzeOnly {
			continue
		}
		parsed, err := analyzer.ParseFile(fileID, &sensor.RawFile{Name: name, Content: content, Size: int64(len(content))})
		if err != nil {
			log.Fatalf("[CLI] %v", err)
		}
		files = append(files, parsed)
		names = append(names, name)
	}

	if *analyzeOnly {
		return
	}

	mergeMode := merge.Mode(*mode)
	if v := merge.Validate(files, mergeMode); !v.Compatible {
		log.Fatalf("[CLI] files are not compatible: %s", v.Reason)
	}

	result, err := merge.NewEngine().Merge(files, mergeMode, merge.ConflictPolicy(*policy), rules)
	if err != nil {
		log.Fatalf("[CLI] merge failed: %v", err)
	}

	outName := merge.NameMergedFile(names)
	outPath := filepath.Join(*outDir, outName)
	if err := writeCSV(outPath, result); err != nil {
		log.Fatalf("[CLI] failed to write %s: %v", outPath, err)
	}
	fmt.Printf("merged %d files -> %s (%d rows)\n", len(files), outPath, len(result.Rows))
}

func discreteness(isDiscrete bool) string {
	if isDiscrete {
		return "discrete"
	}
	return "continuous"
}

func writeCSV(path string, result *merge.Result) error {
	data, err := merge.EncodeCSV(result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
