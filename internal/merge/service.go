package merge

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"seamerge/domain/core"
	"seamerge/domain/sensor"
	"seamerge/internal/ingest"
	"seamerge/internal/storage"
	"seamerge/ports"
)

// FileRef locates one stored input file
type FileRef struct {
	ID   core.FileID `json:"id"`
	Name string      `json:"name"`
	Path string      `json:"path"`
}

// FileAnalysis pairs a file reference with its date coverage result
type FileAnalysis struct {
	Ref    FileRef          `json:"ref"`
	Result ingest.DateRange `json:"result"`
}

// CreateMergeRequest carries everything needed for one merge
type CreateMergeRequest struct {
	PinID     core.PinID        `json:"pin_id"`
	ProjectID core.ProjectID    `json:"project_id"`
	Mode      Mode              `json:"mode"`
	Policy    ConflictPolicy    `json:"policy"`
	Rules     []sensor.MergeRule `json:"rules"`
	Files     []FileRef         `json:"files"`
}

// Service orchestrates the analyze/validate/merge/persist pipeline
type Service struct {
	analyzer *ingest.DateAnalyzer
	storage  storage.FileStorage
	repo     ports.MergedFileRepository
	engine   *Engine
}

// NewService wires the pipeline. repo may be nil for callers that do
// not persist metadata (the CLI writes straight to disk).
func NewService(analyzer *ingest.DateAnalyzer, fs storage.FileStorage, repo ports.MergedFileRepository) *Service {
	return &Service{
		analyzer: analyzer,
		storage:  fs,
		repo:     repo,
		engine:   NewEngine(),
	}
}

// AnalyzeBatch analyzes files strictly sequentially, in input order, so
// log output stays ordered and storage calls stay rate-bounded. Every
// failure is captured per-file; the batch always completes.
func (s *Service) AnalyzeBatch(ctx context.Context, refs []FileRef) []FileAnalysis {
	results := make([]FileAnalysis, len(refs))
	for i, ref := range refs {
		results[i] = FileAnalysis{Ref: ref, Result: s.analyzeOne(ctx, ref)}
	}
	return results
}

// AnalyzeAll is the bounded-concurrency variant used by the API path,
// where ordering of log output does not matter
func (s *Service) AnalyzeAll(ctx context.Context, refs []FileRef, limit int) []FileAnalysis {
	if limit <= 0 {
		limit = 4
	}
	results := make([]FileAnalysis, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			results[i] = FileAnalysis{Ref: ref, Result: s.analyzeOne(ctx, ref)}
			return nil
		})
	}
	g.Wait() // workers never return errors; failures live in the results

	return results
}

func (s *Service) analyzeOne(ctx context.Context, ref FileRef) ingest.DateRange {
	content, err := storage.Download(ctx, s.storage, ref.Path)
	if err != nil {
		return ingest.DateRange{Error: fmt.Sprintf("Download timeout/failed: %v", err)}
	}
	return s.analyzer.AnalyzeDateRange(ref.ID, ref.Name, content)
}

// Validate downloads and parses the referenced files, then applies the
// compatibility rules for the mode
func (s *Service) Validate(ctx context.Context, refs []FileRef, mode Mode) (ValidationResult, error) {
	files, err := s.loadFiles(ctx, refs)
	if err != nil {
		return ValidationResult{}, err
	}
	return Validate(files, mode), nil
}

// CreateMergedFile runs the full pipeline: load, validate (blocking),
// merge, name, then persist as a saga. The blob upload and the metadata
// insert are two independent writes; a metadata failure compensates by
// deleting the uploaded blob so no partial record survives.
func (s *Service) CreateMergedFile(ctx context.Context, req CreateMergeRequest) (*sensor.MergedFile, error) {
	files, err := s.loadFiles(ctx, req.Files)
	if err != nil {
		return nil, err
	}

	if v := Validate(files, req.Mode); !v.Compatible {
		return nil, core.NewIncompatibleError(v.Reason)
	}

	policy := req.Policy
	if policy == "" {
		policy = LastWins
	}

	result, err := s.engine.Merge(files, req.Mode, policy, req.Rules)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.FileName
	}
	fileName := NameMergedFile(names)

	csvBytes, err := EncodeCSV(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged CSV: %w", err)
	}

	filePath, err := s.storage.Store(ctx, bytes.NewReader(csvBytes), fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: upload: %v", core.ErrPersistenceFailed, err)
	}

	mf := sensor.NewMergedFile(fileName, filePath, req.ProjectID)
	mf.PinID = req.PinID
	mf.MergeMode = string(req.Mode)
	for _, f := range files {
		mf.SourceFileIDs = append(mf.SourceFileIDs, f.FileID)
		mf.SourceFilesMetadata = append(mf.SourceFilesMetadata, sensor.SourceFileMetadata{
			FileID:   f.FileID,
			FileName: f.FileName,
			RowCount: len(f.Rows),
			Type:     ingest.Classify(f.FileName),
		})
	}
	mf.StartDate, mf.EndDate = coverageWindow(files)

	if s.repo != nil {
		if err := s.repo.Create(ctx, mf); err != nil {
			// Compensate: the blob write already happened, roll it back
			if delErr := s.storage.Delete(ctx, filePath); delErr != nil {
				log.Printf("[MergeService] compensating delete of %s failed: %v", filePath, delErr)
			}
			return nil, fmt.Errorf("%w: metadata: %v", core.ErrPersistenceFailed, err)
		}
	}

	log.Printf("[MergeService] merged %d files into %s (%d rows, mode=%s)",
		len(files), fileName, len(result.Rows), req.Mode)
	return mf, nil
}

// DeleteMergedFile removes both the stored blob and the metadata record
func (s *Service) DeleteMergedFile(ctx context.Context, id core.MergedFileID) error {
	if s.repo == nil {
		return fmt.Errorf("no repository configured")
	}
	mf, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, mf.FilePath); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DownloadMergedFile returns the merged CSV bytes for a stored path
func (s *Service) DownloadMergedFile(ctx context.Context, filePath string) ([]byte, error) {
	return storage.Download(ctx, s.storage, filePath)
}

// loadFiles downloads and parses every referenced file. Unlike batch
// analysis this is all-or-nothing: a merge cannot proceed with a subset.
func (s *Service) loadFiles(ctx context.Context, refs []FileRef) ([]*sensor.ParsedFile, error) {
	files := make([]*sensor.ParsedFile, len(refs))
	for i, ref := range refs {
		content, err := storage.Download(ctx, s.storage, ref.Path)
		if err != nil {
			return nil, err
		}
		raw := &sensor.RawFile{Name: ref.Name, Content: content, Size: int64(len(content))}
		parsed, err := s.analyzer.ParseFile(ref.ID, raw)
		if err != nil {
			return nil, err
		}
		files[i] = parsed
	}
	return files, nil
}

// coverageWindow spans the earliest start to the latest end across files
func coverageWindow(files []*sensor.ParsedFile) (core.CoverageDate, core.CoverageDate) {
	var start, end core.CoverageDate
	for _, f := range files {
		if start.IsZero() || f.StartDate.Before(start) {
			start = f.StartDate
		}
		if end.IsZero() || end.Before(f.EndDate) {
			end = f.EndDate
		}
	}
	return start, end
}

// EncodeCSV renders merged output as comma-delimited, newline-terminated
// rows. Values containing the delimiter are quoted by csv.Writer.
func EncodeCSV(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(result.Headers); err != nil {
		return nil, err
	}
	record := make([]string, len(result.Headers))
	for _, row := range result.Rows {
		for i, h := range result.Headers {
			switch v := row[h].(type) {
			case nil:
				record[i] = ""
			case string:
				record[i] = v
			default:
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
