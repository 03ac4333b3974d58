package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"seamerge/adapters/excel"
	"seamerge/domain/core"
	"seamerge/domain/sensor"
	"seamerge/internal/ingest"
	"seamerge/internal/merge"
)

const maxUploadBytes = 100 << 20 // 100MB across a multipart request

type analyzeResponse struct {
	FileName string           `json:"file_name"`
	FileID   string           `json:"file_id"`
	Type     string           `json:"type"`
	AreaWide bool             `json:"area_wide"`
	Result   ingest.DateRange `json:"result"`
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyzeFiles analyzes each uploaded file's date coverage.
// Per-file failures come back inside the result objects; the endpoint
// itself only fails on a malformed request.
func (s *Server) handleAnalyzeFiles(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	results := make([]analyzeResponse, len(uploads))
	for i, up := range uploads {
		classification := ingest.ClassifyFile(up.name)
		results[i] = analyzeResponse{
			FileName: up.name,
			FileID:   up.id.String(),
			Type:     classification.Type.String(),
			AreaWide: classification.AreaWide,
			Result:   s.analyzer.AnalyzeDateRange(up.id, up.name, up.content),
		}
	}
	respondJSON(w, http.StatusOK, results)
}

// handleAnalyzeStored analyzes files already in blob storage, referenced
// by path. Runs with bounded concurrency unless the limit is 1, which
// keeps strict input order end to end.
func (s *Server) handleAnalyzeStored(w http.ResponseWriter, r *http.Request) {
	var refs []merge.FileRef
	if err := json.NewDecoder(r.Body).Decode(&refs); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(refs) == 0 {
		respondError(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	var results []merge.FileAnalysis
	if s.analyzeLimit > 1 {
		results = s.service.AnalyzeAll(r.Context(), refs, s.analyzeLimit)
	} else {
		results = s.service.AnalyzeBatch(r.Context(), refs)
	}
	respondJSON(w, http.StatusOK, results)
}

// handleInvalidate drops cached analysis results for a file ID
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, fmt.Errorf("missing file id"))
		return
	}
	s.analyzer.Invalidate(core.FileID(id))
	respondJSON(w, http.StatusOK, map[string]string{"invalidated": id})
}

// handleValidateMerge checks whether the uploaded files can merge under
// the requested mode
func (s *Server) handleValidateMerge(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	mode := merge.Mode(r.FormValue("mode"))

	files, err := s.parseUploads(uploads)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err)
		return
	}

	respondJSON(w, http.StatusOK, merge.Validate(files, mode))
}

// handleCreateMerge stores the uploads, runs the full merge pipeline
// and returns the persisted MergedFile record
func (s *Server) handleCreateMerge(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var rules []sensor.MergeRule
	if raw := r.FormValue("rules"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rules); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("invalid rules: %w", err))
			return
		}
	}

	req := merge.CreateMergeRequest{
		PinID:     core.PinID(r.FormValue("pin_id")),
		ProjectID: core.ProjectID(r.FormValue("project_id")),
		Mode:      merge.Mode(r.FormValue("mode")),
		Policy:    merge.ConflictPolicy(r.FormValue("policy")),
		Rules:     rules,
	}

	// Uploads go through blob storage first so the merge pipeline sees
	// the same download path persisted inputs do
	for _, up := range uploads {
		path, err := s.storage.Store(r.Context(), up.reader(), up.name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		req.Files = append(req.Files, merge.FileRef{ID: up.id, Name: up.name, Path: path})
	}

	mf, err := s.service.CreateMergedFile(r.Context(), req)
	if err != nil {
		respondError(w, statusForMergeError(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, mf)
}

// handleListMergedFiles lists merged file records for a project
func (s *Server) handleListMergedFiles(w http.ResponseWriter, r *http.Request) {
	projectID := core.ProjectID(r.URL.Query().Get("project_id"))
	if projectID == "" {
		respondError(w, http.StatusBadRequest, fmt.Errorf("missing project_id"))
		return
	}
	files, err := s.repo.ListByProject(r.Context(), projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, files)
}

// handleDownloadMergedFile streams the merged CSV back to the caller
func (s *Server) handleDownloadMergedFile(w http.ResponseWriter, r *http.Request) {
	id := core.MergedFileID(chi.URLParam(r, "id"))
	mf, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, statusForMergeError(err), err)
		return
	}
	data, err := s.service.DownloadMergedFile(r.Context(), mf.FilePath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", mf.FileName))
	w.Write(data)
}

// handleDeleteMergedFile removes the record and its stored blob
func (s *Server) handleDeleteMergedFile(w http.ResponseWriter, r *http.Request) {
	id := core.MergedFileID(chi.URLParam(r, "id"))
	if err := s.service.DeleteMergedFile(r.Context(), id); err != nil {
		respondError(w, statusForMergeError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upload is one file received in a multipart request, already
// normalized to CSV bytes
type upload struct {
	id      core.FileID
	name    string
	content []byte
}

func (u upload) reader() io.Reader { return bytes.NewReader(u.content) }

// csvName maps a spreadsheet filename onto its normalized CSV name
func csvName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".xlsx" || ext == ".xls" {
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
	}
	return name
}

// readUploads collects the "files" parts of a multipart request,
// converting spreadsheet uploads to CSV
func readUploads(r *http.Request) ([]upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		return nil, fmt.Errorf("no files provided")
	}

	var uploads []upload
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
		}
		raw, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
		}

		content, err := excel.NewDataReader(header.Filename).CSVBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize %s: %w", header.Filename, err)
		}

		uploads = append(uploads, upload{
			id:      core.FileID(core.NewID()),
			name:    csvName(header.Filename),
			content: content,
		})
	}
	return uploads, nil
}

// parseUploads ingests uploads into ParsedFiles for validation
func (s *Server) parseUploads(uploads []upload) ([]*sensor.ParsedFile, error) {
	files := make([]*sensor.ParsedFile, len(uploads))
	for i, up := range uploads {
		raw := &sensor.RawFile{Name: up.name, Content: up.content, Size: int64(len(up.content))}
		parsed, err := s.analyzer.ParseFile(up.id, raw)
		if err != nil {
			return nil, err
		}
		files[i] = parsed
	}
	return files, nil
}

func statusForMergeError(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsMergeError(err):
		return http.StatusConflict
	case core.IsAnalysisError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPersistenceFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
