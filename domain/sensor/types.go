package sensor

import (
	"time"

	"seamerge/domain/core"
)

// Row maps header names to cell values. Values are strings as read from
// the file, or nil where the cell is empty or absent.
type Row map[string]interface{}

// RawFile is an unparsed file as selected or downloaded by a caller.
// It is discarded once parsed.
type RawFile struct {
	Name    string
	Content []byte
	Size    int64
}

// ParsedFile is a fully ingested sensor data file ready for merging.
// Invariant: every Row has exactly the header set in Headers, and
// TimeColumn is a member of Headers.
type ParsedFile struct {
	FileName    string
	FileID      core.FileID
	Headers     []string
	Rows        []Row
	TimeColumn  string
	IsDiscrete  bool
	StartDate   core.CoverageDate
	EndDate     core.CoverageDate
	UniqueDates []string // sorted YYYY-MM-DD day keys, discrete files only
}

// MergeRule marks a filename-derived suffix as a distinguishing data
// series during stack-parameters merges. Toggled explicitly by the
// caller; not persisted beyond the merge session.
type MergeRule struct {
	Suffix  string `json:"suffix"`
	Enabled bool   `json:"enabled"`
}

// SourceFileMetadata records provenance for one input of a merge
type SourceFileMetadata struct {
	FileID   core.FileID    `json:"file_id"`
	FileName string         `json:"file_name"`
	RowCount int            `json:"row_count"`
	Type     InstrumentType `json:"type"`
}

// MergedFile is the persisted record of one successful merge. It is
// never mutated in place; adding more sources means a new MergedFile.
type MergedFile struct {
	ID                  core.MergedFileID    `json:"id"`
	FileName            string               `json:"file_name"`
	FilePath            string               `json:"file_path"`
	SourceFileIDs       []core.FileID        `json:"source_file_ids"`
	SourceFilesMetadata []SourceFileMetadata `json:"source_files_metadata"`
	MergeMode           string               `json:"merge_mode"`
	StartDate           core.CoverageDate    `json:"start_date"`
	EndDate             core.CoverageDate    `json:"end_date"`
	ProjectID           core.ProjectID       `json:"project_id"`
	PinID               core.PinID           `json:"pin_id"`
	CreatedAt           time.Time            `json:"created_at"`
}

// NewMergedFile constructs a MergedFile with a fresh ID and timestamp
func NewMergedFile(fileName, filePath string, projectID core.ProjectID) *MergedFile {
	return &MergedFile{
		ID:        core.MergedFileID(core.NewID()),
		FileName:  fileName,
		FilePath:  filePath,
		ProjectID: projectID,
		CreatedAt: time.Now().UTC(),
	}
}
