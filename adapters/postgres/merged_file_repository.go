// Package postgres implements repository ports over PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"seamerge/domain/core"
	"seamerge/domain/sensor"
	"seamerge/ports"
)

// mergedFileRepository implements the MergedFileRepository interface
type mergedFileRepository struct {
	db *sqlx.DB
}

// NewMergedFileRepository creates a new merged file repository
func NewMergedFileRepository(db *sqlx.DB) ports.MergedFileRepository {
	return &mergedFileRepository{db: db}
}

// Create inserts a new merged file record
func (r *mergedFileRepository) Create(ctx context.Context, mf *sensor.MergedFile) error {
	sourceIDs, err := json.Marshal(mf.SourceFileIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal source file ids: %w", err)
	}
	sourceMeta, err := json.Marshal(mf.SourceFilesMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal source metadata: %w", err)
	}

	query := `INSERT INTO merged_files (
		id, file_name, file_path, source_file_ids, source_files_metadata,
		merge_mode, start_date, end_date, project_id, pin_id, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)`

	_, err = r.db.ExecContext(ctx, query,
		mf.ID, mf.FileName, mf.FilePath, sourceIDs, sourceMeta,
		mf.MergeMode, mf.StartDate, mf.EndDate, mf.ProjectID, mf.PinID, mf.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create merged file: %w", err)
	}

	return nil
}

// GetByID retrieves a merged file record by its ID
func (r *mergedFileRepository) GetByID(ctx context.Context, id core.MergedFileID) (*sensor.MergedFile, error) {
	query := `SELECT
		id, file_name, COALESCE(file_path, '') as file_path, source_file_ids,
		source_files_metadata, merge_mode, COALESCE(start_date, '') as start_date,
		COALESCE(end_date, '') as end_date, project_id, COALESCE(pin_id, '') as pin_id, created_at
	FROM merged_files WHERE id = $1`

	mf, err := scanMergedFile(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("merged file", id.String())
		}
		return nil, fmt.Errorf("failed to get merged file: %w", err)
	}
	return mf, nil
}

// ListByProject retrieves all merged files for a project, newest first
func (r *mergedFileRepository) ListByProject(ctx context.Context, projectID core.ProjectID) ([]*sensor.MergedFile, error) {
	query := `SELECT
		id, file_name, COALESCE(file_path, '') as file_path, source_file_ids,
		source_files_metadata, merge_mode, COALESCE(start_date, '') as start_date,
		COALESCE(end_date, '') as end_date, project_id, COALESCE(pin_id, '') as pin_id, created_at
	FROM merged_files
	WHERE project_id = $1
	ORDER BY created_at DESC`

	rows, err := r.db.QueryxContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query merged files: %w", err)
	}
	defer rows.Close()

	var files []*sensor.MergedFile
	for rows.Next() {
		mf, err := scanMergedFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merged file: %w", err)
		}
		files = append(files, mf)
	}
	return files, rows.Err()
}

// Delete removes a merged file record
func (r *mergedFileRepository) Delete(ctx context.Context, id core.MergedFileID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM merged_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete merged file: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return core.NewNotFoundError("merged file", id.String())
	}
	return nil
}

// rowScanner covers both sqlx.Row and sqlx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMergedFile(row rowScanner) (*sensor.MergedFile, error) {
	var mf sensor.MergedFile
	var sourceIDs, sourceMeta []byte

	err := row.Scan(
		&mf.ID, &mf.FileName, &mf.FilePath, &sourceIDs, &sourceMeta,
		&mf.MergeMode, &mf.StartDate, &mf.EndDate, &mf.ProjectID, &mf.PinID, &mf.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(sourceIDs) > 0 {
		if err := json.Unmarshal(sourceIDs, &mf.SourceFileIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source file ids: %w", err)
		}
	}
	if len(sourceMeta) > 0 {
		if err := json.Unmarshal(sourceMeta, &mf.SourceFilesMetadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source metadata: %w", err)
		}
	}

	return &mf, nil
}
