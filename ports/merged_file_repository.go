// Package ports defines the interfaces between the merge engine and its
// external collaborators.
package ports

import (
	"context"

	"seamerge/domain/core"
	"seamerge/domain/sensor"
)

// MergedFileRepository persists merged file metadata
type MergedFileRepository interface {
	Create(ctx context.Context, mf *sensor.MergedFile) error
	GetByID(ctx context.Context, id core.MergedFileID) (*sensor.MergedFile, error)
	ListByProject(ctx context.Context, projectID core.ProjectID) ([]*sensor.MergedFile, error)
	Delete(ctx context.Context, id core.MergedFileID) error
}
