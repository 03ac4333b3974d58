// Package storage provides file blob storage for sensor exports and
// merged outputs.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"seamerge/domain/core"
)

// DownloadTimeout bounds every single-file download. A timeout yields a
// per-file error rather than aborting the whole batch.
const DownloadTimeout = 30 * time.Second

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	Store(ctx context.Context, r io.Reader, filename string) (string, error)
	GetReader(ctx context.Context, filePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, filePath string) error
	Exists(ctx context.Context, filePath string) (bool, error)
	GetFileSize(filePath string) (int64, error)
}

// Download reads a whole stored file, bounded by DownloadTimeout.
// Failures wrap core.ErrDownloadFailed so callers can fold them into
// per-file analysis errors.
func Download(ctx context.Context, fs FileStorage, filePath string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, DownloadTimeout)
	defer cancel()

	type outcome struct {
		data []byte
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		reader, err := fs.GetReader(ctx, filePath)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		defer reader.Close()
		data, err := io.ReadAll(reader)
		done <- outcome{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, core.NewDownloadError(filePath, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, core.NewDownloadError(filePath, out.err)
		}
		return out.data, nil
	}
}

// StorageConfig holds configuration for local file storage
type StorageConfig struct {
	BasePath  string
	ChunkSize int
}

// DefaultStorageConfig returns sensible defaults
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		BasePath:  "uploads/merged",
		ChunkSize: 1024 * 1024,
	}
}

// LocalFileStorage implements FileStorage on the local filesystem
type LocalFileStorage struct {
	config *StorageConfig
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(config *StorageConfig) *LocalFileStorage {
	if config == nil {
		config = DefaultStorageConfig()
	}
	return &LocalFileStorage{config: config}
}

// NewLocalFileStorageWithPath creates local storage rooted at basePath
func NewLocalFileStorageWithPath(basePath string) *LocalFileStorage {
	config := DefaultStorageConfig()
	config.BasePath = basePath
	return NewLocalFileStorage(config)
}

// Store saves a file with a unique name and returns its path
func (s *LocalFileStorage) Store(ctx context.Context, r io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.config.BasePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	ext := filepath.Ext(filename)
	baseName := filename[:len(filename)-len(ext)]
	timestamp := time.Now().Format("20060102_150405")
	uniqueName := fmt.Sprintf("%s_%s_%s%s", baseName, timestamp, uuid.New().String()[:8], ext)

	filePath := filepath.Join(s.config.BasePath, uniqueName)

	destFile, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	buf := make([]byte, s.config.ChunkSize)
	if _, err := io.CopyBuffer(destFile, r, buf); err != nil {
		os.Remove(filePath) // Clean up on failure
		return "", fmt.Errorf("failed to copy file contents: %w", err)
	}

	return filePath, nil
}

// GetReader returns a reader for the stored file
func (s *LocalFileStorage) GetReader(ctx context.Context, filePath string) (io.ReadCloser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a file from storage
func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if a file exists in storage
func (s *LocalFileStorage) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// GetFileSize returns the size of a stored file
func (s *LocalFileStorage) GetFileSize(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to get file info: %w", err)
	}
	return info.Size(), nil
}
