package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/news-publishing-api/internal/storage"
)

// Backend is a filesystem implementation of storage.BlobStore
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Public URL prefix the base directory is served under
}

// New creates a new filesystem blob store
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

// BaseDir returns the directory blobs are stored in
func (b *Backend) BaseDir() string {
	return b.baseDir
}

// Store writes the upload under dir with a generated name
func (b *Backend) Store(ctx context.Context, dir string, upload *storage.Upload) (string, error) {
	if upload == nil || upload.Body == nil {
		return "", &storage.Error{Op: "store", Err: errors.New("empty upload")}
	}

	blobPath := storage.NewBlobPath(dir, upload)
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(blobPath))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", &storage.Error{Op: "store", Path: blobPath, Err: err}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", &storage.Error{Op: "store", Path: blobPath, Err: err}
	}

	if _, err := io.Copy(file, upload.Body); err != nil {
		file.Close()
		os.Remove(filePath)
		return "", &storage.Error{Op: "store", Path: blobPath, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(filePath)
		return "", &storage.Error{Op: "store", Path: blobPath, Err: err}
	}

	return blobPath, nil
}

// URL returns the public URL of a blob
func (b *Backend) URL(blobPath string) string {
	return storage.JoinURL(b.urlPrefix, blobPath)
}

// Exists reports whether a file is stored at path
func (b *Backend) Exists(ctx context.Context, blobPath string) (bool, error) {
	filePath, err := b.resolve(blobPath)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &storage.Error{Op: "stat", Path: blobPath, Err: err}
	}
	return true, nil
}

// Delete removes a file; missing files are ignored
func (b *Backend) Delete(ctx context.Context, blobPath string) error {
	filePath, err := b.resolve(blobPath)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return &storage.Error{Op: "delete", Path: blobPath, Err: err}
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

func (b *Backend) resolve(blobPath string) (string, error) {
	cleaned, err := storage.CleanPath(blobPath)
	if err != nil {
		return "", &storage.Error{Op: "resolve", Path: blobPath, Err: err}
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(cleaned)), nil
}

// cleanupEmptyDirectories removes empty directories below the top-level blob
// directories. Top-level directories such as news_content_images are kept so
// a concurrent Store never loses its parent between MkdirAll and Create.
func (b *Backend) cleanupEmptyDirectories(dir string) {
	base := filepath.Clean(b.baseDir)
	dir = filepath.Clean(dir)
	if dir == base || filepath.Dir(dir) == base {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
