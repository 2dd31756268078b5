// Package storage defines the blob store used for uploaded images and its
// backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Directories blobs are written under
const (
	DirContentImages  = "news_content_images"
	DirFeaturedImages = "news_featured_images"
)

// ErrNotFound is returned by backends when a blob does not exist
var ErrNotFound = errors.New("blob not found")

// BlobStore is path-addressable file storage. Delete is idempotent: deleting
// a path that does not exist is not an error.
type BlobStore interface {
	Store(ctx context.Context, dir string, upload *Upload) (string, error)
	URL(blobPath string) string
	Exists(ctx context.Context, blobPath string) (bool, error)
	Delete(ctx context.Context, blobPath string) error
}

// Upload is a file submitted by a client that has not been stored yet
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Error reports a failed blob store operation
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewBlobPath returns a fresh, collision-free path for an upload under dir
func NewBlobPath(dir string, upload *Upload) string {
	return path.Join(dir, uuid.New().String()+Extension(upload))
}

// Extension returns the file extension for an upload's sniffed content type.
// The client's filename is never consulted.
func Extension(upload *Upload) string {
	if upload == nil || upload.ContentType == "" {
		return ""
	}
	contentType := strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0])
	if mt := mimetype.Lookup(contentType); mt != nil {
		return mt.Extension()
	}
	return ""
}

// CleanPath rejects paths that escape the store root
func CleanPath(blobPath string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(blobPath))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid blob path %q", blobPath)
	}
	return cleaned, nil
}

// JoinURL appends a blob path to a URL prefix
func JoinURL(prefix, blobPath string) string {
	if prefix == "" {
		return "/" + strings.TrimPrefix(blobPath, "/")
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(blobPath, "/")
}
