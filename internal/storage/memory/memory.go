package memory

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/news-publishing-api/internal/storage"
)

// Backend is an in-memory implementation of storage.BlobStore
type Backend struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	urlPrefix string

	// FailStore, when set, is returned by Store instead of writing
	FailStore error
	// FailDelete, when set, is returned by Delete instead of removing
	FailDelete error
}

// New creates a new in-memory blob store
func New(urlPrefix string) *Backend {
	return &Backend{
		objects:   make(map[string][]byte),
		urlPrefix: urlPrefix,
	}
}

// Store reads the upload fully and keeps it under a fresh path in dir
func (b *Backend) Store(ctx context.Context, dir string, upload *storage.Upload) (string, error) {
	if upload == nil || upload.Body == nil {
		return "", &storage.Error{Op: "store", Err: errors.New("empty upload")}
	}
	if b.FailStore != nil {
		return "", &storage.Error{Op: "store", Err: b.FailStore}
	}

	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return "", &storage.Error{Op: "store", Err: err}
	}

	blobPath := storage.NewBlobPath(dir, upload)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[blobPath] = data
	return blobPath, nil
}

// Put writes raw bytes at a fixed path
func (b *Backend) Put(blobPath string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[blobPath] = data
}

// URL returns the public URL of a blob
func (b *Backend) URL(blobPath string) string {
	return storage.JoinURL(b.urlPrefix, blobPath)
}

// Exists reports whether a blob is stored at path
func (b *Backend) Exists(ctx context.Context, blobPath string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[blobPath]
	return ok, nil
}

// Delete removes a blob; missing blobs are ignored
func (b *Backend) Delete(ctx context.Context, blobPath string) error {
	if b.FailDelete != nil {
		return &storage.Error{Op: "delete", Path: blobPath, Err: b.FailDelete}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, blobPath)
	return nil
}

// Paths returns every stored path
func (b *Backend) Paths() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	paths := make([]string, 0, len(b.objects))
	for p := range b.objects {
		paths = append(paths, p)
	}
	return paths
}

// Len returns the number of stored blobs
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
