package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
)

// Backend is an in-memory implementation of the journalgate.BlobStore
// interface, used for tests and development servers.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory storage backend
func New() journalgate.BlobStore {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

// GetUploadURL returns a synthetic URL; the memory backend has no presigning,
// so callers in tests upload directly instead.
func (b *Backend) GetUploadURL(ctx context.Context, objectKey string) (string, error) {
	return "memory://upload/" + objectKey, nil
}

// GetDownloadURL returns a synthetic URL for the stored object.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[objectKey]; !exists {
		return "", errors.New("object not found")
	}
	return "memory://download/" + objectKey, nil
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return errors.New("object not found")
	}

	delete(b.objects, objectKey)
	return nil
}
