package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	attachmentapp "github.com/fieldbook/backend/internal/application/attachment"
)

// MemoryObjectStorage keeps objects in process memory. It backs attachments
// in development when no bucket is configured, and in handler tests.
type MemoryObjectStorage struct {
	// BaseURL prefixes generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "http://localhost:8080/_storage",
		objects: make(map[string]memoryObject),
	}
}

var _ attachmentapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// Upload reads the whole body into memory
func (m *MemoryObjectStorage) Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error {
	if storageKey == "" {
		return errEmptyKey
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}
	if n != size {
		return fmt.Errorf("upload size mismatch: declared %d, read %d", size, n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

// GenerateDownloadURL returns a fake URL carrying the expiry
func (m *MemoryObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignTTL
	}

	expiresAt := time.Now().Add(expiresIn)
	u := m.BaseURL + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return u, expiresAt, nil
}

// DeleteObject removes the object if present
func (m *MemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	return nil
}

// Get returns a stored object's bytes
func (m *MemoryObjectStorage) Get(storageKey string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj.data, ok
}

// Len returns the number of stored objects
func (m *MemoryObjectStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
