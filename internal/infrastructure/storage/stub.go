package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	appbilling "github.com/bookshop/backend/internal/application/billing"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// InMemoryObjectStorage keeps documents in process memory. It serves local
// runs with storage disabled and tests.
type InMemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	// BaseURL prefixes generated download links
	BaseURL string
}

// NewInMemoryObjectStorage creates an empty store
func NewInMemoryObjectStorage() *InMemoryObjectStorage {
	return &InMemoryObjectStorage{
		objects: make(map[string]memoryObject),
		BaseURL: "http://localhost/documents",
	}
}

// Upload stores a copy of data under key
func (s *InMemoryObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Download returns a copy of the object under key
func (s *InMemoryObjectStorage) Download(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// ContentType returns the content type recorded for key
func (s *InMemoryObjectStorage) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].contentType
}

// ObjectExists reports whether key is stored
func (s *InMemoryObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// DeleteObject removes key. Missing keys are not an error.
func (s *InMemoryObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// GenerateDownloadURL builds a fake link carrying the expiry
func (s *InMemoryObjectStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}

// Ensure InMemoryObjectStorage implements DocumentStore
var _ appbilling.DocumentStore = (*InMemoryObjectStorage)(nil)
