package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
)

var _ catalogapp.ImageStorage = (*StubObjectStorage)(nil)

// StubObjectStorage stands in for object storage when storage is disabled.
// Upload URLs point at BaseURL and every key is reported as present, so
// the upload and confirm flow works in development.
type StubObjectStorage struct {
	BaseURL string

	mu      sync.Mutex
	deleted map[string]bool
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/static"
	}
	return &StubObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		deleted: make(map[string]bool),
	}
}

func (s *StubObjectStorage) GenerateUploadURL(_ context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{}
	q.Set("content_type", contentType)
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	return s.BaseURL + "/upload/" + key + "?" + q.Encode(), expiresAt, nil
}

func (s *StubObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.deleted[key], nil
}

func (s *StubObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted[key] = true
	return nil
}

func (s *StubObjectStorage) ObjectURL(key string) string {
	if key == "" {
		return ""
	}
	return s.BaseURL + "/" + key
}
