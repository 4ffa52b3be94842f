package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/storefront/backend/internal/application/media"
)

var _ media.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage hands out fake upload URLs for local development.
// Nothing is stored.
type StubObjectStorage struct {
	BaseURL string
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:9000/dev-bucket"
	}
	return &StubObjectStorage{BaseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateUploadURL returns a URL that looks presigned
func (s *StubObjectStorage) GenerateUploadURL(_ context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{}
	q.Set("content-type", contentType)
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	return s.BaseURL + "/" + storageKey + "?" + q.Encode(), expiresAt, nil
}
