// Package media issues presigned upload URLs for storefront images and
// resolves stored keys to their CDN URLs.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Image kinds accepted for upload
const (
	KindProduct    = "product"
	KindBanner     = "banner"
	KindCollection = "collection"
	KindAbout      = "about"
)

const defaultUploadExpiry = 15 * time.Minute

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectStorage presigns direct uploads to the bucket
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
}

// CreateUploadURLRequest asks for a presigned image upload
type CreateUploadURLRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=product banner collection about"`
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// UploadURLResponse tells the client where to PUT the file and where it will be served
type UploadURLResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service issues upload URLs and resolves public image URLs
type Service struct {
	storage       ObjectStorage
	publicBaseURL string
	expiry        time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Storage       ObjectStorage
	PublicBaseURL string
	UploadExpiry  time.Duration
	Logger        *zap.Logger
}

// NewService creates a new media Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.UploadExpiry <= 0 {
		cfg.UploadExpiry = defaultUploadExpiry
	}
	return &Service{
		storage:       cfg.Storage,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		expiry:        cfg.UploadExpiry,
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// CreateUploadURL allocates a storage key for an image and presigns its upload
func (s *Service) CreateUploadURL(ctx context.Context, req CreateUploadURLRequest) (*UploadURLResponse, error) {
	if !validKind(req.Kind) {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown image kind %q", req.Kind))
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, shared.NewDomainError("UNSUPPORTED_MEDIA_TYPE", "Only JPEG, PNG, WebP and GIF images can be uploaded")
	}

	key := s.newKey(req.Kind, ext)
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	s.logger.Debug("Upload URL issued",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.String("filename", path.Base(req.Filename)))

	return &UploadURLResponse{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: s.PublicURL(key),
		ExpiresAt: expiresAt,
	}, nil
}

// PublicURL resolves a storage key to the URL it is served from
func (s *Service) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// newKey builds <kind>s/<yyyy>/<mm>/<uuid><ext>
func (s *Service) newKey(kind, ext string) string {
	now := s.now().UTC()
	return fmt.Sprintf("%ss/%04d/%02d/%s%s", kind, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

func validKind(kind string) bool {
	switch kind {
	case KindProduct, KindBanner, KindCollection, KindAbout:
		return true
	}
	return false
}
