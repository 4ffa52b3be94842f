package content

import (
	"context"

	"github.com/google/uuid"
)

// BannerRepository defines the interface for hero banner persistence
type BannerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*HeroBanner, error)
	// FindAll returns banners ordered by position
	FindAll(ctx context.Context, activeOnly bool) ([]HeroBanner, error)
	Save(ctx context.Context, banner *HeroBanner) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CollectionRepository defines the interface for collection persistence
type CollectionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Collection, error)
	FindBySlug(ctx context.Context, slug string) (*Collection, error)
	FindAll(ctx context.Context, publishedOnly bool) ([]Collection, error)
	Save(ctx context.Context, collection *Collection) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

// AboutPageRepository stores the about page singleton
type AboutPageRepository interface {
	// Get returns shared.ErrNotFound until the page is first saved
	Get(ctx context.Context) (*AboutPage, error)
	Upsert(ctx context.Context, page *AboutPage) error
}
