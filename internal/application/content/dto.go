package content

import (
	"time"

	"github.com/google/uuid"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/content"
)

// BannerRequest creates or replaces a hero banner
type BannerRequest struct {
	Title    string     `json:"title" binding:"required,max=200"`
	Subtitle string     `json:"subtitle" binding:"max=500"`
	ImageKey string     `json:"image_key" binding:"required,max=500"`
	CTALabel string     `json:"cta_label" binding:"max=50"`
	CTALink  string     `json:"cta_link" binding:"max=500"`
	Position int        `json:"position" binding:"min=0"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

// CollectionRequest creates or replaces a collection
type CollectionRequest struct {
	Title       string      `json:"title" binding:"required,max=200"`
	Slug        string      `json:"slug" binding:"omitempty,slug"`
	Description string      `json:"description" binding:"max=5000"`
	ImageKey    string      `json:"image_key" binding:"max=500"`
	ProductIDs  []uuid.UUID `json:"product_ids" binding:"max=200"`
	Featured    bool        `json:"featured"`
	Published   bool        `json:"published"`
}

// AboutPageRequest replaces the about page
type AboutPageRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Body     string `json:"body" binding:"required,max=50000"`
	ImageKey string `json:"image_key" binding:"max=500"`
}

// BannerResponse represents a hero banner
type BannerResponse struct {
	ID       uuid.UUID  `json:"id"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"`
	ImageKey string     `json:"image_key"`
	ImageURL string     `json:"image_url"`
	CTALabel string     `json:"cta_label,omitempty"`
	CTALink  string     `json:"cta_link,omitempty"`
	Position int        `json:"position"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// CollectionResponse represents a collection in admin responses
type CollectionResponse struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description,omitempty"`
	ImageKey    string      `json:"image_key,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
	Featured    bool        `json:"featured"`
	Published   bool        `json:"published"`
}

// CollectionView is a published collection with its visible products
type CollectionView struct {
	CollectionResponse
	Products []appcatalog.StorefrontProduct `json:"products"`
}

// AboutPageResponse represents the about page
type AboutPageResponse struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ImageKey  string    `json:"image_key,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r BannerRequest) input() content.BannerInput {
	return content.BannerInput{
		Title:    r.Title,
		Subtitle: r.Subtitle,
		ImageKey: r.ImageKey,
		CTALabel: r.CTALabel,
		CTALink:  r.CTALink,
		Position: r.Position,
		Active:   r.Active,
		StartsAt: r.StartsAt,
		EndsAt:   r.EndsAt,
	}
}

func (r CollectionRequest) input() content.CollectionInput {
	return content.CollectionInput{
		Title:       r.Title,
		Slug:        r.Slug,
		Description: r.Description,
		ImageKey:    r.ImageKey,
		ProductIDs:  r.ProductIDs,
		Featured:    r.Featured,
		Published:   r.Published,
	}
}

// ToBannerResponse converts a banner to its response
func ToBannerResponse(b *content.HeroBanner, imageURL appcatalog.ImageURLFunc) BannerResponse {
	return BannerResponse{
		ID:       b.ID,
		Title:    b.Title,
		Subtitle: b.Subtitle,
		ImageKey: b.ImageKey,
		ImageURL: resolve(imageURL, b.ImageKey),
		CTALabel: b.CTALabel,
		CTALink:  b.CTALink,
		Position: b.Position,
		Active:   b.Active,
		StartsAt: b.StartsAt,
		EndsAt:   b.EndsAt,
	}
}

// ToCollectionResponse converts a collection to its response
func ToCollectionResponse(c *content.Collection, imageURL appcatalog.ImageURLFunc) CollectionResponse {
	return CollectionResponse{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		ImageKey:    c.ImageKey,
		ImageURL:    resolve(imageURL, c.ImageKey),
		ProductIDs:  c.ProductIDs,
		Featured:    c.Featured,
		Published:   c.Published,
	}
}

func resolve(imageURL appcatalog.ImageURLFunc, key string) string {
	if key == "" || imageURL == nil {
		return key
	}
	return imageURL(key)
}
