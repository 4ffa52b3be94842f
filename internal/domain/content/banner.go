package content

import (
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// HeroBanner is a promotional slide on the storefront home page
type HeroBanner struct {
	shared.BaseAggregateRoot
	Title    string
	Subtitle string
	ImageKey string
	CTALabel string
	CTALink  string
	Position int
	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time
}

// BannerInput carries the editable fields of a banner
type BannerInput struct {
	Title    string
	Subtitle string
	ImageKey string
	CTALabel string
	CTALink  string
	Position int
	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time
}

// NewHeroBanner creates a banner
func NewHeroBanner(in BannerInput) (*HeroBanner, error) {
	b := &HeroBanner{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := b.apply(in); err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces the editable fields
func (b *HeroBanner) Update(in BannerInput) error {
	if err := b.apply(in); err != nil {
		return err
	}
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// IsLive returns true if the banner should be shown at the given time
func (b *HeroBanner) IsLive(now time.Time) bool {
	if !b.Active {
		return false
	}
	if b.StartsAt != nil && now.Before(*b.StartsAt) {
		return false
	}
	if b.EndsAt != nil && !now.Before(*b.EndsAt) {
		return false
	}
	return true
}

func (b *HeroBanner) apply(in BannerInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Banner title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Banner title cannot exceed 200 characters")
	}
	if strings.TrimSpace(in.ImageKey) == "" {
		return shared.NewDomainError("IMAGE_REQUIRED", "Banner image is required")
	}
	if (in.CTALabel == "") != (in.CTALink == "") {
		return shared.NewDomainError("INVALID_CTA", "Call to action needs both a label and a link")
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Banner end must be after its start")
	}
	if in.Position < 0 {
		return shared.NewDomainError("INVALID_POSITION", "Position cannot be negative")
	}

	b.Title = title
	b.Subtitle = strings.TrimSpace(in.Subtitle)
	b.ImageKey = strings.TrimSpace(in.ImageKey)
	b.CTALabel = in.CTALabel
	b.CTALink = in.CTALink
	b.Position = in.Position
	b.Active = in.Active
	b.StartsAt = in.StartsAt
	b.EndsAt = in.EndsAt
	return nil
}
