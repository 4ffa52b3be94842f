package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxCollectionProducts caps how many products a collection may curate
const MaxCollectionProducts = 200

// Collection is a curated, ordered list of products
type Collection struct {
	shared.BaseAggregateRoot
	Title       string
	Slug        string
	Description string
	ImageKey    string
	ProductIDs  []uuid.UUID
	Featured    bool
	Published   bool
}

// CollectionInput carries the editable fields of a collection
type CollectionInput struct {
	Title       string
	Slug        string
	Description string
	ImageKey    string
	ProductIDs  []uuid.UUID
	Featured    bool
	Published   bool
}

// NewCollection creates a collection; an empty slug is derived from the title
func NewCollection(in CollectionInput) (*Collection, error) {
	c := &Collection{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := c.apply(in); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the editable fields
func (c *Collection) Update(in CollectionInput) error {
	if err := c.apply(in); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

func (c *Collection) apply(in CollectionInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Collection title cannot be empty")
	}
	slug := in.Slug
	if slug == "" {
		slug = catalog.Slugify(title)
	}
	if err := catalog.ValidateSlug(slug); err != nil {
		return err
	}
	if len(in.ProductIDs) > MaxCollectionProducts {
		return shared.NewDomainError("TOO_MANY_PRODUCTS", "A collection cannot hold more than 200 products")
	}

	c.Title = title
	c.Slug = slug
	c.Description = in.Description
	c.ImageKey = strings.TrimSpace(in.ImageKey)
	c.ProductIDs = dedupe(in.ProductIDs)
	c.Featured = in.Featured
	c.Published = in.Published
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
