package content

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/content"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service manages storefront content: hero banners, collections and the about page
type Service struct {
	banners     content.BannerRepository
	collections content.CollectionRepository
	about       content.AboutPageRepository
	products    catalog.ProductRepository
	currency    *appcurrency.Service
	imageURL    appcatalog.ImageURLFunc
	logger      *zap.Logger
	now         func() time.Time
}

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Banners     content.BannerRepository
	Collections content.CollectionRepository
	About       content.AboutPageRepository
	Products    catalog.ProductRepository
	Currency    *appcurrency.Service
	ImageURL    appcatalog.ImageURLFunc
	Logger      *zap.Logger
}

// NewService creates a new content Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		banners:     cfg.Banners,
		collections: cfg.Collections,
		about:       cfg.About,
		products:    cfg.Products,
		currency:    cfg.Currency,
		imageURL:    cfg.ImageURL,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// LiveBanners returns active banners whose schedule contains now, by position
func (s *Service) LiveBanners(ctx context.Context) ([]BannerResponse, error) {
	banners, err := s.banners.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]BannerResponse, 0, len(banners))
	for i := range banners {
		if banners[i].IsLive(now) {
			out = append(out, ToBannerResponse(&banners[i], s.imageURL))
		}
	}
	return out, nil
}

// ListBanners returns every banner for the admin
func (s *Service) ListBanners(ctx context.Context) ([]BannerResponse, error) {
	banners, err := s.banners.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]BannerResponse, 0, len(banners))
	for i := range banners {
		out = append(out, ToBannerResponse(&banners[i], s.imageURL))
	}
	return out, nil
}

// CreateBanner creates a hero banner
func (s *Service) CreateBanner(ctx context.Context, req BannerRequest) (*BannerResponse, error) {
	b, err := content.NewHeroBanner(req.input())
	if err != nil {
		return nil, err
	}
	if err := s.banners.Save(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("Banner created", zap.String("banner_id", b.ID.String()))
	resp := ToBannerResponse(b, s.imageURL)
	return &resp, nil
}

// UpdateBanner replaces a hero banner
func (s *Service) UpdateBanner(ctx context.Context, id uuid.UUID, req BannerRequest) (*BannerResponse, error) {
	b, err := s.banners.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Update(req.input()); err != nil {
		return nil, err
	}
	if err := s.banners.Save(ctx, b); err != nil {
		return nil, err
	}
	resp := ToBannerResponse(b, s.imageURL)
	return &resp, nil
}

// DeleteBanner removes a hero banner
func (s *Service) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return s.banners.Delete(ctx, id)
}

// PublishedCollections lists published collections without their products
func (s *Service) PublishedCollections(ctx context.Context) ([]CollectionResponse, error) {
	return s.listCollections(ctx, true)
}

// ListCollections lists every collection for the admin
func (s *Service) ListCollections(ctx context.Context) ([]CollectionResponse, error) {
	return s.listCollections(ctx, false)
}

// GetCollection returns a published collection with its ACTIVE products in curated order
func (s *Service) GetCollection(ctx context.Context, slug, displayCurrency string) (*CollectionView, error) {
	c, err := s.collections.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	if !c.Published {
		return nil, shared.ErrNotFound
	}

	products, err := s.products.FindByIDs(ctx, c.ProductIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	display, err := s.currency.Display(ctx, displayCurrency)
	if err != nil {
		return nil, err
	}

	view := &CollectionView{
		CollectionResponse: ToCollectionResponse(c, s.imageURL),
		Products:           make([]appcatalog.StorefrontProduct, 0, len(c.ProductIDs)),
	}
	for _, id := range c.ProductIDs {
		p, ok := byID[id]
		if !ok || p.Status != catalog.ProductStatusActive {
			continue
		}
		sp, err := appcatalog.ToStorefrontProduct(p, display, s.imageURL)
		if err != nil {
			return nil, err
		}
		view.Products = append(view.Products, sp)
	}
	return view, nil
}

// CreateCollection creates a collection
func (s *Service) CreateCollection(ctx context.Context, req CollectionRequest) (*CollectionResponse, error) {
	c, err := content.NewCollection(req.input())
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, c.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.collections.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Collection created", zap.String("collection_id", c.ID.String()), zap.String("slug", c.Slug))
	resp := ToCollectionResponse(c, s.imageURL)
	return &resp, nil
}

// UpdateCollection replaces a collection
func (s *Service) UpdateCollection(ctx context.Context, id uuid.UUID, req CollectionRequest) (*CollectionResponse, error) {
	c, err := s.collections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.input()); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, c.Slug, c.ID); err != nil {
		return nil, err
	}
	if err := s.collections.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCollectionResponse(c, s.imageURL)
	return &resp, nil
}

// DeleteCollection removes a collection
func (s *Service) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	return s.collections.Delete(ctx, id)
}

// GetAbout returns the about page
func (s *Service) GetAbout(ctx context.Context) (*AboutPageResponse, error) {
	page, err := s.about.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.aboutResponse(page), nil
}

// PutAbout creates or replaces the about page
func (s *Service) PutAbout(ctx context.Context, req AboutPageRequest) (*AboutPageResponse, error) {
	page, err := content.NewAboutPage(req.Title, req.Body, req.ImageKey)
	if err != nil {
		return nil, err
	}
	if err := s.about.Upsert(ctx, page); err != nil {
		return nil, err
	}
	return s.aboutResponse(page), nil
}

func (s *Service) aboutResponse(page *content.AboutPage) *AboutPageResponse {
	return &AboutPageResponse{
		Title:     page.Title,
		Body:      page.Body,
		ImageKey:  page.ImageKey,
		ImageURL:  resolve(s.imageURL, page.ImageKey),
		UpdatedAt: page.UpdatedAt,
	}
}

func (s *Service) listCollections(ctx context.Context, publishedOnly bool) ([]CollectionResponse, error) {
	collections, err := s.collections.FindAll(ctx, publishedOnly)
	if err != nil {
		return nil, err
	}
	out := make([]CollectionResponse, 0, len(collections))
	for i := range collections {
		out = append(out, ToCollectionResponse(&collections[i], s.imageURL))
	}
	return out, nil
}

func (s *Service) ensureSlugFree(ctx context.Context, slug string, excludeID uuid.UUID) error {
	exists, err := s.collections.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Collection with this slug already exists")
	}
	return nil
}
