package content_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appcontent "github.com/storefront/backend/internal/application/content"
	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newContentService(t *testing.T) (*appcontent.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return appcontent.NewService(appcontent.ServiceConfig{
		Banners:     persistence.NewGormBannerRepository(db),
		Collections: persistence.NewGormCollectionRepository(db),
		About:       persistence.NewGormAboutPageRepository(db),
		Products:    persistence.NewGormProductRepository(db),
		Currency: appcurrency.NewService(appcurrency.ServiceConfig{
			Rates: persistence.NewGormRateRepository(db),
			Base:  valueobject.USD,
		}),
		ImageURL: func(key string) string { return "https://cdn.test/" + key },
	}), db
}

func TestContentService_LiveBanners(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()
	past := time.Now().Add(-48 * time.Hour)
	yesterday := time.Now().Add(-24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)

	for _, req := range []appcontent.BannerRequest{
		{Title: "Second", ImageKey: "banners/b.jpg", Position: 2, Active: true},
		{Title: "First", ImageKey: "banners/a.jpg", Position: 1, Active: true, StartsAt: &yesterday, EndsAt: &tomorrow},
		{Title: "Upcoming", ImageKey: "banners/c.jpg", Position: 0, Active: true, StartsAt: &tomorrow},
		{Title: "Ended", ImageKey: "banners/d.jpg", Position: 0, Active: true, StartsAt: &past, EndsAt: &yesterday},
		{Title: "Hidden", ImageKey: "banners/e.jpg", Position: 0, Active: false},
	} {
		_, err := svc.CreateBanner(ctx, req)
		require.NoError(t, err)
	}

	live, err := svc.LiveBanners(ctx)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "First", live[0].Title)
	assert.Equal(t, "Second", live[1].Title)
	assert.Equal(t, "https://cdn.test/banners/a.jpg", live[0].ImageURL)

	all, err := svc.ListBanners(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestContentService_BannerValidation(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()
	now := time.Now()
	earlier := now.Add(-time.Hour)

	_, err := svc.CreateBanner(ctx, appcontent.BannerRequest{Title: "Bad", ImageKey: "k", StartsAt: &now, EndsAt: &earlier})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_SCHEDULE", de.Code)

	b, err := svc.CreateBanner(ctx, appcontent.BannerRequest{Title: "Sale", ImageKey: "k"})
	require.NoError(t, err)
	updated, err := svc.UpdateBanner(ctx, b.ID, appcontent.BannerRequest{Title: "Big sale", ImageKey: "k", CTALabel: "Shop", CTALink: "/sale", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Big sale", updated.Title)
	assert.Equal(t, "/sale", updated.CTALink)

	require.NoError(t, svc.DeleteBanner(ctx, b.ID))
	assert.ErrorIs(t, svc.DeleteBanner(ctx, b.ID), shared.ErrNotFound)
}

func TestContentService_CollectionResolvesProductsInOrder(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()
	shirt := testutil.SeedProduct(t, db, "Linen Shirt", "40.00", 10)
	tote := testutil.SeedProduct(t, db, "Canvas Tote", "15.00", 0)
	tie := testutil.SeedProduct(t, db, "Silk Tie", "60.00", 3)
	require.NoError(t, tie.Archive())
	require.NoError(t, persistence.NewGormProductRepository(db).Save(ctx, tie))

	c, err := svc.CreateCollection(ctx, appcontent.CollectionRequest{
		Title:      "Summer Edit",
		ProductIDs: []uuid.UUID{tote.ID, tie.ID, shirt.ID, tote.ID, uuid.New()},
		Published:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "summer-edit", c.Slug)
	assert.Len(t, c.ProductIDs, 4, "duplicates are dropped")

	view, err := svc.GetCollection(ctx, "summer-edit", "")
	require.NoError(t, err)
	require.Len(t, view.Products, 2, "archived and unknown products are skipped")
	assert.Equal(t, "Canvas Tote", view.Products[0].Name)
	assert.False(t, view.Products[0].InStock)
	assert.Equal(t, "Linen Shirt", view.Products[1].Name)

	_, err = svc.CreateCollection(ctx, appcontent.CollectionRequest{Title: "Summer Edit"})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "ALREADY_EXISTS", de.Code)

	_, err = svc.UpdateCollection(ctx, c.ID, appcontent.CollectionRequest{Title: "Summer Edit", Published: false})
	require.NoError(t, err)
	_, err = svc.GetCollection(ctx, "summer-edit", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	published, err := svc.PublishedCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, published)
}

func TestContentService_AboutPage(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	_, err := svc.GetAbout(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.PutAbout(ctx, appcontent.AboutPageRequest{Title: "About", Body: "First"})
	require.NoError(t, err)
	_, err = svc.PutAbout(ctx, appcontent.AboutPageRequest{Title: "Our story", Body: "Second", ImageKey: "about/team.jpg"})
	require.NoError(t, err)

	page, err := svc.GetAbout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Our story", page.Title)
	assert.Equal(t, "Second", page.Body)
	assert.Equal(t, "https://cdn.test/about/team.jpg", page.ImageURL)
}
