package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	contentapp "github.com/storefront/backend/internal/application/content"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// ContentService manages banners, collections and the about page
type ContentService interface {
	LiveBanners(ctx context.Context) ([]contentapp.BannerResponse, error)
	ListBanners(ctx context.Context) ([]contentapp.BannerResponse, error)
	CreateBanner(ctx context.Context, req contentapp.BannerRequest) (*contentapp.BannerResponse, error)
	UpdateBanner(ctx context.Context, id uuid.UUID, req contentapp.BannerRequest) (*contentapp.BannerResponse, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error

	PublishedCollections(ctx context.Context) ([]contentapp.CollectionResponse, error)
	ListCollections(ctx context.Context) ([]contentapp.CollectionResponse, error)
	GetCollection(ctx context.Context, slug, displayCurrency string) (*contentapp.CollectionView, error)
	CreateCollection(ctx context.Context, req contentapp.CollectionRequest) (*contentapp.CollectionResponse, error)
	UpdateCollection(ctx context.Context, id uuid.UUID, req contentapp.CollectionRequest) (*contentapp.CollectionResponse, error)
	DeleteCollection(ctx context.Context, id uuid.UUID) error

	GetAbout(ctx context.Context) (*contentapp.AboutPageResponse, error)
	PutAbout(ctx context.Context, req contentapp.AboutPageRequest) (*contentapp.AboutPageResponse, error)
}

// ContentHandler serves storefront content and its admin management routes
type ContentHandler struct {
	BaseHandler
	content ContentService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(content ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// LiveBanners handles GET /banners
//
// @Summary      List live banners
// @Tags         content
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /banners [get]
func (h *ContentHandler) LiveBanners(c *gin.Context) {
	banners, err := h.content.LiveBanners(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, banners)
}

// PublishedCollections handles GET /collections
//
// @Summary      List published collections
// @Tags         content
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /collections [get]
func (h *ContentHandler) PublishedCollections(c *gin.Context) {
	collections, err := h.content.PublishedCollections(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, collections)
}

// GetCollection handles GET /collections/:slug
//
// @Summary      Get a published collection
// @Tags         content
// @Produce      json
// @Param        slug path string true "Slug"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /collections/{slug} [get]
func (h *ContentHandler) GetCollection(c *gin.Context) {
	view, err := h.content.GetCollection(c.Request.Context(), c.Param("slug"), middleware.GetDisplayCurrency(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// GetAbout handles GET /about
//
// @Summary      Get the about page
// @Tags         content
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /about [get]
func (h *ContentHandler) GetAbout(c *gin.Context) {
	about, err := h.content.GetAbout(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, about)
}

// PutAbout handles PUT /admin/about
//
// @Summary      Replace the about page
// @Tags         admin-content
// @Accept       json
// @Produce      json
// @Param        request body contentapp.AboutPageRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/about [put]
func (h *ContentHandler) PutAbout(c *gin.Context) {
	var req contentapp.AboutPageRequest
	if !bindJSON(c, &req) {
		return
	}
	about, err := h.content.PutAbout(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, about)
}

// ListBanners handles GET /admin/banners
//
// @Summary      List banners
// @Tags         admin-content
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/banners [get]
func (h *ContentHandler) ListBanners(c *gin.Context) {
	banners, err := h.content.ListBanners(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, banners)
}

// CreateBanner handles POST /admin/banners
//
// @Summary      Create a banner
// @Tags         admin-content
// @Accept       json
// @Produce      json
// @Param        request body contentapp.BannerRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/banners [post]
func (h *ContentHandler) CreateBanner(c *gin.Context) {
	var req contentapp.BannerRequest
	if !bindJSON(c, &req) {
		return
	}
	banner, err := h.content.CreateBanner(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, banner)
}

// UpdateBanner handles PUT /admin/banners/:id
//
// @Summary      Update a banner
// @Tags         admin-content
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body contentapp.BannerRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/banners/{id} [put]
func (h *ContentHandler) UpdateBanner(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req contentapp.BannerRequest
	if !bindJSON(c, &req) {
		return
	}
	banner, err := h.content.UpdateBanner(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, banner)
}

// DeleteBanner handles DELETE /admin/banners/:id
//
// @Summary      Delete a banner
// @Tags         admin-content
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/banners/{id} [delete]
func (h *ContentHandler) DeleteBanner(c *gin.Context) {
	h.delete(c, h.content.DeleteBanner)
}

// ListCollections handles GET /admin/collections
//
// @Summary      List collections
// @Tags         admin-content
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/collections [get]
func (h *ContentHandler) ListCollections(c *gin.Context) {
	collections, err := h.content.ListCollections(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, collections)
}

// CreateCollection handles POST /admin/collections
//
// @Summary      Create a collection
// @Tags         admin-content
// @Accept       json
// @Produce      json
// @Param        request body contentapp.CollectionRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/collections [post]
func (h *ContentHandler) CreateCollection(c *gin.Context) {
	var req contentapp.CollectionRequest
	if !bindJSON(c, &req) {
		return
	}
	collection, err := h.content.CreateCollection(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, collection)
}

// UpdateCollection handles PUT /admin/collections/:id
//
// @Summary      Update a collection
// @Tags         admin-content
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body contentapp.CollectionRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/collections/{id} [put]
func (h *ContentHandler) UpdateCollection(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req contentapp.CollectionRequest
	if !bindJSON(c, &req) {
		return
	}
	collection, err := h.content.UpdateCollection(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, collection)
}

// DeleteCollection handles DELETE /admin/collections/:id
//
// @Summary      Delete a collection
// @Tags         admin-content
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/collections/{id} [delete]
func (h *ContentHandler) DeleteCollection(c *gin.Context) {
	h.delete(c, h.content.DeleteCollection)
}

func (h *ContentHandler) delete(c *gin.Context, fn func(context.Context, uuid.UUID) error) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
