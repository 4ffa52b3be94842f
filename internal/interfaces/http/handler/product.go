package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// ProductService is the catalog use case set behind the product routes
type ProductService interface {
	ListStorefront(ctx context.Context, req catalogapp.ListProductsRequest, displayCurrency string) (*shared.Paginated[catalogapp.StorefrontProduct], error)
	GetBySlug(ctx context.Context, slug, displayCurrency string) (*catalogapp.StorefrontProduct, error)
	List(ctx context.Context, req catalogapp.AdminListProductsRequest) (*shared.Paginated[catalogapp.ProductResponse], error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
	Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error)
	Publish(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
	Archive(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
	AdjustStock(ctx context.Context, id uuid.UUID, req catalogapp.AdjustStockRequest) (*catalogapp.ProductResponse, error)
}

// ProductHandler serves the storefront catalog and the admin product routes
type ProductHandler struct {
	BaseHandler
	products ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListStorefront handles GET /products
//
// @Summary      List published products
// @Tags         catalog
// @Produce      json
// @Param        request query catalogapp.ListProductsRequest false "Filters"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [get]
func (h *ProductHandler) ListStorefront(c *gin.Context) {
	var req catalogapp.ListProductsRequest
	if !bindQuery(c, &req) {
		return
	}
	page, err := h.products.ListStorefront(c.Request.Context(), req, middleware.GetDisplayCurrency(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, page)
}

// GetBySlug handles GET /products/:slug
//
// @Summary      Get a published product
// @Tags         catalog
// @Produce      json
// @Param        slug path string true "Slug"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{slug} [get]
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	product, err := h.products.GetBySlug(c.Request.Context(), c.Param("slug"), middleware.GetDisplayCurrency(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List handles GET /admin/products, drafts and archived products included
//
// @Summary      List products
// @Tags         admin-products
// @Produce      json
// @Param        request query catalogapp.AdminListProductsRequest false "Filters"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var req catalogapp.AdminListProductsRequest
	if !bindQuery(c, &req) {
		return
	}
	page, err := h.products.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, page)
}

// Get handles GET /admin/products/:id
//
// @Summary      Get a product
// @Tags         admin-products
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create handles POST /admin/products. New products start as drafts.
//
// @Summary      Create a product
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update handles PUT /admin/products/:id
//
// @Summary      Update a product
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Publish handles POST /admin/products/:id/publish
//
// @Summary      Publish a product
// @Tags         admin-products
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products/{id}/publish [post]
func (h *ProductHandler) Publish(c *gin.Context) {
	h.transition(c, h.products.Publish)
}

// Archive handles POST /admin/products/:id/archive and DELETE /admin/products/:id.
// Products are never hard-deleted because orders reference them.
//
// @Summary      Archive a product
// @Tags         admin-products
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products/{id}/archive [post]
// @Router       /admin/products/{id} [delete]
func (h *ProductHandler) Archive(c *gin.Context) {
	h.transition(c, h.products.Archive)
}

// AdjustStock handles POST /admin/products/:id/stock
//
// @Summary      Adjust product stock
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body catalogapp.AdjustStockRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.products.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

func (h *ProductHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*catalogapp.ProductResponse, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
