package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
)

// CategoryService manages product categories
type CategoryService interface {
	List(ctx context.Context, activeOnly bool) ([]catalogapp.CategoryResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.CategoryResponse, error)
	Create(ctx context.Context, req catalogapp.CreateCategoryRequest) (*catalogapp.CategoryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateCategoryRequest) (*catalogapp.CategoryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	BaseHandler
	categories CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// ListActive handles GET /categories
//
// @Summary      List active categories
// @Tags         catalog
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /categories [get]
func (h *CategoryHandler) ListActive(c *gin.Context) {
	h.list(c, true)
}

// ListAll handles GET /admin/categories
//
// @Summary      List all categories
// @Tags         admin-categories
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/categories [get]
func (h *CategoryHandler) ListAll(c *gin.Context) {
	h.list(c, false)
}

func (h *CategoryHandler) list(c *gin.Context, activeOnly bool) {
	categories, err := h.categories.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Get handles GET /admin/categories/:id
//
// @Summary      Get a category
// @Tags         admin-categories
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	category, err := h.categories.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Create handles POST /admin/categories
//
// @Summary      Create a category
// @Tags         admin-categories
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateCategoryRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req catalogapp.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// Update handles PUT /admin/categories/:id
//
// @Summary      Update a category
// @Tags         admin-categories
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body catalogapp.UpdateCategoryRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Delete handles DELETE /admin/categories/:id
//
// @Summary      Delete a category
// @Tags         admin-categories
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
