package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartService reads and mutates a session's cart. Every call returns the
// session token the client must keep, which differs from the presented one
// when the cart was just created.
type CartService interface {
	View(ctx context.Context, token, display string) (*cartapp.CartView, string, error)
	AddItem(ctx context.Context, token, display string, req cartapp.AddItemRequest) (*cartapp.CartView, string, error)
	UpdateQuantity(ctx context.Context, token, display string, productID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartView, string, error)
	RemoveItem(ctx context.Context, token, display string, productID uuid.UUID) (*cartapp.CartView, string, error)
	Clear(ctx context.Context, token, display string) (*cartapp.CartView, string, error)
}

// CartHandler handles the shopper's cart
type CartHandler struct {
	BaseHandler
	carts  CartService
	cookie middleware.CartCookieConfig
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts CartService, cookie middleware.CartCookieConfig) *CartHandler {
	return &CartHandler{carts: carts, cookie: cookie}
}

// Get handles GET /cart
//
// @Summary      Get the shopping cart
// @Tags         cart
// @Produce      json
// @Param        currency query string false "Display currency"
// @Success      200 {object} dto.Response
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	h.respond(c)(h.carts.View(c.Request.Context(), middleware.GetCartSession(c), middleware.GetDisplayCurrency(c)))
}

// AddItem handles POST /cart/items
//
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Request body"
// @Param        currency query string false "Display currency"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.carts.AddItem(c.Request.Context(), middleware.GetCartSession(c), middleware.GetDisplayCurrency(c), req))
}

// UpdateItem handles PATCH /cart/items/:productId. A zero quantity removes the line.
//
// @Summary      Change a cart line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID" format(uuid)
// @Param        currency query string false "Display currency"
// @Param        request body cartapp.UpdateItemRequest true "Request body"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{productId} [patch]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := h.pathID(c, "productId")
	if !ok {
		return
	}
	var req cartapp.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.carts.UpdateQuantity(c.Request.Context(), middleware.GetCartSession(c), middleware.GetDisplayCurrency(c), productID, req))
}

// RemoveItem handles DELETE /cart/items/:productId
//
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Param        productId path string true "Product ID" format(uuid)
// @Param        currency query string false "Display currency"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := h.pathID(c, "productId")
	if !ok {
		return
	}
	h.respond(c)(h.carts.RemoveItem(c.Request.Context(), middleware.GetCartSession(c), middleware.GetDisplayCurrency(c), productID))
}

// Clear handles DELETE /cart
//
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Param        currency query string false "Display currency"
// @Success      200 {object} dto.Response
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	h.respond(c)(h.carts.Clear(c.Request.Context(), middleware.GetCartSession(c), middleware.GetDisplayCurrency(c)))
}

func (h *CartHandler) respond(c *gin.Context) func(*cartapp.CartView, string, error) {
	return func(view *cartapp.CartView, token string, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		middleware.IssueCartSession(c, h.cookie, token)
		h.Success(c, view)
	}
}
