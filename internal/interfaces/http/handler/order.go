package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderService is the admin order management use case set
type OrderService interface {
	List(ctx context.Context, req orderapp.ListOrdersRequest) (*shared.Paginated[orderapp.OrderListItem], error)
	Get(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error)
	Ship(ctx context.Context, id uuid.UUID, req orderapp.ShipOrderRequest) (*orderapp.OrderResponse, error)
	Deliver(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, req orderapp.CancelOrderRequest) (*orderapp.OrderResponse, error)
	Refund(ctx context.Context, id uuid.UUID, req orderapp.RefundOrderRequest) (*orderapp.OrderResponse, error)
	Invoice(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

// OrderHandler handles admin order endpoints
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /admin/orders
//
// @Summary      List orders
// @Tags         admin-orders
// @Produce      json
// @Param        request query orderapp.ListOrdersRequest false "Filters"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var req orderapp.ListOrdersRequest
	if !bindQuery(c, &req) {
		return
	}
	page, err := h.orders.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(&h.BaseHandler, c, page)
}

// Get handles GET /admin/orders/:id
//
// @Summary      Get an order
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Ship handles POST /admin/orders/:id/ship
//
// @Summary      Mark an order shipped
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body orderapp.ShipOrderRequest false "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req orderapp.ShipOrderRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Ship(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Deliver handles POST /admin/orders/:id/deliver. Cash on delivery orders are settled here.
//
// @Summary      Mark an order delivered
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Deliver(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel handles POST /admin/orders/:id/cancel
//
// @Summary      Cancel an order
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body orderapp.CancelOrderRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req orderapp.CancelOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Refund handles POST /admin/orders/:id/refund
//
// @Summary      Refund an order
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "ID" format(uuid)
// @Param        request body orderapp.RefundOrderRequest false "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req orderapp.RefundOrderRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Refund(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Invoice handles GET /admin/orders/:id/invoice.pdf
//
// @Summary      Download the order invoice
// @Tags         admin-orders
// @Produce      application/pdf
// @Param        id path string true "ID" format(uuid)
// @Security     BearerAuth
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/orders/{id}/invoice.pdf [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.orders.Invoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
