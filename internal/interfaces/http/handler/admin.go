package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/application/dashboard"
	"github.com/storefront/backend/internal/application/media"
	paymentapp "github.com/storefront/backend/internal/application/payment"
)

// MediaService presigns image uploads
type MediaService interface {
	CreateUploadURL(ctx context.Context, req media.CreateUploadURLRequest) (*media.UploadURLResponse, error)
}

// DashboardService builds the admin summary
type DashboardService interface {
	Summary(ctx context.Context, req dashboard.SummaryRequest) (*dashboard.Summary, error)
}

// Reconciler runs a payment reconciliation pass on demand
type Reconciler interface {
	Run(ctx context.Context) (*paymentapp.ReconcileReport, error)
}

// AdminHandler serves the admin media, dashboard and reconciliation routes
type AdminHandler struct {
	BaseHandler
	media      MediaService
	dashboard  DashboardService
	reconciler Reconciler
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(uploads MediaService, summary DashboardService, reconciler Reconciler) *AdminHandler {
	return &AdminHandler{media: uploads, dashboard: summary, reconciler: reconciler}
}

// CreateUploadURL handles POST /admin/media/upload-url
//
// @Summary      Create a media upload URL
// @Tags         admin-media
// @Accept       json
// @Produce      json
// @Param        request body media.CreateUploadURLRequest true "Request body"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/media/upload-url [post]
func (h *AdminHandler) CreateUploadURL(c *gin.Context) {
	var req media.CreateUploadURLRequest
	if !bindJSON(c, &req) {
		return
	}
	upload, err := h.media.CreateUploadURL(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, upload)
}

// Dashboard handles GET /admin/dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD
//
// @Summary      Sales dashboard summary
// @Tags         admin-dashboard
// @Produce      json
// @Param        request query dashboard.SummaryRequest false "Filters"
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var req dashboard.SummaryRequest
	if !bindQuery(c, &req) {
		return
	}
	summary, err := h.dashboard.Summary(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Reconcile handles GET /admin/payments/reconcile
//
// @Summary      Reconcile pending card payments
// @Tags         admin-payments
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/payments/reconcile [get]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
