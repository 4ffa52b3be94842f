package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	contentapp "github.com/storefront/backend/internal/application/content"
	"github.com/storefront/backend/internal/application/dashboard"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/application/media"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/tests/testutil"
)

func TestProductHandler_AdminLifecycle(t *testing.T) {
	products := new(MockProductService)
	h := NewProductHandler(products)
	r := testRouter()
	r.GET("/admin/products", h.List)
	r.POST("/admin/products", h.Create)
	r.PUT("/admin/products/:id", h.Update)
	r.POST("/admin/products/:id/publish", h.Publish)
	r.DELETE("/admin/products/:id", h.Archive)
	r.POST("/admin/products/:id/stock", h.AdjustStock)

	id := uuid.New()
	draft := &catalogapp.ProductResponse{ID: id, Name: "Linen Apron", Slug: "linen-apron", Status: "DRAFT"}
	active := &catalogapp.ProductResponse{ID: id, Name: "Linen Apron", Slug: "linen-apron", Status: "ACTIVE", Stock: 15}
	archived := &catalogapp.ProductResponse{ID: id, Status: "ARCHIVED"}

	page := shared.NewPaginated([]catalogapp.ProductResponse{*draft}, 1, 1, 20)
	products.On("List", mock.Anything, mock.MatchedBy(func(req catalogapp.AdminListProductsRequest) bool {
		return req.Status == "DRAFT"
	})).Return(&page, nil)
	products.On("Create", mock.Anything, mock.MatchedBy(func(req catalogapp.CreateProductRequest) bool {
		return req.Name == "Linen Apron" && req.Price.Equal(decimal.RequireFromString("24.50"))
	})).Return(draft, nil)
	products.On("Publish", mock.Anything, id).Return(active, nil)
	products.On("AdjustStock", mock.Anything, id, catalogapp.AdjustStockRequest{Delta: 5, Reason: "restock"}).Return(active, nil)
	products.On("Archive", mock.Anything, id).Return(archived, nil)

	w := testutil.DoJSON(t, r, http.MethodGet, "/admin/products?status=DRAFT", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"meta"`)

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/products", map[string]any{
		"name": "Linen Apron", "price": "24.50", "stock": 10,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/products", map[string]any{"price": "1.00"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/products/"+id.String()+"/publish", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ACTIVE"`)

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/products/"+id.String()+"/stock", map[string]any{"delta": 5, "reason": "restock"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.DoJSON(t, r, http.MethodDelete, "/admin/products/"+id.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ARCHIVED"`)

	products.AssertExpectations(t)
}

func TestProductHandler_UpdateConflict(t *testing.T) {
	products := new(MockProductService)
	r := testRouter()
	r.PUT("/admin/products/:id", NewProductHandler(products).Update)

	id := uuid.New()
	products.On("Update", mock.Anything, id, mock.Anything).Return(nil, shared.ErrAlreadyExists)

	w := testutil.DoJSON(t, r, http.MethodPut, "/admin/products/"+id.String(), map[string]any{"slug": "taken-slug"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusConflict, "ERR_ALREADY_EXISTS")
}

func TestCategoryHandler(t *testing.T) {
	categories := new(MockCategoryService)
	h := NewCategoryHandler(categories)
	r := testRouter()
	r.GET("/categories", h.ListActive)
	r.GET("/admin/categories", h.ListAll)
	r.POST("/admin/categories", h.Create)
	r.DELETE("/admin/categories/:id", h.Delete)

	id := uuid.New()
	categories.On("List", mock.Anything, true).Return([]catalogapp.CategoryResponse{{Slug: "kitchen", Active: true}}, nil)
	categories.On("List", mock.Anything, false).Return([]catalogapp.CategoryResponse{{Slug: "kitchen"}, {Slug: "garden"}}, nil)
	categories.On("Create", mock.Anything, catalogapp.CreateCategoryRequest{Name: "Garden"}).
		Return(&catalogapp.CategoryResponse{ID: id, Name: "Garden", Slug: "garden"}, nil)
	categories.On("Delete", mock.Anything, id).Return(nil)

	w := testutil.DoJSON(t, r, http.MethodGet, "/categories", nil, nil)
	assert.NotContains(t, w.Body.String(), "garden")
	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/categories", nil, nil)
	assert.Contains(t, w.Body.String(), "garden")
	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/categories", map[string]any{"name": "Garden"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/categories", map[string]any{"name": "Garden", "slug": "Not A Slug"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")
	w = testutil.DoJSON(t, r, http.MethodDelete, "/admin/categories/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	categories.AssertExpectations(t)
}

func orderRouter(orders OrderService) *gin.Engine {
	h := NewOrderHandler(orders)
	r := testRouter()
	r.GET("/admin/orders", h.List)
	r.GET("/admin/orders/:id", h.Get)
	r.POST("/admin/orders/:id/ship", h.Ship)
	r.POST("/admin/orders/:id/deliver", h.Deliver)
	r.POST("/admin/orders/:id/cancel", h.Cancel)
	r.POST("/admin/orders/:id/refund", h.Refund)
	r.GET("/admin/orders/:id/invoice.pdf", h.Invoice)
	return r
}

func TestOrderHandler_Fulfilment(t *testing.T) {
	orders := new(MockOrderService)
	r := orderRouter(orders)
	id := uuid.New()
	base := "/admin/orders/" + id.String()

	orders.On("Ship", mock.Anything, id, orderapp.ShipOrderRequest{TrackingNumber: "1Z999AA10123456784"}).
		Return(&orderapp.OrderResponse{ID: id, Status: "SHIPPED", TrackingNumber: "1Z999AA10123456784"}, nil)
	orders.On("Deliver", mock.Anything, id).Return(&orderapp.OrderResponse{ID: id, Status: "DELIVERED", PaymentStatus: "PAID"}, nil)
	orders.On("Cancel", mock.Anything, id, orderapp.CancelOrderRequest{Reason: "customer request"}).
		Return(nil, shared.NewDomainError("REFUND_REQUIRED", "Refund the card payment before cancelling"))
	orders.On("Refund", mock.Anything, id, orderapp.RefundOrderRequest{}).
		Return(&orderapp.OrderResponse{ID: id, Status: "CANCELLED", PaymentStatus: "REFUNDED"}, nil)

	w := testutil.DoJSON(t, r, http.MethodPost, base+"/ship", map[string]string{"tracking_number": "1Z999AA10123456784"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"SHIPPED"`)

	w = testutil.DoJSON(t, r, http.MethodPost, base+"/deliver", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"PAID"`)

	w = testutil.DoJSON(t, r, http.MethodPost, base+"/cancel", map[string]string{}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, r, http.MethodPost, base+"/cancel", map[string]string{"reason": "customer request"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "ERR_REFUND_REQUIRED")

	w = testutil.DoJSON(t, r, http.MethodPost, base+"/refund", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"REFUNDED"`)

	orders.AssertExpectations(t)
}

func TestOrderHandler_ListAndGet(t *testing.T) {
	orders := new(MockOrderService)
	r := orderRouter(orders)
	id := uuid.New()

	page := shared.NewPaginated([]orderapp.OrderListItem{{ID: id, OrderNumber: "ORD-20261019-ABC123"}}, 1, 1, 20)
	orders.On("List", mock.Anything, mock.MatchedBy(func(req orderapp.ListOrdersRequest) bool {
		return req.Status == "PROCESSING" && req.From != nil && req.From.Format(time.DateOnly) == "2026-10-01"
	})).Return(&page, nil)
	orders.On("Get", mock.Anything, id).Return(&orderapp.OrderResponse{ID: id, OrderNumber: "ORD-20261019-ABC123"}, nil)

	w := testutil.DoJSON(t, r, http.MethodGet, "/admin/orders?status=PROCESSING&from=2026-10-01", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "ORD-20261019-ABC123")

	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/orders?status=LOST", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/orders/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderHandler_Invoice(t *testing.T) {
	orders := new(MockOrderService)
	r := orderRouter(orders)
	id := uuid.New()
	disabled := uuid.New()

	orders.On("Invoice", mock.Anything, id).Return([]byte("%PDF-1.7"), "invoice-ORD-20261019-ABC123.pdf", nil)
	orders.On("Invoice", mock.Anything, disabled).Return(nil, "", shared.NewDomainError("INVOICES_DISABLED", "Invoice rendering is not configured"))

	w := testutil.DoJSON(t, r, http.MethodGet, "/admin/orders/"+id.String()+"/invoice.pdf", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-ORD-20261019-ABC123.pdf")
	assert.Equal(t, "%PDF-1.7", w.Body.String())

	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/orders/"+disabled.String()+"/invoice.pdf", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusServiceUnavailable, "ERR_INVOICES_DISABLED")
}

func TestAuthHandler(t *testing.T) {
	auth := new(MockAuthService)
	h := NewAuthHandler(auth)
	principal := &identityapp.Principal{AdminID: uuid.New(), Email: "ops@example.com", TokenID: "jti-1"}

	r := testRouter()
	r.POST("/admin/auth/login", h.Login)
	r.POST("/admin/auth/refresh", h.Refresh)
	authed := r.Group("/admin/auth", func(c *gin.Context) { middleware.SetPrincipal(c, principal) })
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)
	r.GET("/anonymous/me", h.Me)

	good := identityapp.LoginRequest{Email: "ops@example.com", Password: "correct horse"}
	auth.On("Login", mock.Anything, good, mock.AnythingOfType("string")).Return(&identityapp.LoginResponse{
		Token: identityapp.TokenResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"},
		Admin: identityapp.AdminResponse{ID: principal.AdminID, Email: principal.Email},
	}, nil)
	auth.On("Login", mock.Anything, identityapp.LoginRequest{Email: "ops@example.com", Password: "wrong"}, mock.Anything).
		Return(nil, identityapp.ErrInvalidCredentials)
	auth.On("Refresh", mock.Anything, "expired").Return(nil, identityapp.ErrTokenExpired)
	auth.On("Logout", mock.Anything, principal, "refresh").Return(nil)
	auth.On("Me", mock.Anything, principal).Return(&identityapp.AdminResponse{Email: "ops@example.com"}, nil)

	w := testutil.DoJSON(t, r, http.MethodPost, "/admin/auth/login", good, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"access_token":"access"`)

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/auth/login", identityapp.LoginRequest{Email: "ops@example.com", Password: "wrong"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS")

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/auth/login", map[string]string{"email": "not-an-email", "password": "x"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/auth/refresh", identityapp.RefreshRequest{RefreshToken: "expired"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "ERR_TOKEN_EXPIRED")

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/auth/logout", identityapp.LogoutRequest{RefreshToken: "refresh"}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/auth/me", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoJSON(t, r, http.MethodGet, "/anonymous/me", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "ERR_UNAUTHORIZED")

	auth.AssertExpectations(t)
}

func TestContentHandler_Admin(t *testing.T) {
	content := new(MockContentService)
	h := NewContentHandler(content)
	r := testRouter()
	r.POST("/admin/banners", h.CreateBanner)
	r.DELETE("/admin/banners/:id", h.DeleteBanner)
	r.PUT("/admin/collections/:id", h.UpdateCollection)
	r.PUT("/admin/about", h.PutAbout)

	bannerID := uuid.New()
	collectionID := uuid.New()
	content.On("CreateBanner", mock.Anything, mock.MatchedBy(func(req contentapp.BannerRequest) bool {
		return req.Title == "Autumn sale" && req.ImageKey == "banners/2026/10/a.jpg"
	})).Return(&contentapp.BannerResponse{ID: bannerID, Title: "Autumn sale"}, nil)
	content.On("DeleteBanner", mock.Anything, bannerID).Return(nil)
	content.On("UpdateCollection", mock.Anything, collectionID, mock.Anything).Return(nil, shared.ErrNotFound)
	content.On("PutAbout", mock.Anything, contentapp.AboutPageRequest{Title: "Our story", Body: "Made by hand."}).
		Return(&contentapp.AboutPageResponse{Title: "Our story", Body: "Made by hand."}, nil)

	w := testutil.DoJSON(t, r, http.MethodPost, "/admin/banners", map[string]any{"title": "Autumn sale", "image_key": "banners/2026/10/a.jpg", "active": true}, nil)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/banners", map[string]any{"title": "No image"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, r, http.MethodDelete, "/admin/banners/"+bannerID.String(), nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.DoJSON(t, r, http.MethodPut, "/admin/collections/"+collectionID.String(), map[string]any{"title": "Kitchen"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, "ERR_NOT_FOUND")

	w = testutil.DoJSON(t, r, http.MethodPut, "/admin/about", map[string]any{"title": "Our story", "body": "Made by hand."}, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	content.AssertExpectations(t)
}

func TestAdminHandler(t *testing.T) {
	uploads := new(MockMediaService)
	summary := new(MockDashboardService)
	reconciler := new(MockReconciler)
	h := NewAdminHandler(uploads, summary, reconciler)
	r := testRouter()
	r.POST("/admin/media/upload-url", h.CreateUploadURL)
	r.GET("/admin/dashboard", h.Dashboard)
	r.GET("/admin/payments/reconcile", h.Reconcile)

	uploads.On("CreateUploadURL", mock.Anything, media.CreateUploadURLRequest{Kind: "product", Filename: "mug.png", ContentType: "image/png"}).
		Return(&media.UploadURLResponse{Key: "products/2026/10/abc.png", UploadURL: "https://bucket/put", PublicURL: "https://cdn/products/2026/10/abc.png"}, nil)
	uploads.On("CreateUploadURL", mock.Anything, media.CreateUploadURLRequest{Kind: "product", Filename: "mug.svg", ContentType: "image/svg+xml"}).
		Return(nil, shared.NewDomainError("UNSUPPORTED_MEDIA_TYPE", "Only JPEG, PNG, WebP and GIF images are accepted"))
	summary.On("Summary", mock.Anything, dashboard.SummaryRequest{From: "2026-10-01", To: "2026-10-19"}).
		Return(&dashboard.Summary{BaseCurrency: "USD", BaseRevenue: "1520.00", PaidOrders: 12}, nil)
	reconciler.On("Run", mock.Anything).Return(&paymentapp.ReconcileReport{Checked: 3, Succeeded: 1, Cancelled: 2}, nil)

	w := testutil.DoJSON(t, r, http.MethodPost, "/admin/media/upload-url", map[string]string{"kind": "product", "filename": "mug.png", "content_type": "image/png"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "products/2026/10/abc.png")

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/media/upload-url", map[string]string{"kind": "product", "filename": "mug.svg", "content_type": "image/svg+xml"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_UNSUPPORTED_MEDIA")

	w = testutil.DoJSON(t, r, http.MethodPost, "/admin/media/upload-url", map[string]string{"kind": "avatar", "filename": "me.png", "content_type": "image/png"}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/dashboard?from=2026-10-01&to=2026-10-19", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"base_revenue":"1520.00"`)

	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/dashboard?from=19/10/2026", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, r, http.MethodGet, "/admin/payments/reconcile", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":2`)

	uploads.AssertExpectations(t)
	summary.AssertExpectations(t)
	reconciler.AssertExpectations(t)
}
