package router

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appidentity "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/tests/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup_MiddlewareScope(t *testing.T) {
	engine := gin.New()
	var calls []string
	tag := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			calls = append(calls, name)
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	admin := NewDomainGroup("admin", "/admin").Use(tag("admin"), nil)
	admin.GET("/open", ok)
	admin.Group("secured", "").Use(tag("auth")).GET("/closed", ok)
	NewRouter(engine).Register(admin).Setup()

	for _, path := range []string{"/api/v1/admin/open", "/api/v1/admin/closed"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, w.Code, path)
	}
	assert.Equal(t, []string{"admin", "admin", "auth"}, calls)
}

func TestDomainGroup_Routes(t *testing.T) {
	noop := func(*gin.Context) {}
	orders := NewDomainGroup("orders", "/orders").
		GET("", noop).
		POST("/:id/ship", noop)
	orders.Group("invoices", "/:id").GET("/invoice.pdf", noop)

	assert.Equal(t, "orders", orders.Name())
	assert.Equal(t, "/orders", orders.Prefix())
	assert.Equal(t, []Route{
		{Method: http.MethodGet, Path: "/orders"},
		{Method: http.MethodPost, Path: "/orders/:id/ship"},
		{Method: http.MethodGet, Path: "/orders/:id/invoice.pdf"},
	}, orders.Routes())
}

type rejectAll struct{}

func (rejectAll) Authenticate(context.Context, string) (*appidentity.Principal, error) {
	return nil, appidentity.ErrTokenExpired
}

type acceptAll struct{}

func (acceptAll) Authenticate(context.Context, string) (*appidentity.Principal, error) {
	return &appidentity.Principal{Email: "owner@shop.test"}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

// testEngine mounts handlers whose services are never reached by these tests
func testEngine(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()

	h := Handlers{
		Health:     handler.NewHealthHandler(pinger{}),
		Products:   handler.NewProductHandler(nil),
		Categories: handler.NewCategoryHandler(nil),
		Content:    handler.NewContentHandler(nil),
		Currency:   handler.NewCurrencyHandler(nil),
		Cart:       handler.NewCartHandler(nil, middleware.DefaultCartCookieConfig()),
		Checkout:   handler.NewCheckoutHandler(nil, nil),
		Orders:     handler.NewOrderHandler(nil),
		Webhooks:   handler.NewWebhookHandler(nil),
		Auth:       handler.NewAuthHandler(nil),
		Admin:      handler.NewAdminHandler(nil, nil, nil),
	}
	if opts.Authenticator == nil {
		opts.Authenticator = rejectAll{}
	}
	if opts.CORS.AllowMethods == nil {
		opts.CORS = middleware.DefaultCORSConfig()
	}
	engine, err := New(h, opts)
	require.NoError(t, err)
	return engine
}

func TestNew_Health(t *testing.T) {
	engine := testEngine(t, Options{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := testutil.DoJSON(t, engine, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	}
}

func TestNew_UnknownRoutes(t *testing.T) {
	engine := testEngine(t, Options{})

	w := testutil.DoJSON(t, engine, http.MethodGet, "/api/v1/nope", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, "ERR_NOT_FOUND")

	w = testutil.DoJSON(t, engine, http.MethodDelete, "/api/v1/products", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusMethodNotAllowed, "ERR_METHOD_NOT_ALLOWED")

	// no live feed configured
	w = testutil.DoJSON(t, engine, http.MethodGet, "/api/v1/admin/ws", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew_AdminRequiresToken(t *testing.T) {
	engine := testEngine(t, Options{})

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/products"},
		{http.MethodPost, "/api/v1/admin/orders/6b1d3c1e-0d5c-4c59-9b55-7a1c2b0f4e11/refund"},
		{http.MethodPut, "/api/v1/admin/currencies/EUR/rate"},
		{http.MethodGet, "/api/v1/admin/dashboard"},
		{http.MethodGet, "/api/v1/admin/auth/me"},
	}
	for _, p := range paths {
		w := testutil.DoJSON(t, engine, p.method, p.path, nil, nil)
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "ERR_UNAUTHORIZED")
	}

	w := testutil.DoJSON(t, engine, http.MethodGet, "/api/v1/admin/products", nil, map[string]string{
		"Authorization": "Bearer stale",
	})
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "ERR_TOKEN_EXPIRED")
}

func TestNew_Swagger(t *testing.T) {
	t.Run("admin token required", func(t *testing.T) {
		engine := testEngine(t, Options{Swagger: middleware.SwaggerConfig{Enabled: true, RequireAuth: true}})

		w := testutil.DoJSON(t, engine, http.MethodGet, "/swagger/index.html", nil, nil)
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "ERR_UNAUTHORIZED")
	})

	t.Run("serves the ui and the document", func(t *testing.T) {
		engine := testEngine(t, Options{
			Authenticator: acceptAll{},
			Swagger:       middleware.SwaggerConfig{Enabled: true, RequireAuth: true},
		})
		auth := map[string]string{"Authorization": "Bearer good"}

		w := testutil.DoJSON(t, engine, http.MethodGet, "/swagger/index.html", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "swagger-ui")

		w = testutil.DoJSON(t, engine, http.MethodGet, "/swagger/doc.json", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"title": "Storefront API"`)
		assert.Contains(t, w.Body.String(), `"/checkout"`)
		assert.Contains(t, w.Body.String(), `"/webhooks/stripe"`)
	})

	t.Run("disabled", func(t *testing.T) {
		engine := testEngine(t, Options{Authenticator: acceptAll{}})

		w := testutil.DoJSON(t, engine, http.MethodGet, "/swagger/index.html", nil, map[string]string{"Authorization": "Bearer good"})
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, "ERR_NOT_FOUND")
	})
}

func TestNew_LoginRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	engine := testEngine(t, Options{LoginLimiter: limiter})

	body := map[string]string{"email": "not-an-email"}
	w := testutil.DoJSON(t, engine, http.MethodPost, "/api/v1/admin/auth/login", body, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_VALIDATION")

	w = testutil.DoJSON(t, engine, http.MethodPost, "/api/v1/admin/auth/login", body, nil)
	testutil.AssertErrorResponse(t, w, http.StatusTooManyRequests, "ERR_RATE_LIMITED")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestNew_StorefrontRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	engine := testEngine(t, Options{StorefrontLimiter: limiter})

	// invalid sort fails validation before any service call
	for i := 0; i < 2; i++ {
		w := testutil.DoJSON(t, engine, http.MethodGet, "/api/v1/products?sort=cheapest", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := testutil.DoJSON(t, engine, http.MethodGet, "/api/v1/products?sort=cheapest", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// health is outside the storefront limit
	w = testutil.DoJSON(t, engine, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_BodyLimit(t *testing.T) {
	engine := testEngine(t, Options{MaxBodySize: 1 << 10})
	big := bytes.Repeat([]byte("x"), 2<<10)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	testutil.AssertErrorResponse(t, w, http.StatusRequestEntityTooLarge, "ERR_PAYLOAD_TOO_LARGE")

	// the webhook has its own cap and rejects the unsigned body instead
	req = httptest.NewRequest(http.MethodPost, WebhookPath, bytes.NewReader(big))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "ERR_INVALID_SIGNATURE")
}

func TestNew_CORS(t *testing.T) {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = []string{"https://shop.example.com"}
	engine := testEngine(t, Options{CORS: cors})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/items", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://shop.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("https://evil.example.net")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_BadTrustedProxy(t *testing.T) {
	_, err := New(Handlers{Health: handler.NewHealthHandler(pinger{err: errors.New("down")})}, Options{
		TrustedProxies: []string{"not-an-ip"},
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not-an-ip"))
}
