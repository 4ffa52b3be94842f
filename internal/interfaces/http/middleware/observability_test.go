package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	appidentity "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

func TestHTTPMetrics_DisabledIsPassThrough(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHTTPMetrics_RecordsByRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	sdk := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(HTTPMetrics(telemetry.NewMeterProviderFromSDK(sdk)))
	router.GET("/api/v1/products/:slug", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, slug := range []string{"mug", "plate", "bowl"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+slug, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_server_request_total" {
				continue
			}
			found = true
			sum := m.Data.(metricdata.Sum[int64])
			require.Len(t, sum.DataPoints, 1, "one series per route pattern")
			dp := sum.DataPoints[0]
			assert.Equal(t, int64(3), dp.Value)
			route, ok := dp.Attributes.Value(telemetry.AttrHTTPRoute)
			require.True(t, ok)
			assert.Equal(t, "/api/v1/products/:slug", route.AsString())
		}
	}
	assert.True(t, found)
}

func TestControllerAndAreaFromRoute(t *testing.T) {
	tests := []struct {
		route      string
		controller string
		area       string
	}{
		{"/api/v1/products/:slug", "products", "storefront"},
		{"/api/v1/admin/orders/:id/ship", "orders", "admin"},
		{"/api/v2/cart/items/:productId", "cart", "storefront"},
		{"/api/v1/admin", "", "admin"},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.controller, controllerFromRoute(tt.route), tt.route)
		assert.Equal(t, tt.area, areaFromRoute(tt.route), tt.route)
	}
	assert.True(t, isVersionSegment("v12"))
	assert.False(t, isVersionSegment("video"))
}

func TestProfiling_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(Profiling(ProfilingConfig{Enabled: true, SkipPaths: []string{"/health"}}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/api/v1/products"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestTracing_SpanEnricher(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	adminID := uuid.New()
	router := gin.New()
	router.Use(RequestID(), Tracing(TracingConfig{Enabled: true}), SpanEnricher())
	router.GET("/api/v1/admin/orders", func(c *gin.Context) {
		SetPrincipal(c, &appidentity.Principal{AdminID: adminID})
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Contains(t, span.Attributes(), attribute.String("request_id", "req-123"))
	assert.Contains(t, span.Attributes(), attribute.String("admin_id", adminID.String()))
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestTracing_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(Tracing(TracingConfig{}), SpanEnricher())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
