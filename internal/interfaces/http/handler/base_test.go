package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/tests/testutil"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
		{"wrapped domain error", fmt.Errorf("load: %w", shared.ErrInsufficientStock), http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_STOCK"},
		{"cart limit", cart.ErrTooManyLines, http.StatusUnprocessableEntity, "ERR_CART_FULL"},
		{"locked account", identity.ErrAccountLocked, http.StatusLocked, "ERR_ACCOUNT_LOCKED"},
		{"provider error code", shared.ErrPaymentProvider, http.StatusBadGateway, "ERR_PAYMENT_PROVIDER"},
		{"bad signature", payment.ErrInvalidSignature, http.StatusUnauthorized, "ERR_INVALID_SIGNATURE"},
		{"wrapped bad signature", fmt.Errorf("verify: %w", payment.ErrInvalidSignature), http.StatusUnauthorized, "ERR_INVALID_SIGNATURE"},
		{"bad payload", fmt.Errorf("parse: %w", payment.ErrInvalidWebhookPayload), http.StatusBadRequest, "ERR_INVALID_PAYLOAD"},
		{"card payments off", payment.ErrProviderNotConfigured, http.StatusServiceUnavailable, "ERR_UNAVAILABLE"},
		{"provider down", fmt.Errorf("create session: %w", payment.ErrProviderRequestFailed), http.StatusBadGateway, "ERR_UPSTREAM"},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "ERR_PAYLOAD_TOO_LARGE"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h BaseHandler
			r := testRouter()
			r.GET("/boom", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := testutil.DoJSON(t, r, http.MethodGet, "/boom", nil, nil)
			testutil.AssertErrorResponse(t, w, tt.status, tt.code)
			resp := testutil.DecodeResponse[any](t, w)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestHandleError_Nil(t *testing.T) {
	var h BaseHandler
	r := testRouter()
	r.GET("/ok", func(c *gin.Context) {
		h.HandleError(c, nil)
		c.Status(http.StatusNoContent)
	})

	w := testutil.DoJSON(t, r, http.MethodGet, "/ok", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPathID_Invalid(t *testing.T) {
	h := NewProductHandler(&MockProductService{})
	r := testRouter()
	r.GET("/admin/products/:id", h.Get)

	w := testutil.DoJSON(t, r, http.MethodGet, "/admin/products/not-a-uuid", nil, nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "ERR_INVALID_INPUT")
}

func TestHealth(t *testing.T) {
	r := testRouter()
	r.GET("/health", NewHealthHandler(stubPinger{}).Check)
	r.GET("/down", NewHealthHandler(stubPinger{err: errors.New("dial tcp: refused")}).Check)

	w := testutil.DoJSON(t, r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = testutil.DoJSON(t, r, http.MethodGet, "/down", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unhealthy"`)
}
