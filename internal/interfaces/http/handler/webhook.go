package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// MaxWebhookPayloadSize caps provider webhook bodies at 64KB
const MaxWebhookPayloadSize = 64 << 10

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// WebhookService verifies and applies provider webhooks
type WebhookService interface {
	Handle(ctx context.Context, payload []byte, signature string) (*paymentapp.WebhookResult, error)
}

// WebhookHandler receives Stripe webhooks. The route is public; trust comes
// from the signature alone.
type WebhookHandler struct {
	BaseHandler
	webhooks WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// WebhookResponse acknowledges a webhook delivery
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Stripe handles POST /webhooks/stripe.
// A non-2xx answer makes Stripe retry, so processing failures surface as 5xx
// while verified duplicates and ignored event types are acknowledged.
//
// @Summary      Receive Stripe events
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	// the signature covers the raw bytes, so the body is read before any binding
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > MaxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Payload too large")
		return
	}

	signature := c.GetHeader(StripeSignatureHeader)
	if signature == "" {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Missing Stripe-Signature header")
		return
	}

	result, err := h.webhooks.Handle(c.Request.Context(), payload, signature)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Duplicate: result.Duplicate,
		Message:   result.Message,
	})
}
