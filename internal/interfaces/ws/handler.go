package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	appidentity "github.com/storefront/backend/internal/application/identity"
	"go.uber.org/zap"
)

// Authenticator validates the admin access token passed in the query string
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*appidentity.Principal, error)
}

// Handler upgrades admin requests to the live order feed
type Handler struct {
	hub            *Hub
	auth           Authenticator
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewHandler creates a new Handler. An empty allowedOrigins list accepts
// same-host origins only.
func NewHandler(hub *Hub, auth Authenticator, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, auth: auth, allowedOrigins: allowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Connect handles GET /api/v1/admin/ws?token=...
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "Missing token"}})
		return
	}
	principal, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "Invalid token"}})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("Admin feed upgrade failed", zap.String("admin_id", principal.AdminID.String()), zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, principal.AdminID.String())
	h.hub.register(client)
	go client.writePump()
	client.readPump()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
