package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appidentity "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// Auth context keys
const (
	PrincipalKey  = "admin_principal"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator validates admin access tokens
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*appidentity.Principal, error)
}

// AdminAuth requires a valid admin bearer token and stores the principal in the context
func AdminAuth(authn Authenticator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		principal, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Debug("Admin authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			if de, ok := shared.AsDomainError(err); ok {
				abortWithError(c, dto.NormalizeErrorCode(de.Code), de.Message)
				return
			}
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// SetPrincipal attaches an authenticated admin to the request
func SetPrincipal(c *gin.Context, principal *appidentity.Principal) {
	c.Set(PrincipalKey, principal)
	c.Request = c.Request.WithContext(logger.WithAdminID(c.Request.Context(), principal.AdminID.String()))
}

// GetPrincipal returns the authenticated admin, if any
func GetPrincipal(c *gin.Context) (*appidentity.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*appidentity.Principal)
	return p, ok && p != nil
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}
