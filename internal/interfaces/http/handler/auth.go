package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// AuthService authenticates admins
type AuthService interface {
	Login(ctx context.Context, req identityapp.LoginRequest, ip string) (*identityapp.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*identityapp.TokenResponse, error)
	Logout(ctx context.Context, principal *identityapp.Principal, refreshToken string) error
	Me(ctx context.Context, principal *identityapp.Principal) (*identityapp.AdminResponse, error)
}

// AuthHandler handles admin authentication endpoints
type AuthHandler struct {
	BaseHandler
	auth AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /admin/auth/login
//
// @Summary      Admin login
// @Tags         admin-auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginRequest true "Request body"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Refresh handles POST /admin/auth/refresh
//
// @Summary      Refresh access token
// @Tags         admin-auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RefreshRequest true "Request body"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tokens)
}

// Logout handles POST /admin/auth/logout
//
// @Summary      Admin logout
// @Tags         admin-auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LogoutRequest false "Request body"
// @Security     BearerAuth
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req identityapp.LogoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if err := h.auth.Logout(c.Request.Context(), principal, req.RefreshToken); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /admin/auth/me
//
// @Summary      Current admin user
// @Tags         admin-auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	admin, err := h.auth.Me(c.Request.Context(), principal)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, admin)
}
