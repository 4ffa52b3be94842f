package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Storefront context keys and transport names
const (
	CartSessionKey     = "cart_session"
	CartSessionHeader  = "X-Cart-Session"
	DisplayCurrencyKey = "display_currency"
	CurrencyHeader     = "X-Currency"
	CurrencyCookie     = "currency"
	CurrencyQuery      = "currency"
)

// CartCookieConfig controls the cart session cookie
type CartCookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// DefaultCartCookieConfig returns the cookie defaults used in development
func DefaultCartCookieConfig() CartCookieConfig {
	return CartCookieConfig{Name: "cart_session", MaxAge: 30 * 24 * time.Hour}
}

// CartSession reads the shopper's cart token from the cookie or the X-Cart-Session header.
// The header wins so API clients can ignore cookies.
func CartSession(cfg CartCookieConfig) gin.HandlerFunc {
	if cfg.Name == "" {
		cfg.Name = DefaultCartCookieConfig().Name
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(CartSessionHeader))
		if token == "" {
			if cookie, err := c.Cookie(cfg.Name); err == nil {
				token = cookie
			}
		}
		if token != "" {
			c.Set(CartSessionKey, token)
			c.Request = c.Request.WithContext(logger.WithCartSession(c.Request.Context(), token))
		}
		c.Next()
	}
}

// GetCartSession returns the token presented by the client, possibly empty
func GetCartSession(c *gin.Context) string {
	return c.GetString(CartSessionKey)
}

// IssueCartSession hands the (possibly new) cart token back to the client
func IssueCartSession(c *gin.Context, cfg CartCookieConfig, token string) {
	if token == "" {
		return
	}
	if cfg.Name == "" {
		cfg.Name = DefaultCartCookieConfig().Name
	}
	c.Header(CartSessionHeader, token)
	if token == GetCartSession(c) {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, token, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
	c.Set(CartSessionKey, token)
}

// DisplayCurrency resolves the shopper's requested currency: ?currency=, then
// X-Currency, then the currency cookie. A query choice is remembered in the cookie.
// Unsupported codes are left for the currency service to fall back from.
func DisplayCurrency(cookieMaxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := strings.ToUpper(strings.TrimSpace(c.Query(CurrencyQuery)))
		if code != "" && len(code) == 3 {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CurrencyCookie, code, int(cookieMaxAge.Seconds()), "/", "", false, false)
		}
		if code == "" {
			code = strings.ToUpper(strings.TrimSpace(c.GetHeader(CurrencyHeader)))
		}
		if code == "" {
			if cookie, err := c.Cookie(CurrencyCookie); err == nil {
				code = strings.ToUpper(cookie)
			}
		}
		if len(code) == 3 {
			c.Set(DisplayCurrencyKey, code)
		}
		c.Next()
	}
}

// GetDisplayCurrency returns the requested display currency, possibly empty
func GetDisplayCurrency(c *gin.Context) string {
	return c.GetString(DisplayCurrencyKey)
}
