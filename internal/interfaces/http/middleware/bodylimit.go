package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodySize applies when no limit is configured
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimit returns a middleware that limits request body size.
// Requests whose path is listed in skip keep their own limits.
func BodyLimit(maxBytes int64, skip ...string) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		for _, p := range skip {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		if c.Request.ContentLength > maxBytes {
			abortWithError(c, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
			return
		}

		// streaming bodies without a Content-Length are capped while read
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
