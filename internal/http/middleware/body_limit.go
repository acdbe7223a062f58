package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKindKey is set on the gin context by handlers that answer with an error envelope.
const ErrorKindKey = "error_kind"

// MaxBodyBytes caps request bodies. Zero or less disables the cap.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
