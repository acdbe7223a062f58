package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultDevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:5174",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:5174",
}

// CORS allows the given origins. An empty list means the local dev origins; "*" allows
// any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id", "X-Trace-Id"},
		ExposeHeaders: []string{"X-Request-Id", "X-Trace-Id"},
	}
	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	switch {
	case len(cleaned) == 0:
		cfg.AllowOrigins = defaultDevOrigins
		cfg.AllowCredentials = true
	case len(cleaned) == 1 && cleaned[0] == "*":
		cfg.AllowAllOrigins = true
	default:
		cfg.AllowOrigins = cleaned
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
