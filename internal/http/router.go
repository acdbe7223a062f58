package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/spiritanimal-backend/internal/http/handlers"
	httpMW "github.com/yungbote/spiritanimal-backend/internal/http/middleware"
	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	ServiceName  string
	CORSOrigins  []string
	MaxBodyBytes int64
	Metrics      *observability.Metrics

	SpiritHandler *httpH.SpiritHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.MaxBodyBytes > 0 {
		r.Use(httpMW.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.HealthCheck)
		}
		if cfg.SpiritHandler != nil {
			api.POST("/spirit-animal", cfg.SpiritHandler.GenerateV1)
			api.POST("/v2/spirit-animal", cfg.SpiritHandler.GenerateV2)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "not found", "code": "not_found", "kind": "invalid_request"}})
	})

	return r
}
