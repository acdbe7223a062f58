package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	httpserver "github.com/yungbote/spiritanimal-backend/internal/http"
	httpH "github.com/yungbote/spiritanimal-backend/internal/http/handlers"
	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

const shutdownFlushTimeout = 5 * time.Second

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *httpserver.Server

	otelShutdown func(context.Context) error
}

// New loads configuration and wires every dependency. Missing provider credentials
// do not fail startup.
func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return NewWithConfig(ctx, log, cfg)
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Observability.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.Observability.OtelEndpoint,
		Headers:     observability.ParseHeaders(cfg.Observability.OtelHeaders),
		Insecure:    cfg.Observability.OtelInsecure,
		SampleRatio: cfg.Observability.OtelSampleRatio,
	})
	metrics := observability.Init(log, cfg.Observability.MetricsEnabled)

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	serviceset, err := wireServices(log, cfg, clientset)
	if err != nil {
		_ = clientset.Close()
		log.Sync()
		return nil, err
	}

	creds := cfg.CredentialStatus()
	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	serviceName := ""
	if cfg.Observability.OtelEnabled {
		serviceName = cfg.ServiceName
	}
	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:           log,
		ServiceName:   serviceName,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		MaxBodyBytes:  cfg.HTTP.MaxRequestBytes,
		Metrics:       metrics,
		SpiritHandler: httpH.NewSpiritHandler(log, serviceset.Pipeline),
		HealthHandler: httpH.NewHealthHandler(httpH.CredentialStatus{
			OpenAI:    creds.OpenAI,
			Gemini:    creds.Gemini,
			Ideogram:  creds.Ideogram,
			Twitter:   creds.Twitter,
			ImageHost: clientset.Uploader != nil,
		}, serviceset.LLM.Name()),
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clientset,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, a.Cfg.HTTP.Addr, a.Cfg.HTTP.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if err := a.Clients.Close(); err != nil && a.Log != nil {
		a.Log.Warn("Closing clients failed", "error", err)
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
