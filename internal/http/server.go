package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
	srv    *http.Server
}

func NewServer(cfg RouterConfig) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Engine: NewRouter(cfg), log: log}
}

// Run serves until ctx is canceled, then drains in-flight requests for up to
// shutdownTimeout. Provider calls can take a minute, so callers should size it above that.
func (s *Server) Run(ctx context.Context, address string, shutdownTimeout time.Duration) error {
	s.srv = &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "address", address)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("HTTP server shutting down", "timeout", shutdownTimeout.String())
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
