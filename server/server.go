// Package server implements the bskdash HTTP API: CRUD reads over the four
// reference collections, the underperforming-BSK analytics endpoint, health,
// and caller-driven dataset reload.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sevaops/bskdash/analytics"
	"github.com/sevaops/bskdash/config"
	"github.com/sevaops/bskdash/dataset"
)

// Server owns every collaborator explicitly; there are no ambient globals.
// The composition root (cmd/bskdash) constructs it once and passes it the
// cache, reader, and orchestrator it should serve from.
type Server struct {
	reader       DataReader
	cache        *dataset.Cache
	orchestrator *analytics.Orchestrator
	logger       *zap.SugaredLogger

	devMode bool

	originMu       sync.RWMutex
	allowedOrigins []string

	httpServer *http.Server
}

// Options configures a Server.
type Options struct {
	Reader         DataReader
	Cache          *dataset.Cache
	Orchestrator   *analytics.Orchestrator
	AllowedOrigins []string
	DevMode        bool
	Logger         *zap.SugaredLogger
}

// New creates a Server. The reader serves entity endpoints (snapshot-backed
// in file mode, direct SQL in sql mode); the cache backs analytics, health,
// and reload regardless of mode.
func New(opts Options) *Server {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		reader:         opts.Reader,
		cache:          opts.Cache,
		orchestrator:   opts.Orchestrator,
		allowedOrigins: origins,
		devMode:        opts.DevMode,
		logger:         opts.Logger,
	}
}

// SetAllowedOrigins replaces the CORS allow-list. Used by the config
// watcher's reload callback.
func (s *Server) SetAllowedOrigins(origins []string) {
	s.originMu.Lock()
	defer s.originMu.Unlock()
	s.allowedOrigins = origins
}

// OnConfigReload is a config.ReloadCallback applying hot-reloadable settings.
func (s *Server) OnConfigReload(cfg *config.Config) error {
	s.SetAllowedOrigins(cfg.Server.AllowedOrigins)
	s.logger.Infow("Applied reloaded server config",
		"allowed_origins", cfg.Server.AllowedOrigins)
	return nil
}

// Start begins serving on the given port. It pre-warms the dataset cache in
// the background; a pre-warm failure degrades to on-demand loading rather
// than failing startup.
func (s *Server) Start(port int) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, err := s.cache.Get(ctx); err != nil {
			s.logger.Warnw("Dataset pre-warm failed; loading on demand",
				"backend", s.cache.Backend(),
				"error", err)
		}
	}()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Infow("Starting bskdash API",
		"port", port,
		"backend", s.cache.Backend(),
		"dev_mode", s.devMode)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Infow("Shutting down bskdash API")
	return s.httpServer.Shutdown(ctx)
}
