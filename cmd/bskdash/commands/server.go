package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevaops/bskdash/analytics"
	"github.com/sevaops/bskdash/config"
	"github.com/sevaops/bskdash/dataset"
	"github.com/sevaops/bskdash/db"
	"github.com/sevaops/bskdash/errors"
	"github.com/sevaops/bskdash/logger"
	"github.com/sevaops/bskdash/server"
)

// ServerCmd starts the dashboard API server
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the BSK training-optimization API server",
	Long: `Launch the dashboard API. Entity endpoints serve from the configured
backend (flat files or the relational store); analytics always runs over the
cached dataset snapshot.`,
	RunE: runServer,
}

var (
	serverPort    int
	serverBackend string
	serverDataDir string
	serverDBPath  string
	serverDevMode bool
)

func init() {
	ServerCmd.Flags().IntVar(&serverPort, "port", 0, "Listen port (overrides config)")
	ServerCmd.Flags().StringVar(&serverBackend, "backend", "", "Data backend: file or sql (overrides config)")
	ServerCmd.Flags().StringVar(&serverDataDir, "data-dir", "", "Flat-file data directory (overrides config)")
	ServerCmd.Flags().StringVar(&serverDBPath, "db-path", "", "SQLite database path (overrides config)")
	ServerCmd.Flags().BoolVar(&serverDevMode, "dev", false, "Enable development mode (permissive CORS)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	// Flag overrides
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	if serverBackend != "" {
		cfg.Data.Backend = serverBackend
	}
	if serverDataDir != "" {
		cfg.Data.Dir = serverDataDir
	}
	if serverDBPath != "" {
		cfg.Database.Path = serverDBPath
	}

	srv, cleanup, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Hot-reload the CORS allow-list when the project config file changes.
	if configPath := config.ProjectConfigPath(); configPath != "" {
		watcher, err := config.NewWatcher(configPath)
		if err != nil {
			logger.Warnw("Config watcher unavailable", "path", configPath, "error", err)
		} else {
			watcher.OnReload(srv.OnConfigReload)
			watcher.Start()
			defer watcher.Stop()
		}
	}

	printStartupBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// buildServer is the composition root: it wires backend, cache, reader, and
// orchestrator for the configured mode and hands them to the server.
func buildServer(cfg *config.Config) (*server.Server, func(), error) {
	log := logger.Logger
	cleanup := func() {}

	var (
		backend dataset.Backend
		reader  server.DataReader
	)

	switch cfg.Data.Backend {
	case config.BackendFile:
		candidates := config.DataDirCandidates
		if cfg.Data.Dir != "" {
			candidates = append([]string{cfg.Data.Dir}, candidates...)
		}
		dir := dataset.ResolveDataDir(candidates, log)
		fileBackend := dataset.NewFileBackend(dir, log)
		backend = fileBackend

	case config.BackendSQL:
		database, err := db.Open(cfg.Database.Path, log)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to open database at %s", cfg.Database.Path)
		}
		if err := db.Migrate(database, log); err != nil {
			database.Close()
			return nil, nil, errors.Wrapf(err, "failed to run migrations on %s", cfg.Database.Path)
		}
		cleanup = func() { database.Close() }
		store := dataset.NewSQLStore(database, log)
		backend = dataset.NewSQLBackend(store)
		reader = store

	default:
		return nil, nil, errors.Newf("unknown data backend %q (expected %q or %q)",
			cfg.Data.Backend, config.BackendFile, config.BackendSQL)
	}

	cache := dataset.NewCache(backend, log)
	if reader == nil {
		reader = server.NewSnapshotReader(cache)
	}

	orchestrator := analytics.NewOrchestrator(cache, analytics.CompletionScorer{}, log)

	srv := server.New(server.Options{
		Reader:         reader,
		Cache:          cache,
		Orchestrator:   orchestrator,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DevMode:        serverDevMode,
		Logger:         log,
	})
	return srv, cleanup, nil
}
