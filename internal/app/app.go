package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/api"
	"github.com/varoOP/shelfdb/internal/config"
	"github.com/varoOP/shelfdb/internal/database"
	"github.com/varoOP/shelfdb/internal/domain"
	"github.com/varoOP/shelfdb/internal/googlebooks"
	"github.com/varoOP/shelfdb/internal/identity"
	"github.com/varoOP/shelfdb/internal/logger"
	"github.com/varoOP/shelfdb/internal/memcache"
	"github.com/varoOP/shelfdb/internal/quota"
	"github.com/varoOP/shelfdb/internal/search"
	"github.com/varoOP/shelfdb/internal/session"
)

// shutdownTimeout bounds the HTTP drain on exit.
const shutdownTimeout = 15 * time.Second

// App represents the running service with all dependencies initialized
type App struct {
	log      zerolog.Logger
	config   *domain.Config
	db       *database.DB
	sessions *session.Manager
	search   search.Service
	server   *api.Server
}

// NewApp creates a new application instance with all dependencies initialized
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLoggerWithLevel(cfg.LogLevel)

	db, err := database.NewDB(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bookRepo := database.NewBookRepo(log, db)
	savedRepo := database.NewSavedBookRepo(log, db)

	cache := memcache.New(cfg.CacheTTL, cfg.CacheMaxEntries)
	tracker := quota.NewTracker(cfg.AnonSearchLimit)

	sessions := session.NewManager(cfg.SessionTTL, log)
	sessions.OnExpire(tracker.Forget)

	upstream := googlebooks.NewClient(log, cfg.UpstreamBaseURL, cfg.UpstreamTimeout, cfg.UpstreamRate)
	searchService := search.NewService(log, cfg, bookRepo, cache, tracker, upstream)

	verifier := identity.NewStaticVerifier(log, cfg.APITokens)
	handler := api.NewHandler(log, searchService, savedRepo, tracker, db)
	server := api.NewServer(log, cfg, handler, sessions, verifier)

	return &App{
		log:      log,
		config:   cfg,
		db:       db,
		sessions: sessions,
		search:   searchService,
		server:   server,
	}, nil
}

// Run serves HTTP until an interrupt or termination signal arrives, then
// drains requests, waits for in-flight background refreshes and closes the
// store.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("HTTP shutdown did not finish cleanly")
	}

	a.search.Close()
	a.sessions.Close()

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	a.log.Info().Msg("Shutdown complete")
	return nil
}
