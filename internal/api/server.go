package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
	"github.com/varoOP/shelfdb/internal/session"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// Server wraps the gin engine in an http.Server with sane timeouts.
type Server struct {
	log        zerolog.Logger
	httpServer *http.Server
}

// NewServer builds the router, middleware chain and routes.
func NewServer(log zerolog.Logger, cfg *domain.Config, handler *Handler, sessions *session.Manager, verifier domain.IdentityVerifier) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestLogger(log),
		Sessions(sessions, cfg.SessionCookie, cfg.SessionTTL, cfg.SessionSecure),
		Identity(verifier, sessions),
	)

	SetupRoutes(router, handler)

	return &Server{
		log: log.With().Str("module", "server").Logger(),
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
	}
}

// SetupRoutes configures the API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/search", handler.Search)
		api.GET("/local-search", handler.LocalSearch)
		api.POST("/cache", handler.CacheIngest)
		api.POST("/books", handler.SaveBook)
		api.GET("/books", handler.ListSavedBooks)
		api.GET("/me", handler.Me)
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
