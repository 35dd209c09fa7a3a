package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"smart-response/ratelimit"
	"smart-response/web/handlers"
	"smart-response/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// ServerDeps are the collaborators behind the HTTP API. Interactions and
// Limiter are optional; Gatherer defaults to the Prometheus default registry.
type ServerDeps struct {
	Responder    handlers.Responder
	Interactions handlers.InteractionLister
	Limiter      *ratelimit.Limiter
	Gatherer     prometheus.Gatherer
	Logger       *zap.Logger
}

type Server struct {
	router *gin.Engine
	deps   ServerDeps
	logger *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	gin.SetMode(gin.ReleaseMode)

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))

	server := &Server{
		router: router,
		deps:   deps,
		logger: deps.Logger,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	messageHandler := handlers.NewMessageHandler(s.deps.Responder, s.logger)
	interactionHandler := handlers.NewInteractionHandler(s.deps.Interactions, s.logger)

	s.router.GET("/healthz", handlers.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	api.POST("/match", messageHandler.Match)
	api.GET("/interactions", interactionHandler.List)

	limited := api.Group("", middleware.RateLimitMiddleware(s.deps.Limiter))
	limited.POST("/messages", messageHandler.PostMessage)
	limited.POST("/sessions/next", messageHandler.NextStep)
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server failed to start", zap.Error(err))
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
