// Package server exposes the chat orchestrator over HTTP: a complete
// endpoint, an SSE streaming endpoint, the model catalog, health and
// metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatgate/internal/chat"
	"chatgate/internal/core"
	"chatgate/internal/version"
)

const (
	maxBodyBytes        = "1M"
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second
)

// Config holds the HTTP listener settings.
type Config struct {
	Host string
	Port int
}

// Server wires the chat service into an echo application.
type Server struct {
	cfg    Config
	svc    *chat.Service
	app    *echo.Echo
	logger *slog.Logger
}

// New constructs the HTTP server with routing and middleware.
func New(cfg Config, svc *chat.Service, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("chat service must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{cfg: cfg, svc: svc, app: e, logger: logger}
	e.HTTPErrorHandler = srv.handleError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodyBytes))
	e.Use(requestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", core.RequestID(c.Request().Context()),
				"error", v.Error,
			)
			return nil
		},
	}))

	srv.registerRoutes()
	return srv, nil
}

// requestID assigns each request a UUID, propagated through the request
// context and echoed in the response header.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			ctx := core.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	v1.POST("/chat", s.handleChat)
	v1.POST("/chat/stream", s.handleStreamChat)
	v1.GET("/chat/models", s.handleModels)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the listener and blocks until ctx is cancelled or the server
// fails. The write timeout stays unset so SSE responses can outlive it.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("starting server", "addr", addr, "version", version.Version)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.app,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

// handleError maps typed gateway errors onto their status and envelope;
// anything else becomes an opaque 500. Committed responses (SSE underway)
// are left alone.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var gwErr *core.GatewayError
	if errors.As(err, &gwErr) {
		if err := c.JSON(gwErr.HTTPStatusCode(), gwErr.ToJSON()); err != nil {
			s.logger.Error("writing error response failed", "error", err)
		}
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.Code, map[string]any{
			"error": map[string]any{
				"code":    fmt.Sprintf("HTTP_%d", httpErr.Code),
				"message": fmt.Sprintf("%v", httpErr.Message),
			},
		})
		return
	}

	s.logger.Error("unhandled error", "error", err)
	_ = c.JSON(http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"code":    "INTERNAL_001",
			"message": "Internal server error",
		},
	})
}
