package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"chatgate/internal/core"
	"chatgate/internal/observability"
	"chatgate/internal/version"
)

// handleChat serves the complete (non-streaming) surface. Requests carrying
// stream=true belong on the streaming endpoint and are rejected outright.
func (s *Server) handleChat(c echo.Context) error {
	var req core.ChatRequest
	if err := c.Bind(&req); err != nil {
		return core.NewValidationError("invalid request body: " + err.Error())
	}
	if req.Stream {
		return core.NewFormatError("Streaming requested on the complete endpoint; use /v1/chat/stream")
	}

	start := time.Now()
	resp, err := s.svc.Chat(c.Request().Context(), &req)
	observability.ChatRequestDuration.
		WithLabelValues(req.Model.Provider, "complete").
		Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ChatRequestsTotal.WithLabelValues(req.Model.Provider, "complete", "error").Inc()
		return err
	}

	observability.ChatRequestsTotal.WithLabelValues(req.Model.Provider, "complete", "success").Inc()
	return c.JSON(http.StatusOK, resp)
}

// handleStreamChat serves the SSE surface. Validation and client
// construction failures still produce a plain HTTP error; after the first
// event is written all failures arrive as terminal error events.
func (s *Server) handleStreamChat(c echo.Context) error {
	var req core.ChatRequest
	if err := c.Bind(&req); err != nil {
		return core.NewValidationError("invalid request body: " + err.Error())
	}

	ctx := c.Request().Context()
	start := time.Now()
	events, err := s.svc.StreamChat(ctx, &req)
	if err != nil {
		observability.ChatRequestsTotal.WithLabelValues(req.Model.Provider, "stream", "error").Inc()
		return err
	}

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set(echo.HeaderCacheControl, "no-cache")
	h.Set(echo.HeaderConnection, "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	observability.ActiveStreams.Inc()
	defer observability.ActiveStreams.Dec()

	outcome := "success"
	for ev := range events {
		if err := writeSSE(c, ev); err != nil {
			// client went away; cancelling the request context has already
			// begun tearing down the producer
			s.logger.Debug("stream write failed", "error", err)
			observability.ChatRequestsTotal.WithLabelValues(req.Model.Provider, "stream", "disconnect").Inc()
			return nil
		}
		observability.StreamEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		if ev.Type == core.EventError {
			outcome = "error"
		}
	}

	observability.ChatRequestDuration.
		WithLabelValues(req.Model.Provider, "stream").
		Observe(time.Since(start).Seconds())
	observability.ChatRequestsTotal.WithLabelValues(req.Model.Provider, "stream", outcome).Inc()
	return nil
}

// writeSSE renders one protocol event as an SSE frame and flushes it.
func writeSSE(c echo.Context, ev core.StreamEvent) error {
	data, err := ev.Data()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

// handleModels serves the static provider and model catalog.
func (s *Server) handleModels(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Models())
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   version.Version,
		"timestamp": time.Now().UTC(),
	})
}
