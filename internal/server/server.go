package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/mcpbridge/internal/app"
	"github.com/bobmcallan/mcpbridge/internal/bridge"
	"github.com/bobmcallan/mcpbridge/internal/common"
)

// Server manages the HTTP server and routes. It implements bridge.Host:
// the bridge replays tool calls through Handler, mounts its MCP surface via
// Mount, and ties protocol shutdown to the stop hooks.
type Server struct {
	app     *app.App
	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
	logger  *common.Logger

	routes     []bridge.Route
	startHooks []func() error
	stopHooks  []func(ctx context.Context) error
}

// New creates a new HTTP server with the given app.
func New(application *app.App) *Server {
	s := &Server{
		app:    application,
		logger: application.Logger,
		mux:    http.NewServeMux(),
	}

	s.setupRoutes()
	s.handler = s.withMiddleware(s.mux)

	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // 5 min: bridged tool calls can take minutes
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// route registers a handler together with its bridge metadata. Routes
// registered this way are enumerable by the bridge for tool conversion.
func (s *Server) route(r bridge.Route, h http.HandlerFunc) {
	s.mux.HandleFunc(r.Method+" "+r.Path, h)
	s.routes = append(s.routes, r)
}

// Routes returns the metadata of every bridge-enumerable route.
func (s *Server) Routes() []bridge.Route {
	out := make([]bridge.Route, len(s.routes))
	copy(out, s.routes)
	return out
}

// Handler returns the middleware-wrapped root handler. The bridge replays
// requests through it in-process.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Mount attaches a sub-handler at the given path prefix, stripping the
// prefix from the request path on every call.
func (s *Server) Mount(prefix string, h http.Handler) {
	stripped := http.StripPrefix(prefix, h)
	s.mux.Handle(prefix, stripped)
	s.mux.Handle(prefix+"/", stripped)
}

// OnStart registers a hook run before the server begins serving.
func (s *Server) OnStart(fn func() error) {
	s.startHooks = append(s.startHooks, fn)
}

// OnStop registers a hook run during graceful shutdown.
func (s *Server) OnStop(fn func(ctx context.Context) error) {
	s.stopHooks = append(s.stopHooks, fn)
}

// Start runs the start hooks and starts the HTTP server.
func (s *Server) Start() error {
	for _, fn := range s.startHooks {
		if err := fn(); err != nil {
			return fmt.Errorf("start hook failed: %w", err)
		}
	}

	s.logger.Info().
		Str("address", s.server.Addr).
		Str("url", fmt.Sprintf("http://%s", s.server.Addr)).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server and runs the stop hooks.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	for _, fn := range s.stopHooks {
		if err := fn(ctx); err != nil {
			s.logger.Warn().Str("error", err.Error()).Msg("stop hook failed")
		}
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
