// Package server is the development server behind "htmlinject serve". It
// serves the output directory, mounts the live reload hub and splices the
// reload client into every HTML page it returns.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/htmlinject/internal/config"
	"github.com/conneroisu/htmlinject/internal/livereload"
	"github.com/conneroisu/htmlinject/internal/logging"
)

// Server serves one output directory.
type Server struct {
	root   string
	cfg    config.ServeConfig
	hub    *livereload.Hub
	logger logging.Logger

	httpServer  *http.Server
	listener    net.Listener
	serverMutex sync.RWMutex

	shutdownOnce sync.Once
}

// New creates a server for root. hub may be nil, in which case live reload
// is off regardless of cfg.
func New(root string, cfg config.ServeConfig, hub *livereload.Hub, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		root:   root,
		cfg:    cfg,
		hub:    hub,
		logger: logger.WithComponent("server"),
	}
}

func (s *Server) liveReload() bool {
	return s.cfg.LiveReload && s.hub != nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(s.logRequests)

	r.Get("/__health", s.handleHealth)
	if s.liveReload() {
		r.Handle(livereload.Path, s.hub)
	}
	r.Get("/*", s.handleStatic)
	r.Head("/*", s.handleStatic)

	return r
}

// Listen binds the configured address. Port 0 picks a free port.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.serverMutex.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serverMutex.Unlock()
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves until ctx is cancelled or Shutdown is called. It calls Listen
// first when that has not happened yet.
func (s *Server) Start(ctx context.Context) error {
	if s.Addr() == "" {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.serverMutex.RLock()
	server, ln := s.httpServer, s.listener
	s.serverMutex.RUnlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "Server shutdown incomplete")
		}
	}()

	s.logger.Info(ctx, "Serving", "url", "http://"+ln.Addr().String(), "root", s.root, "live_reload", s.liveReload())
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown disconnects live reload clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.hub != nil {
			s.hub.Shutdown()
		}

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})
	return shutdownErr
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
