package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP front end of the artifact cache.
type Server struct {
	ports *Ports
	cfg   domain.ServerConfig
	mux   *http.ServeMux

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// NewServer creates a server for the given ports and endpoint.
func NewServer(ports *Ports, cfg domain.ServerConfig) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating server config: %w", err)
	}

	s := &Server{
		ports: ports,
		cfg:   cfg,
		mux:   http.NewServeMux(),
	}

	base := cfg.Path()
	s.mux.HandleFunc("GET "+base, s.handleArtifacts)
	s.mux.HandleFunc("GET "+base+"/_status", s.handleStatus)
	s.mux.HandleFunc("GET "+base+"/_events", s.handleEvents)

	return s, nil
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Listen binds the configured address. Port 0 picks a free port.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln
	return nil
}

// URL returns the endpoint URL. Valid after Listen.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	host := s.cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	port := s.cfg.Port
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
	}
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(host, fmt.Sprint(port)), s.cfg.Path())
}

// Serve handles requests until ctx is cancelled, then shuts down gracefully.
// It listens first if Listen has not been called.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	ln := s.listener
	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Debug("Server listening on %s", s.URL())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
