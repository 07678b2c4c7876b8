package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ServerConfig controls the listener and its timeouts
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the settings used when none are configured
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:        8080,
		ReadTimeout: 15 * time.Second,
		// hijacked WebSocket connections manage their own deadlines
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server serves the quiz API. Hijacked subscription connections are invisible
// to http.Server.Shutdown, so owners of long-lived connections register a
// hook with OnShutdown to drop them.
type Server struct {
	server *http.Server
	logger *slog.Logger
	config ServerConfig

	hooks sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server for handler. Nothing listens until Listen or Start.
func NewServer(handler http.Handler, config ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		logger: logger,
		config: config,
	}
}

// OnShutdown registers fn to run when Shutdown begins. Shutdown waits for
// every hook before returning, bounded by the shutdown timeout.
func (s *Server) OnShutdown(name string, fn func()) {
	var once sync.Once
	s.hooks.Add(1)
	s.server.RegisterOnShutdown(func() {
		once.Do(func() {
			defer s.hooks.Done()
			s.logger.Info("running shutdown hook", slog.String("hook", name))
			fn()
		})
	})
}

// Listen binds the configured address. With port 0 the kernel picks one; Addr reports it.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Start serves requests until Shutdown, binding first if Listen was not called
func (s *Server) Start() error {
	ln := s.bound()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		ln = s.bound()
	}

	s.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, runs the shutdown hooks and waits for
// in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	if ln := s.bound(); ln != nil {
		// Serve closes its listener itself; this covers Listen without Start
		_ = ln.Close()
	}

	hooksDone := make(chan struct{})
	go func() {
		s.hooks.Wait()
		close(hooksDone)
	}()
	select {
	case <-hooksDone:
	case <-shutdownCtx.Done():
		s.logger.Warn("shutdown hooks did not finish in time")
	}

	if err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) bound() net.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// Addr returns the bound address once listening, else the configured one
func (s *Server) Addr() string {
	if ln := s.bound(); ln != nil {
		return ln.Addr().String()
	}
	return s.server.Addr
}
