package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/listen"
	"github.com/marmos91/fstore/pkg/objectstore"
)

// Server is the HTTP front end over an ObjectStore, implementing spec.md
// §6's full route table via NewRouter. It binds either a TCP port or a Unix
// domain socket, chosen by Listen, and supports graceful shutdown.
type Server struct {
	server       *http.Server
	listen       listen.Config
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server over store. The server is created
// in a stopped state; call Start to begin serving requests.
func NewServer(config APIConfig, listenCfg listen.Config, store *objectstore.ObjectStore, version string) *Server {
	config.applyDefaults()

	router := NewRouter(store, version)

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		listen: listenCfg,
		config: config,
	}
}

// Start binds the configured listener and serves until ctx is cancelled or
// an error occurs. On cancellation it performs a bounded graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := listen.Listen(s.listen)
	if err != nil {
		return fmt.Errorf("API server failed to bind: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "address", s.listen.Address, "unix", s.listen.Unix)

		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}
