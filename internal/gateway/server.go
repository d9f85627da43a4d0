// Package gateway exposes the chat service over HTTP.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ravanos/chatd/internal/agent"
	"github.com/ravanos/chatd/internal/config"
	"github.com/ravanos/chatd/internal/logging"
	"github.com/ravanos/chatd/internal/store"
	"github.com/ravanos/chatd/internal/version"
)

// chatTimeout bounds one full conversation cycle, tool rounds included.
const chatTimeout = 5 * time.Minute

// Server is the chatd HTTP API server.
type Server struct {
	cfg    config.GatewayConfig
	log    *logging.Logger
	runner *agent.Runner
	store  store.SessionStore

	startedAt  time.Time
	httpServer *http.Server
}

// New creates an API server over the given runner and store.
func New(cfg config.GatewayConfig, runner *agent.Runner, st store.SessionStore, log *logging.Logger) *Server {
	return &Server{
		cfg:    cfg,
		log:    log.Sub("gateway"),
		runner: runner,
		store:  st,
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	}
}

// Start begins listening for HTTP connections. It blocks until the context
// is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: chatTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("version", version.Version).
		Msg("chat backend starting")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
