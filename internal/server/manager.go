// Package server hosts the serve-mode HTTP API: scan lifecycle, websocket
// log streaming, token issuing, and the probe endpoints.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/BaSui01/webqa/api/handlers"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/internal/metrics"
	"github.com/BaSui01/webqa/internal/store"
)

// maxConns bounds concurrent connections; the host fronts a single-scan
// worker, so a small cap is fine.
const maxConns = 256

// Manager owns the serve-mode HTTP server lifecycle.
type Manager struct {
	server   *http.Server
	listener net.Listener
	errCh    chan error
	cfg      config.ServerConfig
	logger   *zap.Logger
	mu       sync.Mutex
	closed   bool
}

// NewManager builds the manager around an assembled handler.
func NewManager(handler http.Handler, cfg config.ServerConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return &Manager{
		server: server,
		errCh:  make(chan error, 1),
		cfg:    cfg,
		logger: logger.With(zap.String("component", "http_server")),
	}
}

// Start begins listening without blocking.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("server is closed")
	}
	if m.listener != nil {
		return fmt.Errorf("server already started")
	}

	listener, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.cfg.Addr, err)
	}
	m.listener = netutil.LimitListener(listener, maxConns)

	m.logger.Info("starting HTTP server", zap.String("addr", m.cfg.Addr))
	go m.serve(m.listener)
	return nil
}

func (m *Manager) serve(listener net.Listener) {
	if err := m.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		m.logger.Error("HTTP server failed", zap.Error(err))
		select {
		case m.errCh <- err:
		default:
		}
	}
}

// Shutdown drains in-flight requests and stops the server.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("shutting down HTTP server")

	timeout := m.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	m.listener = nil
	m.logger.Info("HTTP server stopped")
	return nil
}

// WaitForShutdown blocks until SIGINT/SIGTERM or a fatal server error, then
// shuts down gracefully.
func (m *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		m.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-m.errCh:
		if err != nil {
			m.logger.Error("server exited unexpectedly", zap.Error(err))
		}
	}

	if err := m.Shutdown(context.Background()); err != nil {
		m.logger.Error("shutdown error", zap.Error(err))
	}
}

// Errors returns asynchronous server errors.
func (m *Manager) Errors() <-chan error {
	return m.errCh
}

// Addr returns the bound listen address, useful with ":0".
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// NewRouter assembles the serve-mode HTTP surface: the authenticated scan
// API, the websocket log stream, and the unauthenticated probe endpoints.
func NewRouter(cfg config.ServerConfig, st *store.Store, hub *handlers.Hub, collector *metrics.Collector, version string, logger *zap.Logger) http.Handler {
	scans := handlers.NewScansHandler(st, hub, cfg.ScanBinary, logger)
	logs := handlers.NewLogsHandler(hub, logger)
	token := handlers.NewTokenHandler(cfg.JWTSecret, cfg.TokenTTL, logger)

	auth := handlers.Auth(cfg.APIKey, cfg.JWTSecret, logger)
	limit := handlers.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	observe := handlers.Observe(collector)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/scans", auth(http.HandlerFunc(scans.Create)))
	mux.Handle("GET /api/v1/scans", auth(http.HandlerFunc(scans.List)))
	mux.Handle("GET /api/v1/logs", auth(logs))
	mux.Handle("POST /api/v1/token", auth(token))
	mux.Handle("GET /healthz", handlers.Health(version))
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe(limit(mux))
}
