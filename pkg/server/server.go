// Package server composes the proxy, control, and telemetry routes into one
// HTTP server with graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"beacon-hq/ferry/pkg/config"
	"beacon-hq/ferry/pkg/control"
	"beacon-hq/ferry/pkg/endpoint"
	"beacon-hq/ferry/pkg/history"
	"beacon-hq/ferry/pkg/proxy"
	"beacon-hq/ferry/pkg/proxy/middleware"
	"beacon-hq/ferry/pkg/relay"
	"beacon-hq/ferry/pkg/telemetry/metrics"
	"beacon-hq/ferry/pkg/telemetry/tracing"
)

// Server is the Ferry HTTP server. It owns the relay's prober lifecycle,
// the optional config watcher, and graceful shutdown.
type Server struct {
	cfg    *config.Config
	relay  *relay.Relay
	logger *slog.Logger

	proxyHandler   http.Handler
	controlHandler *control.Handler
	metricsHandler http.Handler

	configPath string

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Options carries the optional collaborators of a server.
type Options struct {
	// ConfigPath is the configuration file to watch when hot reload is
	// enabled. Empty disables watching regardless of configuration.
	ConfigPath string

	Logger  *slog.Logger
	Metrics *metrics.Collector
	Events  *history.Store
	Tracer  *tracing.Tracer
}

// NewServer creates a server around an already-built relay.
func NewServer(cfg *config.Config, rl *relay.Relay, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		relay:      rl,
		logger:     logger.With("component", "server"),
		configPath: opts.ConfigPath,
		proxyHandler: proxy.NewHandler(rl, proxy.Options{
			MaxBufferedBodyBytes: cfg.Proxy.MaxBufferedBodyBytes,
			Logger:               logger,
			Metrics:              opts.Metrics,
			Tracer:               opts.Tracer,
		}),
		controlHandler: control.NewHandler(rl, opts.Events, logger),
		shutdownChan:   make(chan struct{}),
	}
	if opts.Metrics != nil && (cfg.Telemetry.Metrics.Enabled == nil || *cfg.Telemetry.Metrics.Enabled) {
		s.metricsHandler = opts.Metrics.Handler()
	}
	return s
}

// Start starts the HTTP server, the relay probers, and the config watcher,
// then blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.relay.Start(runCtx)
	defer s.relay.Stop()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Proxy.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Proxy.ReadHeaderTimeout,
		IdleTimeout:       s.cfg.Proxy.IdleTimeout,
		MaxHeaderBytes:    s.cfg.Proxy.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting proxy server", "address", s.cfg.Proxy.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	if s.cfg.Proxy.WatchConfig && s.configPath != "" {
		go s.watchConfig(runCtx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server. In-flight proxy sessions get
// the configured shutdown timeout to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Proxy.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Proxy.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("proxy server stopped")
	})

	return shutdownErr
}

// Handler returns the full route and middleware composition.
//
// The health route sits outside the credential check so process supervisors
// can poll it without the key; everything else, including metrics and the
// control surface, sits behind it.
func (s *Server) Handler() http.Handler {
	inner := http.NewServeMux()
	inner.Handle("/", s.proxyHandler)
	inner.HandleFunc("/control/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	inner.HandleFunc("/control/status", s.controlHandler.Status)
	inner.HandleFunc("/control/reconfigure", s.controlHandler.Reconfigure)
	inner.HandleFunc("/control/events", s.controlHandler.Events)
	if s.metricsHandler != nil {
		inner.Handle("/metrics", s.metricsHandler)
	}

	authed := middleware.LocalAuth(s.cfg.Auth.Key)(inner)

	outer := http.NewServeMux()
	outer.HandleFunc("/healthz", s.handleHealthz)
	outer.Handle("/", authed)

	var handler http.Handler = outer
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)
	return handler
}

// handleHealthz reports process liveness. It says nothing about upstream
// health; that is what the status route is for.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// watchConfig reloads the endpoint list when the config file changes.
// Reload failures keep the running configuration.
func (s *Server) watchConfig(ctx context.Context) {
	watcher, err := config.NewWatcher(s.configPath, s.logger)
	if err != nil {
		s.logger.Error("failed to start config watcher", "error", err)
		return
	}

	err = watcher.Watch(ctx, func(cfg *config.Config) error {
		result, err := s.relay.Reconfigure(ctx, endpointDefinitions(cfg))
		if err != nil {
			return err
		}
		s.logger.Info("configuration reloaded from disk",
			"generation", result.Generation,
			"endpoints", len(result.Endpoints),
		)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		s.logger.Error("config watcher stopped", "error", err)
	}
}

// endpointDefinitions converts configured endpoints into registry input.
func endpointDefinitions(cfg *config.Config) []endpoint.Definition {
	defs := make([]endpoint.Definition, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		defs = append(defs, endpoint.Definition{
			Name:    ep.Name,
			BaseURL: ep.BaseURL,
			APIKey:  ep.APIKey,
			Order:   ep.Order,
			Model:   ep.Model,
		})
	}
	return defs
}

// IsRunning reports whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
