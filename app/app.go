// Package app ties config, server, metrics, and process lifecycle together.
package app

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karics-io/karics/config"
	"github.com/karics-io/karics/core"
	"github.com/karics-io/karics/metrics"
)

// App is one server process: the engine listener, the optional admin
// endpoint, and signal-driven graceful shutdown.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	server  *core.Server
	metrics *metrics.ServerMetrics
	admin   *nethttp.Server
}

// New wires an application around factory. A nil cfg uses the defaults.
func New(cfg *config.Config, factory core.ServiceFactory) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	log := slog.Default().With("component", "karics")
	m := metrics.New()

	return &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
		server:  core.NewServer(cfg, factory, core.WithLogger(log), core.WithCollector(m)),
	}
}

// Server returns the underlying engine server.
func (a *App) Server() *core.Server {
	return a.server
}

// Metrics returns the application's metric collectors, so callers can
// register their own on the same registry.
func (a *App) Metrics() *metrics.ServerMetrics {
	return a.metrics
}

// Run starts the engine and the admin endpoint, then blocks until the
// server stops. SIGINT/SIGTERM trigger graceful shutdown; a clean shutdown
// returns nil.
func (a *App) Run() error {
	if err := a.server.Start(a.cfg.Addr); err != nil {
		return err
	}
	if a.cfg.AdminAddr != "" {
		a.startAdmin()
	}
	go a.awaitSignal()

	err := a.server.Wait()
	if errors.Is(err, core.ErrServerClosed) {
		return nil
	}
	return err
}

// startAdmin serves /metrics and /healthz on a plain net/http mux. The
// admin plane is deliberately separate from the engine's data plane.
func (a *App) startAdmin() {
	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		w.Write([]byte("ok"))
	})

	a.admin = &nethttp.Server{Addr: a.cfg.AdminAddr, Handler: mux}
	a.log.Info("admin endpoint listening", "addr", a.cfg.AdminAddr)
	go func() {
		if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			a.log.Error("admin endpoint failed", "err", err)
		}
	}()
}

func (a *App) awaitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	a.log.Info("shutting down", "signal", sig.String())
	timeout := time.Duration(a.cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.admin != nil {
		a.admin.Shutdown(ctx)
	}
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Warn("forcing close, connections did not drain", "err", err)
		a.server.Close()
	}
}
