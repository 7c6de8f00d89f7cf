package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vijaygopalbalasa/ZKRisk/internal/usecase"
	"github.com/vijaygopalbalasa/ZKRisk/pkg/config"
	xhttp "github.com/vijaygopalbalasa/ZKRisk/pkg/http"
	applogger "github.com/vijaygopalbalasa/ZKRisk/pkg/logger"
)

// App encapsulates the application lifecycle: the price collector, the HTTP
// server, and graceful shutdown.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.PriceCollector
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, collector *usecase.PriceCollector, handler xhttp.Handler) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.collector.Start(ctx); err != nil {
		a.log.Error("collector start failed", applogger.Error(err))
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		_ = a.collector.Stop()
		return err
	}
	a.log.Info("service started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Pyth.Symbols),
		applogger.String("strategy", a.cfg.Risk.Strategy))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops the collector first so no new samples land while the HTTP
// server drains.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Stop(); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.log.Info("shutdown complete")
	return nil
}
