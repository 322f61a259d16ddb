package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FinAudit/internal/handler/ws"
	"FinAudit/pkg/config"
	xhttp "FinAudit/pkg/http"
	pkgkafka "FinAudit/pkg/kafka"
	applogger "FinAudit/pkg/logger"
	"FinAudit/pkg/scheduler"
)

// Option attaches an optional component to App.
type Option func(*App)

// WithConsumer runs consumer with handler registered. A nil consumer is ignored.
func WithConsumer(consumer *pkgkafka.Consumer, handler pkgkafka.MessageHandler) Option {
	return func(a *App) {
		if consumer != nil {
			a.consumer = consumer
			a.handler = handler
		}
	}
}

func WithScheduler(s *scheduler.Scheduler) Option {
	return func(a *App) { a.sched = s }
}

func WithHub(h *ws.FindingsHub) Option {
	return func(a *App) { a.hub = h }
}

// App encapsulates the application lifecycle. Connections to external
// systems are owned by the DI cleanup; App starts and stops the runtime parts.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	handler    pkgkafka.MessageHandler
	sched      *scheduler.Scheduler
	hub        *ws.FindingsHub
}

func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	a := &App{cfg: cfg, l: l, httpServer: httpServer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every component and blocks until a signal arrives or the HTTP
// listener fails.
func (a *App) Run() error {
	if a.consumer != nil && a.handler != nil {
		a.consumer.RegisterHandler(a.handler)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("snapshot consumer started", applogger.String("topic", a.handler.Topic()))
	}

	if a.sched != nil {
		a.sched.Start()
	}

	if err := a.httpServer.Start(); err != nil {
		a.shutdown()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.l.Info("shutdown signal received", applogger.String("signal", sig.String()))
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	}

	a.shutdown()
	return runErr
}

// shutdown stops intake first: schedule, HTTP, then the consumer.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.l.Info("shutting down")

	if a.sched != nil {
		a.sched.Stop(ctx)
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.hub != nil {
		a.hub.Close()
	}

	a.l.Info("shutdown complete")
}
