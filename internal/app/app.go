package app

import (
	"context"
	"fmt"
	"time"

	apphttp "github.com/yungbote/learnpath-backend/internal/http"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  *Clients
	Services Services
	Metrics  *observability.Metrics

	server    *apphttp.Server
	otelClose func(context.Context) error
}

// New builds the process from cfg. The caller owns the App and must Close it.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("app: logger required")
	}

	otelClose := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Observability.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
		Endpoint:    cfg.Observability.OtelEndpoint,
		Insecure:    cfg.Observability.OtelInsecure,
		Headers:     observability.ParseHeaders(cfg.Observability.OtelHeaders),
		SampleRatio: cfg.Observability.SampleRatio,
	})
	metrics := observability.Init(log, cfg.Observability.MetricsEnabled)

	clients, err := wireClients(ctx, log, cfg.Source)
	if err != nil {
		_ = otelClose(ctx)
		return nil, err
	}

	serviceset := wireServices(log, cfg, clients, metrics)
	handlerset, err := wireHandlers(log, serviceset)
	if err != nil {
		clients.Close(ctx)
		_ = otelClose(ctx)
		return nil, err
	}
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:       log,
		Cfg:       cfg,
		Clients:   clients,
		Services:  serviceset,
		Metrics:   metrics,
		server:    server,
		otelClose: otelClose,
	}, nil
}

// Run serves HTTP and the metrics collectors until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	interval := a.Cfg.Observability.CollectInterval.Duration
	a.Metrics.StartSourceCollector(ctx, a.Log, a.Clients.Kind, interval, a.Clients.Source.Ping)
	a.Metrics.StartPostgresCollector(ctx, a.Clients.Postgres.PgxPool(), interval)

	a.Log.Info("HTTP server listening", "addr", a.server.Addr(), "source", a.Clients.Kind)
	err := a.server.Run(ctx, a.Cfg.HTTP.ShutdownTimeout.Duration)
	if err != nil {
		a.Log.Error("HTTP server stopped", "error", err)
		return err
	}
	a.Log.Info("HTTP server stopped")
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Clients.Close(ctx)
	if a.otelClose != nil {
		if err := a.otelClose(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
