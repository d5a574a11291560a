package converterApp

import (
	"context"
	"github.com/langowen/converter/deploy/config"
	"github.com/langowen/converter/internal/converter/adapter/api_client/exchangerate"
	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/langowen/converter/internal/converter/ports/http/public"
	"github.com/langowen/converter/internal/converter/widget"
	"github.com/prometheus/client_golang/prometheus"
	"log"
	"log/slog"
	"net/http"
	"os"
)

type ConverterApp struct {
	cfg *config.Config
}

func NewConverterApp(cfg *config.Config) *ConverterApp {
	return &ConverterApp{cfg: cfg}
}

func (a *ConverterApp) Start(ctx context.Context) <-chan struct{} {
	a.initLogger()
	slog.Info("Logger initialized")

	slog.With("config", a.cfg).Info("starting server")

	httpClient := a.initHTTPClient()
	slog.Info("HTTP client initialized")

	m := metrics.New(prometheus.DefaultRegisterer)

	registry := a.initRegistry(ctx, httpClient, m)
	go registry.Run(ctx)
	slog.Info("Session registry initialized")

	serverDone := public.StartServer(ctx, registry, a.cfg)
	slog.Info("server started", "port", a.cfg.HTTPServer.Port)

	return serverDone
}

func (a *ConverterApp) initLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     a.cfg.SlogLevel(),
		AddSource: false,
	}))
	slog.SetDefault(logger)
}

func (a *ConverterApp) initHTTPClient() *exchangerate.HTTPClient {
	client, err := exchangerate.NewHTTPClient(
		a.cfg.Exchange.URL,
		a.cfg.Exchange.APIKey,
		&http.Client{Timeout: a.cfg.Exchange.Timeout},
	)
	if err != nil {
		log.Fatalln("Failed to initialize exchange rate client", "error", err)
	}

	return client
}

func (a *ConverterApp) initRegistry(ctx context.Context, client *exchangerate.HTTPClient, m *metrics.Metrics) *widget.Registry {
	return widget.NewRegistry(ctx, client, widget.Options{
		DefaultFrom:  a.cfg.Widget.DefaultFrom,
		DefaultTo:    a.cfg.Widget.DefaultTo,
		FetchTimeout: a.cfg.Exchange.Timeout,
		Metrics:      m,
		Logger:       slog.Default(),
	}, a.cfg.Widget.SessionTTL)
}
