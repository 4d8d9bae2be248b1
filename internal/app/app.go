// Package app assembles the HTTP application: configuration, logging,
// services, routes, and server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"claimskpi/internal/config"
	"claimskpi/internal/exporter"
	"claimskpi/internal/kpi"
	"claimskpi/internal/loader"
	"claimskpi/internal/services"
	transporthttp "claimskpi/internal/transport/http"
)

// Version is stamped at build time.
var Version = "dev"

// App owns the wired application and its HTTP server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
}

// New wires the application from configuration.
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	policy := kpi.Policy{
		ExcludedProvider:    cfg.KPI.ExcludedProvider,
		DOSCutoff:           cfg.KPI.DOSCutoffDate(),
		MinorClaimThreshold: cfg.KPI.MinorClaimThreshold,
		MinorAmountQuantile: cfg.KPI.MinorAmountQuantile,
		AgingBoundaries:     cfg.KPI.AgingBoundaries,
	}

	reportService := services.NewReportService(logger, policy, registry, nil)
	ld := loader.New(logger)
	workbook := exporter.NewWorkbookWriter(logger)

	reportHandler := transporthttp.NewReportHandler(reportService, ld, workbook, logger, cfg.Server.MaxUploadBytes)
	healthHandler := transporthttp.NewHealthHandler(Version)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	r.Use(rateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Mount("/reports", reportHandler.Routes())
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &App{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.String("addr", a.server.Addr),
			slog.String("version", Version))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down server",
		slog.Duration("timeout", a.cfg.Server.ShutdownTimeout))
	return a.server.Shutdown(shutdownCtx)
}

// rateLimiter applies a global token-bucket limit across all requests.
func rateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Router exposes the handler for tests.
func (a *App) Router() http.Handler {
	return a.server.Handler
}
