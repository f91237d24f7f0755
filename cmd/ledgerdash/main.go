package main

import (
	"context"
	"os"
	"time"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/backend"
	"ledgerdash/internal/cache"
	"ledgerdash/internal/cli"
	"ledgerdash/internal/dashboard"
	apphttp "ledgerdash/internal/http"
	"ledgerdash/internal/log"
	"ledgerdash/internal/pdf"
	"ledgerdash/internal/services"
	"ledgerdash/internal/session"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	infra, err := backend.NewFactory(logger).CreateBackend(context.Background(), beCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", beCfg.Type.String())
		os.Exit(1)
	}

	api := apiclient.New(cfg.APIBaseURL, apiclient.WithLogger(logger))
	sessions := session.NewManager(infra.Store, api, logger, session.ManagerConfig{
		IdleTTL:        30 * time.Minute,
		MaxSessions:    cfg.SessionCacheSize,
		RefreshTimeout: cfg.CompaniesRefreshTimeout,
	})
	activity := services.NewActivityService(infra.Publisher, logger)

	caches := cache.NewManager(logger)
	caches.Register("sessions", sessions.Cleaner())
	caches.StartCleanup(5 * time.Minute)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Sessions:  sessions,
		Store:     infra.Store,
		API:       api,
		Dashboard: dashboard.NewService(logger),
		Invoices:  pdf.NewInvoiceRenderer(logger),
		Activity:  activity,
		Caches:    caches,
		Logger:    logger,
	}, apphttp.Options{
		CookieSecure:       cfg.CookieSecure,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DashboardTimeout:   cfg.DashboardTimeout,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		caches.Stop()
		if err := activity.Close(); err != nil {
			logger.Warn("Failed to close activity publisher", log.FieldError, err.Error())
		}
		if infra.Cleanup != nil {
			if err := infra.Cleanup(); err != nil {
				logger.Warn("Failed to close session store", log.FieldError, err.Error())
			}
		}
	})

	// Persisted sessions idle past SESSION_TTL are dropped hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.PurgeIdle(ctx, cfg.SessionTTL); n > 0 {
					logger.Info("Purged idle sessions", "count", n)
				}
			}
		}
	}()

	logger.Info("Starting ledgerdash", "port", cfg.Port, "api_base_url", api.BaseURL(),
		"backend", beCfg.Type.String(), "activity_events", activity.Enabled())
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
