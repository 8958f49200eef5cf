package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgettracker/internal/cache"
	"budgettracker/internal/cli"
	apphttp "budgettracker/internal/http"
	applog "budgettracker/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"))

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	rt, err := cli.OpenRuntime(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize session runtime", applog.FieldError, err.Error())
		os.Exit(1)
	}

	categories := cache.NewCategories(64, cfg.CacheTTL)
	rt.Sessions.Subscribe(categories.OnSessionChange)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Sessions:           rt.Sessions,
		API:                rt.API,
		Guard:              rt.Guard,
		Shell:              rt.Shell,
		Categories:         categories,
		Exporter:           rt.Backend.Exporter,
		Ready:              rt.Backend.Ready,
		GuardEnabled:       cfg.RouteGuardEnabled,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.APITimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	eventsCtx, stopEvents := context.WithCancel(context.Background())
	eventsDone := make(chan struct{})
	if rt.Backend.Events != nil {
		go func() {
			defer close(eventsDone)
			rt.Backend.Events.Run(eventsCtx)
		}()
	} else {
		close(eventsDone)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		stopEvents()
		<-eventsDone
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close backends", applog.FieldError, err.Error())
		}
	})

	logger.Info("Starting budget tracker",
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
		"session_backend", cfg.SessionBackend,
		"export_backend", cfg.ExportBackend,
		"route_guard", cfg.RouteGuardEnabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
