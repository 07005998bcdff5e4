package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/csvloc/internal/config"
	"github.com/JonMunkholm/csvloc/internal/core"
	"github.com/JonMunkholm/csvloc/internal/logging"
	"github.com/JonMunkholm/csvloc/internal/translation"
	"github.com/JonMunkholm/csvloc/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"jobs_max_concurrent", cfg.Jobs.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	project, err := config.LoadProject(cfg.Project.File, nil)
	if err != nil {
		slog.Error("failed to load project file", "file", cfg.Project.File, "error", err)
		os.Exit(1)
	}
	if project.File != "" {
		slog.Info("project loaded", "file", project.File, "project", project.Name, "locales", project.Locales)
	} else {
		slog.Info("no project file found, using defaults", "file", cfg.Project.File)
	}

	registry, err := core.NewRegistryFromProject(project)
	if err != nil {
		slog.Error("failed to build file type registry", "error", err)
		os.Exit(1)
	}

	store, err := translation.Open(ctx, cfg.Store.Driver, cfg.Store.URL)
	if err != nil {
		slog.Error("failed to open translation store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("translation store ready", "driver", cfg.Store.Driver)

	root := ""
	if project.File != "" {
		root = filepath.Dir(project.File)
	}

	limiter := core.NewJobLimiter(cfg.Jobs.MaxConcurrent, cfg.Jobs.MaxWaitTime)
	service, err := core.NewService(core.Options{
		Registry:     registry,
		Store:        store,
		Limiter:      limiter,
		Project:      project.Name,
		SourceLocale: project.SourceLocale,
		Locales:      project.Locales,
		Root:         root,
		MaxFileSize:  cfg.Jobs.MaxFileSize,
		Timeout:      cfg.Jobs.Timeout,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	for _, ft := range registry.All() {
		slog.Debug("file type registered", "glob", ft.Glob, "template", ft.Template)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for active jobs to complete (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for jobs to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("jobs did not complete in time", "error", err)
			} else {
				slog.Info("all jobs completed")
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		store.Close()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
