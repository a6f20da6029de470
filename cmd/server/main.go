package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/addonhub/addonhub-backend/internal/aggregator"
	"github.com/addonhub/addonhub-backend/internal/api/middleware"
	"github.com/addonhub/addonhub-backend/internal/api/rest"
	"github.com/addonhub/addonhub-backend/internal/config"
	"github.com/addonhub/addonhub-backend/internal/github"
	"github.com/addonhub/addonhub-backend/internal/pkg/logger"
	"github.com/addonhub/addonhub-backend/internal/platform"
	"github.com/addonhub/addonhub-backend/internal/service"
	"github.com/addonhub/addonhub-backend/internal/source"
	"github.com/addonhub/addonhub-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.StdLogger(logger.ParseLevel(cfg.LogLevel))
	log.Info("addonhub backend starting", "port", cfg.Port)

	plat := platform.Detect()
	if cfg.PlatformSystem != "" {
		plat.System = cfg.PlatformSystem
	}
	if cfg.PlatformArch != "" {
		plat.Arch = cfg.PlatformArch
	}
	log.Info("platform detected", "name", plat.Name())

	client := github.NewClient(github.Options{
		ContentBaseURL: cfg.ContentBaseURL,
		ReleasesURL:    cfg.ReleasesURL,
		ArchiveURL:     cfg.ArchiveURL,
		Timeout:        time.Duration(cfg.GithubTimeoutSec) * time.Second,
		ReleaseTTL:     time.Duration(cfg.CacheTTLSec) * time.Second,
		RatePerSec:     cfg.GithubRatePerSec,
		RateBurst:      cfg.GithubRateBurst,
		Logger:         log,
	})

	loaders := make([]source.Loader, 0, len(cfg.SourceURLs)+len(cfg.SourceFiles))
	for _, url := range cfg.SourceURLs {
		loaders = append(loaders, source.HTTPLoader{URL: url, Client: client})
	}
	for _, path := range cfg.SourceFiles {
		loaders = append(loaders, source.FileLoader{Path: path})
	}
	if len(loaders) == 0 {
		log.Warn("no entry sources configured; manifest will be empty")
	}

	entries := store.New(log)
	agg := aggregator.New(entries, client, plat, cfg.MaxParallelFetches,
		time.Duration(cfg.CacheTTLSec)*time.Second, log)
	repo := service.NewRepositoryService(loaders, entries, agg, plat, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repo.Reload(ctx, false); err != nil {
		// Sources may be temporarily unreachable at boot; the service still
		// comes up and a later POST /reload can recover.
		log.Error("initial source load failed", "error", err)
	} else {
		log.Info("entry store ready", "addons", len(repo.Addons()))
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLog)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	rest.SetupRoutes(router, rest.NewHandler(repo, log))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
