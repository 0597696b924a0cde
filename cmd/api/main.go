package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"slidegen/internal/adapter/repo"
	"slidegen/internal/http/handlers"
	"slidegen/internal/http/httpapi"
	"slidegen/internal/infra"
	"slidegen/internal/infra/geoip"
	"slidegen/internal/middleware"
	"slidegen/internal/providers/llm"
	"slidegen/internal/queue"
	"slidegen/internal/slides"
	"slidegen/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	store, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage setup failed")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}
	if resolver != nil {
		defer resolver.Close()
	}

	client, err := llm.FromConfig(cfg, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: llm client setup failed")
	}
	logger.Info().Str("provider", client.Name()).Msg("api: llm provider ready")

	q := queue.New(queue.Options{
		MaxConcurrent: cfg.QueueMaxConcurrent,
		MaxRetries:    cfg.QueueMaxRetries,
		CacheTTL:      cfg.QueueCacheTTL,
		Logger:        logger,
	})

	svc, err := slides.NewService(slides.Options{
		Queue:  q,
		Client: client,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: service setup failed")
	}

	app := &handlers.App{
		Logger:          logger,
		SQL:             runner,
		Slides:          svc,
		SlideRepo:       repo.NewSlideRepository(runner),
		JobRepo:         repo.NewJobRepository(runner),
		Store:           store,
		Queue:           q,
		GenerateTimeout: cfg.GenerateTimeout,
	}

	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	q.Stop()
	logger.Info().Msg("api: stopped")
}
