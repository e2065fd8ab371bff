package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Singh-Codes/youtube-downloader/internal/adapter/repo"
	"github.com/Singh-Codes/youtube-downloader/internal/domain"
	"github.com/Singh-Codes/youtube-downloader/internal/downloads"
	"github.com/Singh-Codes/youtube-downloader/internal/extractor"
	"github.com/Singh-Codes/youtube-downloader/internal/http/handlers"
	"github.com/Singh-Codes/youtube-downloader/internal/http/httpapi"
	"github.com/Singh-Codes/youtube-downloader/internal/infra"
	"github.com/Singh-Codes/youtube-downloader/internal/progress"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.DownloadDir).Msg("failed to prepare download directory")
	}

	ctx := context.Background()

	var store domain.DownloadRepository
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		store = repo.NewDownloadRepository(pool)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, download records are kept in memory only")
		store = repo.NewMemoryRepository()
	}

	registry := progress.NewRegistry()
	gateway := extractor.NewClient(cfg.ProbeTimeout, logger)
	svc := downloads.NewService(store, registry, gateway, cfg.DownloadDir, cfg.MaxConcurrentDownloads, logger)

	app := handlers.NewApp(svc, logger)
	router := httpapi.NewRouter(app, cfg)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	// Let in-flight downloads settle their terminal status before exit.
	svc.Wait()
	logger.Info().Msg("server stopped")
}
