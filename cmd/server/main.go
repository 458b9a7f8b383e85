package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealerstock/internal/config"
	"dealerstock/internal/infra"
	"dealerstock/internal/router"
	"dealerstock/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger (dev: pretty, prod: JSON)
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := infra.NewObjectStorage(ctx, infra.StorageConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	}, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to object storage")
	}

	dispatcher := worker.NewDispatcher(rdb)
	svc := router.NewServices(cfg, db, storage, dispatcher)

	// Export jobs render through the report service and land in object
	// storage. Handlers are wired here (composition root) so the pool has
	// access to every dependency.
	exportWorker := worker.NewExportWorker(svc.Reports, storage)
	worker.StartWorkerPool(ctx, rdb, map[string]worker.Handler{
		worker.JobExport: exportWorker.Handle,
	}, cfg.WorkerPoolSize)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{RDB: rdb, Storage: storage})

	r := router.New(cfg, db, rdb, storage, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("dealerstock listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
