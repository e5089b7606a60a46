package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/habitkit/identity-service/internal/api"
	"github.com/habitkit/identity-service/internal/infrastructure/config"
	mongodb "github.com/habitkit/identity-service/internal/infrastructure/db/mongo"
	redisdb "github.com/habitkit/identity-service/internal/infrastructure/db/redis"
	"github.com/habitkit/identity-service/internal/infrastructure/email"
	"github.com/habitkit/identity-service/internal/infrastructure/queue"
	"github.com/habitkit/identity-service/internal/infrastructure/storage"
	"github.com/habitkit/identity-service/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	if err := mongodb.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := mongodb.NewDeviceRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("device index creation failed")
	}

	sender := email.NewSendGridSender(email.Config{
		APIKey:     cfg.SendGrid.APIKey,
		From:       cfg.SendGrid.From,
		FromName:   cfg.SendGrid.FromName,
		TemplateID: cfg.SendGrid.TemplateID,
	}, log)

	objectStore, err := storage.NewS3Storage(ctx, storage.Config{
		Bucket:   cfg.Storage.Bucket,
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object storage setup failed")
	}

	tasks := queue.NewRunner(cfg.Workers, log)

	e := api.NewRouter(db, rdb, cfg, sender, objectStore, tasks, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity service started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Drain queued cleanup work before the process exits.
	tasks.Stop()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
}
