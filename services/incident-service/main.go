package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incident-reporting-system/pkg/config"
	"incident-reporting-system/pkg/database"
	"incident-reporting-system/pkg/logger"
	"incident-reporting-system/pkg/middleware"
	"incident-reporting-system/pkg/queue"
	"incident-reporting-system/pkg/storage"
	"incident-reporting-system/pkg/validation"
	"incident-reporting-system/services/incident-service/handlers"
	"incident-reporting-system/services/incident-service/repository"
	"incident-reporting-system/services/incident-service/service"

	"github.com/rs/zerolog"
)

type store interface {
	service.Store
	handlers.Pinger
}

func openStore(cfg *config.IncidentServiceConfig, log zerolog.Logger) (store, func()) {
	if cfg.Store == "postgres" {
		db, err := database.ConnectPostgres(cfg.Postgres.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		if err := repository.MigrateGorm(db); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		log.Info().Msg("Using PostgreSQL incident store")
		return repository.NewGormStore(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}

	db, err := database.ConnectMongo(cfg.Mongo, "incident-service")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	mongoStore := repository.NewMongoStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
	}
	log.Info().Msg("Using MongoDB incident store")
	return mongoStore, func() {
		if err := database.DisconnectMongo(db); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}
}

func main() {
	cfg, err := config.LoadIncidentService()
	if err != nil {
		bootLog := logger.New("incident-service", "info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New("incident-service", cfg.LogLevel)

	incidentStore, closeStore := openStore(cfg, log)
	defer closeStore()

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQ.URI())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer conn.Close()
	defer ch.Close()
	publisher, err := queue.NewPublisher(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to declare event queue")
	}
	log.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("Connected to RabbitMQ")

	objects, err := storage.ConnectMinio(cfg.Minio)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MinIO client")
	}
	bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 10*time.Second)
	if err := objects.EnsureBucket(bucketCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare attachment bucket")
	}
	cancelBucket()

	incidents := service.NewIncidents(incidentStore, service.NewIDGenerator(incidentStore), publisher, validation.New(), log)
	attachments := service.NewAttachments(incidentStore, objects, cfg.Minio.MaxUploadSize, cfg.Minio.URLExpiry, log)

	middleware.RegisterMetrics()
	h := handlers.New(incidents, attachments, map[string]handlers.Pinger{"database": incidentStore}, []byte(cfg.JWT.Secret), log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Incident Service running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
