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
	"incident-reporting-system/pkg/logger"
	"incident-reporting-system/pkg/mailer"
	"incident-reporting-system/pkg/middleware"
	"incident-reporting-system/pkg/queue"
	"incident-reporting-system/pkg/response"
	"incident-reporting-system/services/notification-service/worker"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func routes(conn *amqp.Connection, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.LoggerMiddleware(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "UP",
			"service":  "notification-service",
			"rabbitmq": "connected",
		}
		if conn.IsClosed() {
			health["status"] = "DOWN"
			health["rabbitmq"] = "disconnected"
			response.JSON(w, http.StatusServiceUnavailable, health)
			return
		}
		response.JSON(w, http.StatusOK, health)
	})
	r.Handle("/metrics", middleware.GetMetricsHandler())
	return r
}

func main() {
	cfg, err := config.LoadNotificationService()
	if err != nil {
		bootLog := logger.New("notification-service", "info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New("notification-service", cfg.LogLevel)

	mail, err := mailer.New(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure mailer")
	}

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQ.URI())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer conn.Close()
	defer ch.Close()

	msgs, err := queue.ConsumeMessages(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to consume queue")
	}
	log.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("Waiting for incident events")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.New(mail, log).Run(ctx, msgs)
	}()

	middleware.RegisterMetrics()
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes(conn, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Notification Service running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
		log.Error().Msg("Consumer stopped")
	}
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
