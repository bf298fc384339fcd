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
	"incident-reporting-system/pkg/mailer"
	"incident-reporting-system/pkg/middleware"
	"incident-reporting-system/pkg/validation"
	"incident-reporting-system/services/auth-service/handlers"
	"incident-reporting-system/services/auth-service/repository"
	"incident-reporting-system/services/auth-service/service"
	"incident-reporting-system/services/auth-service/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func main() {
	cfg, err := config.LoadAuthService()
	if err != nil {
		bootLog := logger.New("auth-service", "info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New("auth-service", cfg.LogLevel)

	db, err := database.ConnectPostgres(cfg.Postgres.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	log.Info().Msg("Running auto migration")
	if err := repository.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	mail, err := mailer.New(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure mailer")
	}

	users := repository.NewUserRepository(db)
	tokens := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, cfg.JWT.ResetTokenTTL)
	v := validation.New()

	middleware.RegisterMetrics()
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "auth_users_total",
		Help: "Registered users",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := users.Count(ctx)
		if err != nil {
			return 0
		}
		return float64(n)
	})

	h := handlers.New(handlers.Options{
		Registry:      service.NewRegistry(users, v, log),
		Authenticator: service.NewAuthenticator(users, tokens, log),
		PasswordReset: service.NewPasswordReset(users, tokens, mail, v, log),
		DB:            users,
		JWTSecret:     tokens.Secret(),
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Auth Service running")
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
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
