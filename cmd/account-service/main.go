package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/account-api/internal/auth"
	"github.com/vasapolrittideah/account-api/internal/config"
	"github.com/vasapolrittideah/account-api/internal/handler"
	"github.com/vasapolrittideah/account-api/internal/notify"
	"github.com/vasapolrittideah/account-api/internal/registry"
	"github.com/vasapolrittideah/account-api/internal/repository"
	"github.com/vasapolrittideah/account-api/internal/security"
	"github.com/vasapolrittideah/account-api/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := config.Load(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := client.Database(cfg.MongoDatabase)

	accounts := repository.NewAccountMongoRepository(ctx, &logger, db)

	hasher := security.NewHasher(security.HasherConfig{
		TimeCost:      cfg.HashTimeCost,
		MemoryCost:    cfg.HashMemoryCost,
		Parallelism:   cfg.HashParallelism,
		MaxConcurrent: cfg.HashMaxConcurrent,
	}, &logger)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.TokenIssuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token issuer")
	}

	sender := notify.NewLogSender(&logger)
	verification := usecase.NewEmailVerification(accounts, sender, cfg.EphemeralTTL)
	authUsecase := usecase.NewAuth(accounts, hasher, issuer, verification)
	accountUsecase := usecase.NewAccount(accounts)
	passwordReset := usecase.NewPasswordReset(accounts, hasher, sender, cfg.EphemeralTTL)

	h := handler.New(cfg, &logger, accounts, issuer, authUsecase, accountUsecase, passwordReset, verification)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var reg *registry.Registry
	if cfg.ConsulAddr != "" {
		reg, err = registry.New(cfg.ConsulAddr, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create consul registry")
		}
		if err := reg.Register(cfg.ServiceName, cfg.HTTPAddr); err != nil {
			logger.Fatal().Err(err).Msg("failed to register with consul")
		}
		defer reg.Deregister()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
