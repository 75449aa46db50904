package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/delcom/travel-log/internal/api"
	"github.com/delcom/travel-log/internal/core/service"
	"github.com/delcom/travel-log/internal/infrastructure/config"
	"github.com/delcom/travel-log/internal/infrastructure/queue"
	"github.com/delcom/travel-log/internal/infrastructure/security"
	"github.com/delcom/travel-log/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "travel-log",
	})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	janitor := queue.NewJanitor(st.files, cfg.JanitorWorkers, log)
	janitor.Start(context.WithoutCancel(ctx))
	defer janitor.Stop()

	codec := security.NewJWTCodec(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	users := service.NewUserService(st.users, st.tokens, codec, security.NewBcryptHasher(bcrypt.DefaultCost),
		logger.Component("user_service"))
	travelLogs := service.NewTravelLogService(st.travelLogs, st.files, janitor, logger.Component("travel_log_service"))

	e := api.NewRouter(api.Deps{
		Log:        log,
		Users:      users,
		TravelLogs: travelLogs,
		Codec:      codec,
		UserRepo:   st.users,
		TokenRepo:  st.tokens,
		Checks:     st.checks,
		BodyLimit:  cfg.Files.MaxBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.Storage.Driver).
			Str("token_store", cfg.Storage.TokenStore).
			Str("files", cfg.Files.Backend).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
