package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/leulderebe/wedding-front-end-sub001/internal/callback"
	"github.com/leulderebe/wedding-front-end-sub001/internal/payment"
	"github.com/leulderebe/wedding-front-end-sub001/internal/session"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/config"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/marketplace"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "confirm-listener"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "confirm-listener",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "listener exited with error", err)
		os.Exit(1)
	}
	logg.Info(ctx, "listener shut down")
}

func serve(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	store, storeErr := openStorage(ctx, cfg)
	if storeErr != nil {
		return storeErr
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	sessions := session.NewManager(store, logg)
	api, err := marketplace.NewClient(cfg.API.BaseURL, sessions, logg,
		marketplace.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return err
	}

	poller, err := payment.NewPoller(api, payment.LogNotifier{Logger: logg}, cfg.Payment.PollInterval, logg)
	if err != nil {
		return err
	}

	handler := callback.NewHandler(ctx, poller, store, logg)

	srv := &http.Server{
		Addr:    ":" + cfg.Listener.Port,
		Handler: handler.Routes(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.Listener.Port), "payment confirmation listener started")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Listener.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case listenErr := <-serveErr:
		if errors.Is(listenErr, http.ErrServerClosed) {
			return nil
		}
		return listenErr
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.NormalizedBackend() {
	case config.StorageBackendRedis:
		return storage.NewRedis(ctx, cfg.Redis)
	default:
		return storage.NewFile(cfg.Storage.Dir)
	}
}
