package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/natours/natours-api/internal/auth"
	"github.com/natours/natours-api/internal/config"
	"github.com/natours/natours-api/internal/email"
	"github.com/natours/natours-api/internal/email/mailgun"
	"github.com/natours/natours-api/internal/users"
	"github.com/natours/natours-api/routes"
)

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stdout))
}

func setupLogger(w io.Writer, env string) *slog.Logger {
	if env == config.EnvProduction {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newSender(cfg config.Email, logger *slog.Logger) email.Sender {
	if cfg.Driver == config.EmailDriverMailgun {
		return mailgun.NewSender(&http.Client{Timeout: 10 * time.Second}, mailgun.Settings{
			APIHost: cfg.MailgunAPIHost,
			Domain:  cfg.MailgunDomain,
			APIKey:  cfg.MailgunAPIKey,
		})
	}
	return email.NewLogSender(logger)
}

func run(ctx context.Context, w io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(w, nil)).Error("failed to load config", "error", err)
		return 1
	}

	logger := setupLogger(w, cfg.Env)

	store, closeStore, err := users.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open user store", "driver", cfg.Store.Driver, "error", err)
		return 1
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			logger.Error("failed to close user store", "error", err)
		}
	}()

	mailer := email.NewMailer(newSender(cfg.Email, logger), cfg.Email.From)

	authSvc, err := auth.Init(cfg.Auth, store, mailer, logger)
	if err != nil {
		logger.Error("failed to init auth", "error", err)
		return 1
	}

	handler, err := routes.New(routes.Deps{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Auth:   authSvc,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		return 1
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped")
	return 0
}
