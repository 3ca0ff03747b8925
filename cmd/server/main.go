package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lexohub/lexohub/internal"
	"github.com/lexohub/lexohub/internal/auth"
	"github.com/lexohub/lexohub/internal/billing"
	"github.com/lexohub/lexohub/internal/bootstrap"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/email"
	"github.com/lexohub/lexohub/internal/events"
	"github.com/lexohub/lexohub/internal/handler/api"
	"github.com/lexohub/lexohub/internal/middleware"
	"github.com/lexohub/lexohub/internal/narrative"
	"github.com/lexohub/lexohub/internal/notify"
	"github.com/lexohub/lexohub/internal/pdf"
	"github.com/lexohub/lexohub/internal/postgres"
	"github.com/lexohub/lexohub/internal/service"
	"github.com/lexohub/lexohub/internal/storage"
	"github.com/lexohub/lexohub/internal/telemetry"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel)

	// Migrations run over database/sql; the goose tooling expects it.
	logger.Info().Msg("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info().Msg("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()
	logger.Info().Msg("database migrations completed")

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)

	telemetry.InitBusinessMetrics("lexohub")
	httpMetrics := middleware.NewMetrics("lexohub")

	secret := cfg.Auth.Secret
	if secret == "" {
		// Config validation already requires a secret in prod, so this
		// path only runs in development.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate auth secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn().Msg("LEXOHUB_AUTH_SECRET not set, generated an ephemeral secret; tokens will not survive restarts")
	}
	tokens, err := auth.NewTokenManager(auth.Config{
		Secret: secret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	var publisher domain.EventPublisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		logger.Info().Msg("nats not configured, invoice events will be dropped")
	}

	archive, err := storage.New(storage.Config{
		Provider:    cfg.Storage.Provider,
		LocalPath:   cfg.Storage.LocalPath,
		LocalURL:    cfg.Storage.LocalURL,
		S3Bucket:    cfg.Storage.S3Bucket,
		S3Region:    cfg.Storage.S3Region,
		S3Endpoint:  cfg.Storage.S3Endpoint,
		S3AccessKey: cfg.Storage.S3AccessKey,
		S3SecretKey: cfg.Storage.S3SecretKey,
		S3PublicURL: cfg.Storage.S3PublicURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize invoice archive: %w", err)
	}
	logger.Info().Str("provider", cfg.Storage.Provider).Msg("invoice archive initialized")

	var sender email.Sender
	if cfg.Email.PostmarkToken != "" {
		sender = email.NewPostmarkSender(cfg.Email.PostmarkToken, cfg.Email.From)
		logger.Info().Msg("email delivery via postmark")
	} else {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
		logger.Info().Str("host", cfg.Email.Host).Int("port", cfg.Email.Port).Msg("email delivery via smtp")
	}
	notifier := notify.NewEmailNotifier(sender, archive, cfg.Email.From, logger)

	narrator := narrative.New(time.Now().UnixNano())

	invoiceService := service.NewInvoiceService(service.InvoiceServiceConfig{
		Store:               store,
		Narrative:           narrator,
		Notifier:            notifier,
		Events:              publisher,
		Logger:              logger,
		AllowNumberFallback: cfg.Invoice.AllowNumberFallback,
	})
	matterService := service.NewMatterService(store, logger)

	var paymentProvider billing.Provider
	if cfg.Stripe.APIKey != "" {
		stripeConfig := billing.StripeConfig{
			APIKey:        cfg.Stripe.APIKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
		}
		provider, err := billing.NewStripeProvider(stripeConfig, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize stripe provider: %w", err)
		}
		paymentProvider = provider
		logger.Info().Bool("test_mode", stripeConfig.IsTestMode()).Msg("stripe payment links enabled")
	} else {
		logger.Info().Msg("stripe not configured, payment links disabled")
	}

	if cfg.IsDev() {
		if err := bootstrap.EnsureDevAdvocate(ctx, store, tokens, logger); err != nil {
			return fmt.Errorf("failed to seed dev advocate: %w", err)
		}
	}

	srv, err := api.New(api.Config{
		Logger:      logger,
		Tokens:      tokens,
		Store:       store,
		Invoices:    invoiceService,
		Matters:     matterService,
		Narrator:    narrator,
		Renderer:    pdf.NewRenderer(),
		Archive:     archive,
		Billing:     paymentProvider,
		HTTPMetrics: httpMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize api server: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", addr).Msg("starting server")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stopCtx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
