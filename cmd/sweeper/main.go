// The sweeper runs the daily billing sweeps: payment reminders for
// sent invoices and overdue marking for invoices past their due date.
// By default it runs both sweeps once and exits, which suits external
// schedulers like cron or a Kubernetes CronJob. With -schedule it
// stays resident and runs on the given cron expression instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/email"
	"github.com/lexohub/lexohub/internal/events"
	"github.com/lexohub/lexohub/internal/narrative"
	"github.com/lexohub/lexohub/internal/notify"
	"github.com/lexohub/lexohub/internal/postgres"
	"github.com/lexohub/lexohub/internal/service"
	"github.com/lexohub/lexohub/internal/storage"
)

func run() error {
	schedule := flag.String("schedule", "", "cron expression, e.g. \"0 7 * * *\"; empty runs the sweeps once and exits")
	flag.Parse()

	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel).
		With().Str("component", "sweeper").Logger()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	store := postgres.NewStore(pool)

	var publisher domain.EventPublisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
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

	var sender email.Sender
	if cfg.Email.PostmarkToken != "" {
		sender = email.NewPostmarkSender(cfg.Email.PostmarkToken, cfg.Email.From)
	} else {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
	}
	notifier := notify.NewEmailNotifier(sender, archive, cfg.Email.From, logger)

	invoiceService := service.NewInvoiceService(service.InvoiceServiceConfig{
		Store:               store,
		Narrative:           narrative.New(time.Now().UnixNano()),
		Notifier:            notifier,
		Events:              publisher,
		Logger:              logger,
		AllowNumberFallback: cfg.Invoice.AllowNumberFallback,
	})

	if *schedule == "" {
		return sweep(ctx, invoiceService, logger)
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() {
		if err := sweep(ctx, invoiceService, logger); err != nil {
			logger.Error().Err(err).Msg("sweep run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", *schedule, err)
	}

	logger.Info().Str("schedule", *schedule).Msg("sweeper running on schedule")
	c.Start()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	logger.Info().Msg("stopping, waiting for running sweep to finish")
	<-c.Stop().Done()
	return nil
}

// sweep runs both sweeps for today. A reminder failure does not block
// the overdue sweep; both summaries land in the log either way.
func sweep(ctx context.Context, invoices domain.InvoiceService, logger zerolog.Logger) error {
	today := time.Now().UTC()

	reminders, err := invoices.SweepReminders(ctx, today)
	if err != nil {
		logger.Error().Err(err).Msg("reminder sweep failed")
	} else {
		logger.Info().
			Int("scanned", reminders.Scanned).
			Int("sent", reminders.Sent).
			Int("escalated", reminders.Escalated).
			Int("failed", reminders.Failed).
			Msg("reminder sweep completed")
	}

	overdue, overdueErr := invoices.SweepOverdue(ctx, today)
	if overdueErr != nil {
		logger.Error().Err(overdueErr).Msg("overdue sweep failed")
		return overdueErr
	}
	logger.Info().
		Int("scanned", overdue.Scanned).
		Int("marked", overdue.Marked).
		Msg("overdue sweep completed")

	return err
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
