// Command dues-reconciler runs billing reconciliation passes outside the
// API server: once for backfills and testing, or on a cron schedule.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/membertools/dues/pkg/config"
	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
	"github.com/membertools/dues/pkg/observability"
	"github.com/membertools/dues/pkg/reconciler"
)

var (
	runOnce  = flag.Bool("run-once", false, "Run one reconciliation pass and exit")
	passDate = flag.String("date", "", "Day to reconcile as (YYYY-MM-DD). If empty, today. Only used with --run-once")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var passLock reconciler.PassLock = reconciler.NewLocalLock()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid redis URL: %v", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		passLock = reconciler.NewRedisLock(client, cfg.Redis.LockKey, cfg.Redis.LockTTL)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)
	service := members.NewPostgresService(db, members.Fees{
		AnnualCents:  cfg.Billing.AnnualFeeCents,
		MonthlyCents: cfg.Billing.MonthlyFeeCents,
	})
	dispatcher := notify.NewDispatcher(
		notify.NewHTTPProvider(cfg.Notifier.BaseURL, cfg.Notifier.APIKey), logger)
	rec := reconciler.New(service, dispatcher, logger, reconciler.Options{
		Workers:     cfg.Billing.Workers,
		LeadDays:    cfg.Billing.ReminderLead,
		ItemTimeout: cfg.Billing.ItemTimeout,
		Lock:        passLock,
	})

	// Run once mode (for testing or backfilling)
	if *runOnce {
		today := time.Now().UTC()
		if *passDate != "" {
			today, err = time.Parse("2006-01-02", *passDate)
			if err != nil {
				log.Fatalf("Invalid date format: %v", err)
			}
		}

		log.Infof("Running reconciliation pass for %s", today.Format("2006-01-02"))
		stats, err := rec.Pass(context.Background(), today)
		if err != nil {
			log.Fatalf("Reconciliation pass failed: %v", err)
		}
		log.WithFields(logrus.Fields{
			"processed": stats.Processed,
			"invoiced":  stats.Invoiced,
			"sent":      stats.RemindersSent,
			"failures":  stats.Failures,
		}).Info("Reconciliation pass completed")
		return
	}

	// Scheduled mode
	c := cron.New()
	_, err = c.AddFunc(cfg.Billing.Schedule, func() {
		stats, err := rec.Pass(context.Background(), time.Now().UTC())
		if err != nil {
			if errors.Is(err, reconciler.ErrPassInProgress) {
				log.Warn("Skipping trigger, previous pass still running")
				return
			}
			log.Errorf("Reconciliation pass failed: %v", err)
			return
		}
		log.WithFields(logrus.Fields{
			"processed": stats.Processed,
			"invoiced":  stats.Invoiced,
			"sent":      stats.RemindersSent,
			"failures":  stats.Failures,
		}).Info("Reconciliation pass completed")
	})
	if err != nil {
		log.Fatalf("Failed to schedule reconciliation: %v", err)
	}

	log.Infof("Reconciler started with schedule %q", cfg.Billing.Schedule)
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down reconciler")
	<-c.Stop().Done()
}
