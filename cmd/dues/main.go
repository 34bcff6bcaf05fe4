// Command dues runs the membership billing API server together with the
// cron-scheduled billing reconciler.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/membertools/dues/pkg/api"
	"github.com/membertools/dues/pkg/config"
	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
	"github.com/membertools/dues/pkg/observability"
	"github.com/membertools/dues/pkg/reconciler"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := members.EnsureSchema(pingCtx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Optional redis for the distributed pass lock
	var redisClient *redis.Client
	var passLock reconciler.PassLock
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		passLock = reconciler.NewRedisLock(redisClient, cfg.Redis.LockKey, cfg.Redis.LockTTL)
		logger.Info("Using redis-backed reconciliation lock")
	} else {
		passLock = reconciler.NewLocalLock()
	}

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	health := observability.NewHealthChecker(db, redisClient)

	// Core services
	service := members.NewPostgresService(db, members.Fees{
		AnnualCents:  cfg.Billing.AnnualFeeCents,
		MonthlyCents: cfg.Billing.MonthlyFeeCents,
	})
	provider := notify.NewHTTPProvider(cfg.Notifier.BaseURL, cfg.Notifier.APIKey)
	dispatcher := notify.NewDispatcher(provider, logger)
	rec := reconciler.New(service, dispatcher, logger, reconciler.Options{
		Workers:     cfg.Billing.Workers,
		LeadDays:    cfg.Billing.ReminderLead,
		ItemTimeout: cfg.Billing.ItemTimeout,
		Lock:        passLock,
		Metrics:     metrics,
	})

	// Cron-scheduled reconciliation
	c := cron.New()
	_, err = c.AddFunc(cfg.Billing.Schedule, func() {
		if _, err := rec.Pass(context.Background(), time.Now().UTC()); err != nil {
			if errors.Is(err, reconciler.ErrPassInProgress) {
				logger.Warn("Skipping reconciliation trigger, previous pass still running")
				return
			}
			logger.WithError(err).Error("Reconciliation pass failed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule reconciliation: %v", err)
	}
	_, err = c.AddFunc("@every 1m", func() { metrics.ObserveDBStats(db) })
	if err != nil {
		log.Fatalf("Failed to schedule metrics collection: %v", err)
	}
	c.Start()
	defer c.Stop()

	// API server
	apiServer := api.NewServer(service, rec, dispatcher, logger, metrics)
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health/metrics server on a separate port for probes
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	healthMux.Handle("/metrics", metrics.Handler())
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)

	var g errgroup.Group
	g.Go(func() error {
		logger.Infof("Starting dues API server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Starting health server on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(sm.WaitForShutdown)

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
