package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultcast/storefront-backend/api"
	"github.com/vaultcast/storefront-backend/internal/cron"
	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/pkg/config"
	"github.com/vaultcast/storefront-backend/pkg/db"
	"github.com/vaultcast/storefront-backend/pkg/logger"
	"github.com/vaultcast/storefront-backend/pkg/metrics"
	"github.com/vaultcast/storefront-backend/pkg/migrate"
	"github.com/vaultcast/storefront-backend/pkg/mongodb"
	"github.com/vaultcast/storefront-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	var paymentRepo payments.Repository
	if cfg.Payments.UsesMongo() {
		mongoClient, err := mongodb.New(ctx, cfg.Mongo, logg)
		requireResource(ctx, logg, "mongo", err)
		defer func() {
			if err := mongoClient.Close(context.Background()); err != nil {
				logg.Error(context.Background(), "error closing mongo", err)
			}
		}()
		paymentRepo = payments.NewMongoRepository(mongoClient.PaymentsCollection())
	} else {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))
		paymentRepo = payments.NewRepository(dbClient.DB())
	}

	paymentStore, err := payments.NewService(payments.ServiceParams{Repo: paymentRepo})
	requireResource(ctx, logg, "payment store", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	requireResource(ctx, logg, "cron lock", err)

	expiryJob, err := cron.NewPaymentExpiryJob(cron.PaymentExpiryJobParams{
		Logger:     logg,
		Store:      paymentStore,
		PendingTTL: cfg.Checkout.PendingTTL,
		BatchSize:  cfg.Cron.ExpiryBatch,
		Metrics:    jobMetrics,
	})
	requireResource(ctx, logg, "payment expiry job", err)

	registry, err := cron.NewRegistry(expiryJob)
	requireResource(ctx, logg, "cron registry", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	requireResource(ctx, logg, "cron service", err)

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Cron.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := api.Serve(ctx, api.NewServer(cfg.Cron.MetricsListen, mux), nil, logg, 0); err != nil {
				logg.Error(ctx, "metrics listener stopped", err)
			}
		}()
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
