package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultcast/storefront-backend/api"
	"github.com/vaultcast/storefront-backend/api/controllers"
	"github.com/vaultcast/storefront-backend/api/routes"
	"github.com/vaultcast/storefront-backend/internal/auth"
	"github.com/vaultcast/storefront-backend/internal/checkout"
	"github.com/vaultcast/storefront-backend/internal/delivery"
	"github.com/vaultcast/storefront-backend/internal/notify"
	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/internal/proofs"
	"github.com/vaultcast/storefront-backend/internal/sitesettings"
	"github.com/vaultcast/storefront-backend/internal/videos"
	"github.com/vaultcast/storefront-backend/pkg/auth/session"
	"github.com/vaultcast/storefront-backend/pkg/config"
	"github.com/vaultcast/storefront-backend/pkg/db"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	"github.com/vaultcast/storefront-backend/pkg/logger"
	"github.com/vaultcast/storefront-backend/pkg/metrics"
	"github.com/vaultcast/storefront-backend/pkg/migrate"
	"github.com/vaultcast/storefront-backend/pkg/mongodb"
	"github.com/vaultcast/storefront-backend/pkg/redis"
	"github.com/vaultcast/storefront-backend/pkg/security"
	"github.com/vaultcast/storefront-backend/pkg/square"
	"github.com/vaultcast/storefront-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readiness := map[string]controllers.Pinger{}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()
	readiness["postgres"] = dbClient

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()
	readiness["redis"] = redisClient

	paymentRepo := payments.NewRepository(dbClient.DB())
	if cfg.Payments.UsesMongo() {
		mongoClient, err := mongodb.New(ctx, cfg.Mongo, logg)
		requireResource(ctx, logg, "mongo", err)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Close(closeCtx); err != nil {
				logg.Error(context.Background(), "error closing mongo", err)
			}
		}()
		requireResource(ctx, logg, "mongo indexes", payments.EnsureMongoIndexes(ctx, mongoClient.PaymentsCollection()))
		paymentRepo = payments.NewMongoRepository(mongoClient.PaymentsCollection())
		readiness["mongo"] = mongoClient
	}
	paymentStore, err := payments.NewService(payments.ServiceParams{Repo: paymentRepo})
	requireResource(ctx, logg, "payment store", err)

	sessionManager, err := session.NewManager(redisClient)
	requireResource(ctx, logg, "session manager", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Admin:          cfg.Admin,
		JWTConfig:      cfg.JWT,
		Hasher:         security.NewHasher(cfg.Password),
		SessionManager: sessionManager,
	})
	requireResource(ctx, logg, "auth service", err)
	if !cfg.Admin.Enabled() {
		logg.Warn(ctx, "admin account not configured; admin login disabled")
	}

	videoService, err := videos.NewService(videos.ServiceParams{Repo: videos.NewRepository(dbClient.DB())})
	requireResource(ctx, logg, "video service", err)

	var uploader proofs.Uploader
	if cfg.GCS.Enabled() {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, logg)
		requireResource(ctx, logg, "gcs", err)
		defer func() {
			if err := gcsClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing gcs", err)
			}
		}()
		uploader = gcsClient
		readiness["gcs"] = gcsClient
	} else {
		logg.Warn(ctx, "gcs bucket not configured; proof uploads accept image urls only")
	}
	proofService, err := proofs.NewService(proofs.ServiceParams{
		Repo:     proofs.NewRepository(dbClient.DB()),
		Uploader: uploader,
		Logger:   logg,
	})
	requireResource(ctx, logg, "proof service", err)

	settingsService, err := sitesettings.NewService(sitesettings.ServiceParams{
		Repo:     sitesettings.NewRepository(dbClient.DB()),
		Defaults: settingsDefaults(cfg),
		CacheTTL: cfg.Settings.CacheTTL,
	})
	requireResource(ctx, logg, "settings service", err)

	var processor checkout.Processor
	if cfg.Square.Enabled() {
		squareClient, err := square.NewClient(ctx, cfg.Square, logg)
		requireResource(ctx, logg, "square", err)
		processor, err = checkout.NewSquareProcessor(squareClient)
		requireResource(ctx, logg, "square processor", err)
	} else {
		logg.Warn(ctx, "square not configured; checkout returns fallback links only")
		readiness["processor"] = nil
	}

	var telegramSender notify.Notifier
	if cfg.Telegram.Enabled() {
		sender, err := notify.NewTelegramSender(cfg.Telegram)
		requireResource(ctx, logg, "telegram sender", err)
		telegramSender = sender
	}

	checkoutNotifier := telegramSender
	if cfg.Notify.RelayURL != "" {
		relay, err := notify.NewRelayClient(cfg.Notify.RelayURL, cfg.Notify.Timeout)
		requireResource(ctx, logg, "notify relay", err)
		checkoutNotifier = relay
	}

	deliveryStore, err := delivery.NewStore(redisClient, cfg.Checkout.DeliveryTTL)
	requireResource(ctx, logg, "delivery store", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Store:         paymentStore,
		Processor:     processor,
		Delivery:      deliveryStore,
		Notifier:      checkoutNotifier,
		Contacts:      settingsService,
		Logger:        logg,
		Metrics:       metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		NotifyTimeout: cfg.Notify.Timeout,
	})
	requireResource(ctx, logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"payments_store": cfg.Payments.Store,
	})

	handler := routes.NewRouter(
		cfg,
		logg,
		readiness,
		promhttp.Handler(),
		redisClient,
		sessionManager,
		authService,
		videoService,
		paymentStore,
		checkoutService,
		proofService,
		settingsService,
		telegramSender,
	)

	logg.Info(ctx, "starting api server")
	if err := api.Serve(ctx, api.NewServer(addr, handler), nil, logg, api.DefaultShutdownTimeout); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func settingsDefaults(cfg *config.Config) models.SiteSettings {
	defaults := models.SiteSettings{ProcessorClientID: cfg.Square.ApplicationID}
	if env, err := enums.ParseProcessorEnvironment(cfg.Square.Environment); err == nil {
		defaults.ProcessorEnvironment = env
	}
	return defaults
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
