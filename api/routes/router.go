package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaultcast/storefront-backend/api/controllers"
	"github.com/vaultcast/storefront-backend/api/middleware"
	"github.com/vaultcast/storefront-backend/internal/auth"
	checkoutsvc "github.com/vaultcast/storefront-backend/internal/checkout"
	"github.com/vaultcast/storefront-backend/internal/notify"
	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/internal/proofs"
	"github.com/vaultcast/storefront-backend/internal/videos"
	pkgAuth "github.com/vaultcast/storefront-backend/pkg/auth"
	"github.com/vaultcast/storefront-backend/pkg/auth/session"
	"github.com/vaultcast/storefront-backend/pkg/config"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	"github.com/vaultcast/storefront-backend/pkg/logger"
	pkgredis "github.com/vaultcast/storefront-backend/pkg/redis"
)

// KeyValueStore backs idempotency replay and rate limiting. The Redis client
// satisfies it; nil disables both.
type KeyValueStore interface {
	pkgredis.IdempotencyStore
	middleware.RateLimiterStore
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	metricsHandler http.Handler,
	kv KeyValueStore,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	videoService videos.Service,
	paymentStore payments.Store,
	checkoutService checkoutsvc.Service,
	proofService proofs.Service,
	settingsService controllers.SettingsService,
	telegramSender notify.Notifier,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		idempotencyStore pkgredis.IdempotencyStore
		limiterStore     middleware.RateLimiterStore
	)
	if kv != nil {
		idempotencyStore = kv
		limiterStore = kv
	}

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
	).WithFieldLimit("email", cfg.AuthRateLimit.LoginEmailLimit)
	relayPolicy := middleware.NewRateLimitPolicy(
		"telegram_relay",
		cfg.AuthRateLimit.RelayWindow,
		cfg.AuthRateLimit.RelayIPLimit,
	)

	currency, err := enums.ParseCurrency(cfg.Checkout.Currency)
	if err != nil {
		currency = enums.CurrencyUSD
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BuyerSession(cfg.App.IsProd(), logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/settings", controllers.PublicSettings(settingsService, logg))

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", controllers.PublicListVideos(videoService, logg))
			r.Route("/{videoId}", func(r chi.Router) {
				r.Get("/", controllers.PublicGetVideo(videoService, logg))
				r.Post("/views", controllers.PublicRecordView(videoService, logg))
				r.Post("/checkout", controllers.CheckoutStart(checkoutService, videoService, currency, logg))
				r.Post("/checkout/capture", controllers.CheckoutCapture(checkoutService, videoService, currency, logg))
				r.Get("/delivery", controllers.CheckoutDelivery(checkoutService, logg))
				r.Get("/fallback", controllers.CheckoutFallback(checkoutService, videoService, currency, logg))
			})
		})

		r.Post("/payments/{paymentId}/cancel", controllers.PaymentCancel(checkoutService, logg))
		r.Get("/proofs", controllers.PublicListProofs(proofService, logg))
		r.With(middleware.RateLimit(relayPolicy, limiterStore, logg)).
			Post("/telegram/notify", controllers.TelegramNotify(telegramSender, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, limiterStore, logg)).
			Post("/auth/login", controllers.AdminAuthLogin(authService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
			r.Use(middleware.RequireRole(logg, pkgAuth.RoleAdmin))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Post("/auth/logout", controllers.AdminAuthLogout(authService, logg))

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", controllers.AdminListVideos(videoService, logg))
				r.Post("/", controllers.AdminCreateVideo(videoService, logg))
				r.Get("/{videoId}", controllers.AdminGetVideo(videoService, logg))
				r.Put("/{videoId}", controllers.AdminUpdateVideo(videoService, logg))
				r.Delete("/{videoId}", controllers.AdminDeleteVideo(videoService, logg))
				r.Get("/{videoId}/payments", controllers.AdminVideoPayments(paymentStore, logg))
			})
			r.Get("/payments/{paymentId}", controllers.AdminGetPayment(paymentStore, logg))

			r.Route("/proofs", func(r chi.Router) {
				r.Get("/", controllers.AdminListProofs(proofService, logg))
				r.Post("/", controllers.AdminCreateProof(proofService, logg))
				r.Get("/{proofId}", controllers.AdminGetProof(proofService, logg))
				r.Put("/{proofId}", controllers.AdminUpdateProof(proofService, logg))
				r.Delete("/{proofId}", controllers.AdminDeleteProof(proofService, logg))
				r.Post("/{proofId}/approve", controllers.AdminApproveProof(proofService, logg))
				r.Post("/{proofId}/reject", controllers.AdminRejectProof(proofService, logg))
			})

			r.Get("/settings", controllers.AdminGetSettings(settingsService, logg))
			r.Put("/settings", controllers.AdminUpdateSettings(settingsService, logg))
			r.Get("/settings/processor-environment", controllers.AdminInspectProcessorEnvironment(settingsService, logg))
		})
	})

	return r
}
