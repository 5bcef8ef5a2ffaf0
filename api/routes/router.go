package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-orders/api/controllers"
	ordercontrollers "github.com/angelmondragon/storefront-orders/api/controllers/orders"
	"github.com/angelmondragon/storefront-orders/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront-orders/internal/checkout"
	"github.com/angelmondragon/storefront-orders/internal/orders"
	"github.com/angelmondragon/storefront-orders/pkg/config"
	"github.com/angelmondragon/storefront-orders/pkg/db"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-orders/pkg/redis"
)

// RedisStore is the slice of the redis client the router needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient RedisStore,
	gatherer prometheus.Gatherer,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := func(h http.Handler) http.Handler { return h }
	if cfg.FeatureFlags.CheckoutIdemKeys && redisClient != nil {
		idempotent = middleware.Idempotency(redisClient, logg)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(idempotent).Post("/checkout", ordercontrollers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Patch("/confirm", ordercontrollers.Confirm(ordersService, logg))
			r.Patch("/cancel", ordercontrollers.Cancel(ordersService, logg))
			r.Post("/track", ordercontrollers.Track(ordersService, logg))
		})

		r.Route("/staff/orders", func(r chi.Router) {
			r.Use(middleware.StaffAuth(cfg.JWT, logg))
			r.Post("/query", ordercontrollers.StaffQuery(ordersService, logg))
			r.Patch("/status", ordercontrollers.StaffStatus(ordersService, logg))
			r.With(idempotent).Patch("/notify", ordercontrollers.StaffNotify(ordersService, logg))
		})
	})

	return r
}
