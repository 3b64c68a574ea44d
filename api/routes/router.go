package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/floret-storefront/api/controllers"
	"github.com/angelmondragon/floret-storefront/api/middleware"
	"github.com/angelmondragon/floret-storefront/internal/address"
	"github.com/angelmondragon/floret-storefront/internal/auth"
	"github.com/angelmondragon/floret-storefront/internal/cart"
	"github.com/angelmondragon/floret-storefront/internal/delivery"
	"github.com/angelmondragon/floret-storefront/internal/orders"
	product "github.com/angelmondragon/floret-storefront/internal/products"
	"github.com/angelmondragon/floret-storefront/internal/session"
	"github.com/angelmondragon/floret-storefront/pkg/config"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
	"github.com/angelmondragon/floret-storefront/pkg/metrics"
)

type sessionResolver interface {
	GetUser(ctx context.Context, w http.ResponseWriter, r *http.Request) *session.Record
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the collaborators the HTTP surface is built from. Nil
// Pingers are skipped by the readiness probe; a nil RateLimiter disables
// sign-in throttling.
type Dependencies struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Storefront
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	ReadyChecks    map[string]controllers.Pinger
	RateLimiter    rateLimiter

	Sessions sessionResolver
	Carts    *cart.Registry
	Auth     auth.Service
	Products product.Service
	Orders   orders.Service
	Address  address.Service
	Delivery delivery.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.CORS(cfg.CORS),
	)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"signin",
		cfg.AuthRateLimit.SignInWindow,
		cfg.AuthRateLimit.SignInIPLimit,
		cfg.AuthRateLimit.SignInEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignUpWindow,
		cfg.AuthRateLimit.SignUpIPLimit,
		cfg.AuthRateLimit.SignUpEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.ReadyChecks, logg))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
		})
		r.Get("/address/autocomplete", controllers.AddressAutocomplete(deps.Address, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(deps.Sessions, cfg.Session, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Carts, logg))
				r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Products, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Carts, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Carts, logg))
				r.Post("/coupon", controllers.CartApplyCoupon(deps.Carts, logg))
				r.Delete("/coupon", controllers.CartRemoveCoupon(deps.Carts, logg))
				r.Get("/delivery-options", controllers.CartDeliveryOptions(deps.Carts, deps.Delivery, deps.Address, logg))
				r.Put("/delivery", controllers.CartSelectDelivery(deps.Carts, deps.Delivery, logg))
			})

			r.Route("/auth", func(r chi.Router) {
				r.Get("/user", controllers.AuthCurrentUser(deps.Auth, logg))
				r.With(middleware.AuthRateLimit(signInPolicy, deps.RateLimiter, logg)).Post("/signin", controllers.AuthSignIn(deps.Auth, logg))
				r.With(middleware.AuthRateLimit(signUpPolicy, deps.RateLimiter, logg)).Post("/signup", controllers.AuthSignUp(deps.Auth, logg))
				r.Post("/signout", controllers.AuthSignOut(deps.Auth, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Use(middleware.RequireUser(logg))
				r.Get("/user", controllers.OrdersList(deps.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			})
		})
	})

	return r
}
