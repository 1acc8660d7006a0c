package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryoevisu/kaishop-backend/api/controllers"
	"github.com/ryoevisu/kaishop-backend/api/middleware"
	"github.com/ryoevisu/kaishop-backend/internal/cart"
	"github.com/ryoevisu/kaishop-backend/internal/identity"
	"github.com/ryoevisu/kaishop-backend/internal/notifications"
	"github.com/ryoevisu/kaishop-backend/internal/orders"
	"github.com/ryoevisu/kaishop-backend/internal/realtime"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	"github.com/ryoevisu/kaishop-backend/pkg/logger"
	"github.com/ryoevisu/kaishop-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	Registry      *prometheus.Registry
	Identity      identity.Service
	Cart          cart.Service
	Orders        orders.Service
	Notifications notifications.Service
	Realtime      *realtime.Handler
}

// NewRouter assembles the HTTP surface: health and metrics, the websocket
// endpoint, the public auth routes, and the authenticated API.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		if deps.Redis != nil {
			r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Redis))
		} else {
			r.Get("/ready", controllers.HealthReady(cfg, logg))
		}
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	if deps.Realtime != nil {
		r.Method(http.MethodGet, "/ws", deps.Realtime)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)

	passthrough := func(next http.Handler) http.Handler { return next }
	loginLimit, registerLimit := passthrough, passthrough
	if deps.Redis != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
		registerLimit = middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(registerLimit).Post("/register", controllers.Register(deps.Identity, logg))
		r.With(loginLimit).Post("/login", controllers.Login(deps.Identity, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/profile", controllers.GetProfile(deps.Identity, logg))
			r.Put("/profile", controllers.UpdateProfile(deps.Identity, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Post("/", controllers.AddCartItem(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
				r.Delete("/{itemRef}", controllers.RemoveCartItem(deps.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.Orders, logg))
			r.Get("/orders", controllers.ListOrders(deps.Orders, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Put("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleAdministrator), logg))

				r.Get("/orders", controllers.AdminListOrders(deps.Orders, logg))
				r.Post("/orders/{orderID}/reply", controllers.AdminReplyToOrder(deps.Orders, logg))
			})
		})
	})

	return r
}
