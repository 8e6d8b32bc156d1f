package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostelcart/hostelcart-backend/api/controllers"
	"github.com/hostelcart/hostelcart-backend/api/middleware"
	"github.com/hostelcart/hostelcart-backend/internal/groups"
	"github.com/hostelcart/hostelcart-backend/internal/items"
	"github.com/hostelcart/hostelcart-backend/internal/orders"
	"github.com/hostelcart/hostelcart-backend/internal/settlement"
	"github.com/hostelcart/hostelcart-backend/internal/users"
	"github.com/hostelcart/hostelcart-backend/pkg/auth/session"
	"github.com/hostelcart/hostelcart-backend/pkg/config"
	"github.com/hostelcart/hostelcart-backend/pkg/db"
	"github.com/hostelcart/hostelcart-backend/pkg/logger"
	"github.com/hostelcart/hostelcart-backend/pkg/metrics"
	"github.com/hostelcart/hostelcart-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Cfg            *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	HTTPMetrics    *metrics.HTTPMetrics
	PromRegistry   *prometheus.Registry

	Groups     groups.Service
	Items      items.Service
	Settlement settlement.Service
	Orders     orders.Service
	Users      users.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Cfg
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
	)

	joinPolicy := middleware.NewJoinRateLimitPolicy(
		"join",
		cfg.RateLimit.JoinWindow,
		cfg.RateLimit.JoinIPLimit,
		cfg.RateLimit.JoinCodeLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, controllers.ReadinessDeps(d.DB, d.Redis)))
	})

	if d.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.Ping())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		if cfg.App.IsDev() {
			r.Post("/dev-token", controllers.DevToken(d.SessionManager, d.Users, cfg.JWT, logg))
		}
		r.Post("/refresh", controllers.AuthRefresh(d.SessionManager, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(d.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Get("/users/me", controllers.MyProfile(d.Users, logg))

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", controllers.CreateGroup(d.Groups, logg))
			r.Get("/", controllers.ListMyGroups(d.Groups, logg))
			r.Get("/code/{code}", controllers.ResolveInviteCode(d.Groups, logg))
			r.With(middleware.JoinRateLimit(joinPolicy, d.Redis, logg)).Post("/join", controllers.JoinGroup(d.Groups, logg))

			r.Route("/{groupId}", func(r chi.Router) {
				r.Get("/", controllers.GroupDetail(d.Groups, d.Items, d.Settlement, logg))
				r.Post("/items", controllers.AddItem(d.Items, logg))
				r.Delete("/items/{itemId}", controllers.RemoveItem(d.Items, logg))
				r.Get("/settlement", controllers.SettlementBreakdown(d.Settlement, logg))
				r.Post("/pay", controllers.PayShare(d.Settlement, logg))
				r.Post("/members/{memberId}/unpay", controllers.MarkMemberUnpaid(d.Settlement, logg))
				r.Post("/lock", controllers.LockGroup(d.Groups, logg))
				r.Post("/cancel", controllers.CancelGroup(d.Groups, logg))
				r.Post("/place", controllers.PlaceOrder(d.Orders, logg))
				r.Get("/order", controllers.GetStoreOrder(d.Orders, logg))
				r.Post("/delivered", controllers.MarkDelivered(d.Orders, logg))
			})
		})
	})

	return r
}
