package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farzana24/RideN-Bite-sub001/api/controllers"
	"github.com/farzana24/RideN-Bite-sub001/api/middleware"
	"github.com/farzana24/RideN-Bite-sub001/internal/notifications"
	"github.com/farzana24/RideN-Bite-sub001/internal/orders"
	"github.com/farzana24/RideN-Bite-sub001/internal/payments"
	"github.com/farzana24/RideN-Bite-sub001/internal/realtime"
	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
	"github.com/farzana24/RideN-Bite-sub001/pkg/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           controllers.Pinger
	Hub             *realtime.Hub
	Orders          orders.Service
	Payments        payments.Service
	Notifications   notifications.Service
	PaymentMetrics  *metrics.PaymentMetrics
	MetricsRegistry *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	// Processor callbacks are unauthenticated by protocol. Settlement is
	// gated on the server-to-server validator verdict; fail and cancel
	// require the transaction id minted for the active attempt.
	r.Route("/api/v1/payments/gateway", func(r chi.Router) {
		r.Post("/success", controllers.GatewaySuccess(deps.Payments, cfg.Gateway, deps.PaymentMetrics, logg))
		r.Post("/fail", controllers.GatewayFail(deps.Payments, cfg.Gateway, deps.PaymentMetrics, logg))
		r.Post("/cancel", controllers.GatewayCancel(deps.Payments, cfg.Gateway, deps.PaymentMetrics, logg))
		r.Post("/ipn", controllers.GatewayIPN(deps.Payments, deps.PaymentMetrics, logg))
	})

	r.Get("/ws", controllers.RealtimeChannel(deps.Hub, cfg.JWT, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.With(middleware.RequireRole(logg, string(enums.RoleCustomer))).
			Post("/payments/initiate", controllers.InitiatePayment(deps.Payments, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.With(middleware.RequireRole(logg,
				string(enums.RoleRestaurant),
				string(enums.RoleRider),
				string(enums.RoleAdmin),
			)).Post("/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, deps.Notifications, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole(logg, string(enums.RoleAdmin)),
		)
		r.Post("/payments/refund", controllers.RefundPayment(deps.Payments, logg))
	})

	return r
}
