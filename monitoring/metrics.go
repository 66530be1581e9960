package monitoring

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"tickethub/utils"
)

var (
	salesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_sales_recorded_total",
			Help: "Total ticket sales recorded, including idempotent replays",
		},
		[]string{"event_id", "outcome"},
	)

	payoutOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_operations_total",
			Help: "Total payout ledger operations",
		},
		[]string{"operation", "status"},
	)

	gatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total payment gateway calls",
		},
		[]string{"operation", "status"},
	)

	summaryUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monthly_summary_updates_total",
			Help: "Total monthly summary mutations",
		},
		[]string{"kind"},
	)

	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Total checkout sessions by outcome",
		},
		[]string{"outcome"},
	)
)

// TrackSaleRecorded counts a sale confirmation. Outcome is "created",
// "promoted" or "replay".
func TrackSaleRecorded(eventID, outcome string) {
	salesRecorded.WithLabelValues(eventID, outcome).Inc()
}

// TrackPayout counts a payout ledger operation.
func TrackPayout(operation, status string) {
	payoutOperations.WithLabelValues(operation, status).Inc()
}

// TrackGatewayRequest counts a gateway call.
func TrackGatewayRequest(operation, status string) {
	gatewayRequests.WithLabelValues(operation, status).Inc()
}

// TrackSummaryUpdate counts a monthly summary mutation.
func TrackSummaryUpdate(kind string) {
	summaryUpdates.WithLabelValues(kind).Inc()
}

// TrackCheckoutSession counts a checkout session outcome.
func TrackCheckoutSession(outcome string) {
	checkoutSessions.WithLabelValues(outcome).Inc()
}

// NewMetricsServer builds the standalone metrics/health server. The caller
// owns starting and stopping it.
func NewMetricsServer(addr string, redisClient *redis.Client) *http.Server {
	e := echo.New()

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	return &http.Server{
		Addr:    addr,
		Handler: e,
	}
}
