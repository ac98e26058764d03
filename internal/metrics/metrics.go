package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics: counter/histogram Prometheus untuk booking service.
type Metrics struct {
	OrdersPlacedTotal   prometheus.Counter
	OrdersRejectedTotal *prometheus.CounterVec // label: reason
	SpacesAdjustedTotal prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec // label: method, route, status
}

func New() *Metrics {
	return &Metrics{
		OrdersPlacedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "booking_orders_placed_total",
			Help: "Total committed orders",
		}),
		OrdersRejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_orders_rejected_total",
			Help: "Total rejected order requests by reason",
		}, []string{"reason"}),
		SpacesAdjustedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "booking_spaces_adjusted_total",
			Help: "Total administrative capacity adjustments",
		}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
