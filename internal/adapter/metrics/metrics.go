package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status changes written to storage",
		},
		[]string{"from", "to"},
	)

	catalogReordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reorders_total",
			Help: "Catalog reorder batches by collection and outcome",
		},
		[]string{"collection", "outcome"},
	)

	kitchenOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_orders_total",
			Help: "Kitchen queue messages by worker and outcome",
		},
		[]string{"worker", "outcome"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware collects request count and latency per chi route pattern.
func Middleware(service string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(service, r.Method, route, status).Inc()
			httpRequestDuration.WithLabelValues(service, r.Method, route, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveTransition(from, to domain.Status) {
	orderTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

// ObserveReorder counts one reorder batch. Empty batches count as "noop".
func ObserveReorder(collection domain.Collection, batchSize int, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case batchSize == 0:
		outcome = "noop"
	}
	catalogReordersTotal.WithLabelValues(string(collection), outcome).Inc()
}

func ObserveKitchenOrder(worker, outcome string) {
	kitchenOrdersTotal.WithLabelValues(worker, outcome).Inc()
}
