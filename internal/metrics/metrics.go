// Package metrics holds the Prometheus collectors for the cart service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	appErrors "github.com/aaravmahajanofficial/storefront-cart/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"route", "method"})

	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	cartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "operations_total",
		Help:      "Cart operations by outcome; result is ok or the error code.",
	}, []string{"operation", "result"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "persist_failures_total",
		Help:      "Cart snapshots the persistence backend failed to save.",
	})
)

// RecordCartOperation counts one cart operation. Failures are labelled with
// their app error code.
func RecordCartOperation(operation string, err error) {
	cartOperations.WithLabelValues(operation, resultOf(err)).Inc()
}

func RecordPersistFailure() {
	persistFailures.Inc()
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}

	if appErr, ok := appErrors.IsAppError(err); ok {
		return appErr.Code
	}

	return appErrors.ErrCodeInternal
}

type codeRecorder struct {
	http.ResponseWriter
	code int
}

func (c *codeRecorder) WriteHeader(code int) {
	c.code = code
	c.ResponseWriter.WriteHeader(code)
}

// Middleware instruments next, labelling by the mux route pattern so ids in
// the path don't blow up cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		started := time.Now()
		rec := &codeRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rec, r)

		// the mux sets r.Pattern during routing
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(started).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
