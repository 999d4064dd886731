// Package metrics exposes Prometheus collectors for the HTTP API and the
// catalog sync.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skintracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skintracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skintracker",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of catalog sync runs.",
		},
		[]string{"status"},
	)

	syncSkins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skintracker",
			Subsystem: "sync",
			Name:      "skins_total",
			Help:      "Skins processed by the catalog sync, by outcome.",
		},
		[]string{"outcome"},
	)

	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "skintracker",
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of catalog sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		syncRuns,
		syncSkins,
		syncDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		method := c.Method()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordSync records the outcome of one catalog sync run.
func RecordSync(created, updated, skipped int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	syncRuns.WithLabelValues(status).Inc()
	syncSkins.WithLabelValues("new").Add(float64(created))
	syncSkins.WithLabelValues("updated").Add(float64(updated))
	syncSkins.WithLabelValues("skipped").Add(float64(skipped))
	syncDuration.Observe(duration.Seconds())
}
