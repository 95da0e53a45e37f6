// Package metrics defines the Prometheus collectors of the bot.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Updates counts handled Telegram updates by kind and outcome.
	Updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "salonbot", Name: "updates_total", Help: "Handled Telegram updates."},
		[]string{"kind", "outcome"},
	)
	// UpdateLatency observes update handling time by kind.
	UpdateLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salonbot", Name: "update_duration_seconds",
			Help:    "Update handling duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	// OutboundMessages counts sends to chats by kind (text or photo) and outcome.
	OutboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "salonbot", Name: "outbound_messages_total", Help: "Messages sent to chats."},
		[]string{"kind", "outcome"},
	)
	// StoreOps counts asset and review store operations.
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "salonbot", Name: "store_operations_total", Help: "Asset and review store operations."},
		[]string{"store", "op", "outcome"},
	)
	// ReviewsStored is the size of the live review collection.
	ReviewsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "salonbot", Name: "reviews_stored", Help: "Reviews in the live collection."},
	)
	// HTTPRequests counts health server requests by route, method and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "salonbot", Name: "http_requests_total", Help: "Health server requests."},
		[]string{"route", "method", "status"},
	)
	// HTTPLatency observes health server request time by route and method.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salonbot", Name: "http_request_duration_seconds",
			Help:    "Health server request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// InitRegistry returns a registry holding every bot collector plus Go runtime metrics.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		Updates, UpdateLatency, OutboundMessages, StoreOps, ReviewsStored,
		HTTPRequests, HTTPLatency,
		collectors.NewGoCollector(),
	)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "fail"
}

// ObserveUpdate records one handled update and its duration.
func ObserveUpdate(kind string, dur time.Duration, err error) {
	Updates.WithLabelValues(kind, Outcome(err)).Inc()
	UpdateLatency.WithLabelValues(kind).Observe(dur.Seconds())
}

// ObserveSend records one outbound message.
func ObserveSend(kind string, err error) {
	OutboundMessages.WithLabelValues(kind, Outcome(err)).Inc()
}

// ObserveStore records one store operation.
func ObserveStore(store, op string, err error) {
	StoreOps.WithLabelValues(store, op, Outcome(err)).Inc()
}

// ObserveHTTP records one health server request.
func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// SetReviews publishes the current review count.
func SetReviews(n int) { ReviewsStored.Set(float64(n)) }
