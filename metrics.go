package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.

// httpRequestsTotal is a Prometheus counter vector that tracks the total number of HTTP requests.
// It is partitioned by the route pattern, HTTP method, and the resulting status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "weatherdash_http_requests_total",
	Help: "Total number of HTTP requests by path, method and code.",
}, []string{"path", "method", "code"})

// externalRequestDuration observes outbound calls to the weather provider, per host.
var externalRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "weatherdash_external_request_duration_seconds",
	Help:    "Duration of outbound requests to weather providers by host.",
	Buckets: prometheus.DefBuckets,
}, []string{"host"})

// gatewayRequestsTotal counts gateway operations by outcome ("ok" or "error").
var gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "weatherdash_gateway_requests_total",
	Help: "Total number of gateway operations by operation and outcome.",
}, []string{"operation", "outcome"})

// staleFetchesTotal counts forecast completions dropped because a newer fetch was issued.
var staleFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "weatherdash_stale_fetches_total",
	Help: "Total number of forecast results discarded as superseded.",
})

// activeSessions tracks the number of live dashboard sessions.
var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "weatherdash_active_sessions",
	Help: "Number of dashboard sessions currently held in memory.",
})
