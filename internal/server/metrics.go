package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpass_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardpass_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpass_scans_total",
			Help: "Total number of QR scans by outcome",
		},
		[]string{"source", "outcome"}, // source: upload, websocket
	)

	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpass_ticket_lookups_total",
			Help: "Total number of ticket lookups by outcome",
		},
		[]string{"outcome"}, // found, not_found, unavailable, invalid
	)

	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpass_renders_total",
			Help: "Total number of boarding pass renders",
		},
		[]string{"profile", "status"},
	)

	renderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boardpass_render_duration_seconds",
			Help:    "Boarding pass render duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	logoFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boardpass_logo_fallbacks_total",
			Help: "Renders that used the text header because the logo was unavailable",
		},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpass_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // minute, hour, requests, data
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boardpass_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 5 * 1024 * 1024, 10 * 1024 * 1024},
		},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boardpass_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpass_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // sent, received
	)
)
