// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenpod_sessions_created_total",
			Help: "Total number of sessions created",
		},
		[]string{"mode"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenpod_session_transitions_total",
			Help: "Committed session state transitions",
		},
		[]string{"transition"},
	)

	GatewayErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenpod_gateway_errors_total",
			Help: "Payment gateway calls that failed",
		},
		[]string{"op"},
	)

	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zenpod_gateway_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenpod_provider_errors_total",
			Help: "AI and TTS provider calls that failed",
		},
		[]string{"provider"},
	)
)

// Label values.
const (
	ModeSimulated = "simulated"
	ModeLive      = "live"

	TransitionActivated      = "activated"
	TransitionForceActivated = "force_activated"
	TransitionExpired        = "expired"

	OpCreateOrder = "create_order"
	OpQueryOrder  = "query_order"

	ProviderAI  = "ai"
	ProviderTTS = "tts"
)
