package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayErrors counts failed data store operations by model and operation.
	GatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_gateway_errors_total",
		Help: "Failed data store operations",
	}, []string{"model", "operation"})

	// FeedEvents counts reconciler events applied, by kind and result.
	FeedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_feed_events_total",
		Help: "Feed reconciler events applied",
	}, []string{"kind", "result"})

	// CascadeSteps counts cascade deletion step outcomes.
	CascadeSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_cascade_steps_total",
		Help: "Cascade deletion step outcomes",
	}, []string{"step", "outcome"})

	// RedisErrors counts Redis command failures.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_redis_errors_total",
		Help: "Redis command failures",
	}, []string{"command"})

	// RealtimeClients tracks connected websocket feed clients.
	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_realtime_clients",
		Help: "Connected websocket feed clients",
	})
)
