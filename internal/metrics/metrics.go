// Package metrics exposes the hub's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks users currently registered with the hub.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "apoloteams",
		Subsystem: "hub",
		Name:      "active_connections",
		Help:      "Number of users currently registered with the hub.",
	})

	// FramesReceived counts inbound frames by protocol type.
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apoloteams",
		Subsystem: "hub",
		Name:      "frames_received_total",
		Help:      "Inbound WebSocket frames, labeled by frame type.",
	}, []string{"type"})

	// BroadcastsSent counts fan-out operations by scope kind.
	BroadcastsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apoloteams",
		Subsystem: "hub",
		Name:      "broadcasts_total",
		Help:      "Broadcast operations, labeled by scope (channel, call, all, user).",
	}, []string{"scope"})

	// DroppedFrames counts frames discarded because a consumer lagged.
	DroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "apoloteams",
		Subsystem: "hub",
		Name:      "dropped_frames_total",
		Help:      "Outbound frames dropped due to a lagging consumer.",
	})
)
