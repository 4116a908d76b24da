package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sketchbluff"

var (
	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms currently held by the registry",
		},
	)
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open websocket sessions",
		},
	)
	GamesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games started by a room leader",
		},
	)
	PhaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Stage entries, by stage",
		},
		[]string{"stage"},
	)
	TimerExpirations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_expirations_total",
			Help:      "Countdowns that reached zero, by stage",
		},
		[]string{"stage"},
	)
	ActionsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_dropped_total",
			Help:      "Inbound actions rejected without a reply",
		},
		[]string{"event", "reason"},
	)
	BroadcastOverflow = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_overflow_total",
			Help:      "Outbound events dropped because a connection buffer was full",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RoomsActive,
		ConnectionsActive,
		GamesStarted,
		PhaseTransitions,
		TimerExpirations,
		ActionsDropped,
		BroadcastOverflow,
	)
}
