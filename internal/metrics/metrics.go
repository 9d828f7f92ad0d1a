package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matches_total",
		Help: "Total matchmaking pairings completed",
	})
	MovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moves_total",
		Help: "Total committed move transactions",
	})
	MoveConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "move_conflicts_total",
		Help: "Total move transactions rejected by in-transaction validation",
	})
	GamesFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "games_finished_total",
		Help: "Total finished games by outcome",
	}, []string{"outcome"})
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_connections",
		Help: "Currently connected game clients",
	})
)

func init() {
	prometheus.MustRegister(
		MatchesTotal,
		MovesTotal,
		MoveConflictsTotal,
		GamesFinishedTotal,
		ActiveConnections,
	)
}
