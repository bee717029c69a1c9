package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricGamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "games_started_total",
		Help:      "Games created.",
	})

	metricGamesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "games_completed_total",
		Help:      "Games that reached a normal terminal state, by winning team.",
	}, []string{"winning_team"})

	metricGamesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "games_failed_total",
		Help:      "Games terminated by an error, by error kind.",
	}, []string{"reason"})

	metricActiveGames = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arena",
		Name:      "active_games",
		Help:      "Games currently registered.",
	})

	metricDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "decisions_total",
		Help:      "Tool decisions made, by tool and decider kind.",
	}, []string{"tool", "decider"})

	metricOpponentTokens = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "opponent_tokens_total",
		Help:      "Tokens consumed by opponent LLM calls.",
	})
)
