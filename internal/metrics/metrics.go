package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики и датчики арены, отдаются через /metrics
var (
	MatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_started_total",
		Help: "Сколько матчей создано матчмейкингом",
	})
	MatchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_completed_total",
		Help: "Сколько матчей доиграно до победителя",
	})
	MatchesSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_settled_total",
		Help: "Сколько матчей рассчитано (выплата произведена)",
	})
	CommissionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_commission_coins_total",
		Help: "Суммарная комиссия платформы в коинах",
	})
	SearchTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_search_timeouts_total",
		Help: "Заявки на поиск, вычищенные по давности",
	})
	ForcedRolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_forced_rolls_total",
		Help: "Броски, выполненные сервером за просрочившего игрока",
	})
	AutopilotTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_autopilot_turns_total",
		Help: "Полные ходы, сыгранные автопилотом",
	})
	RepairsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_repairs_applied_total",
		Help: "Исправления, внесенные циклом восстановления консистентности",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_active_rooms",
		Help: "Количество живых комнат матчей",
	})
	WaitingPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_waiting_players",
		Help: "Количество заявок в очереди подбора",
	})
)
