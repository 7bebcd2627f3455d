package ws

import (
	"context"
	"time"

	"ludo_arena/internal/domain"
	"ludo_arena/internal/logger"
	"ludo_arena/internal/metrics"
)

const (
	RepairInterval = 15 * time.Second

	// состояние моложе этого срока не чинится - оно может быть
	// легитимной короткой фазой (пауза после пустого броска)
	RepairStaleAfter = 30 * time.Second
)

// выборки матчей для контура ремонта
type MatchLister interface {
	ListActive(ctx context.Context) ([]*domain.Match, error)
	ListUnsettled(ctx context.Context) ([]*domain.Match, error)
}

// Контур консистентности: периодически обходит активные матчи. Матч с
// живой комнатой получает команду самопроверки, матч без комнаты
// (осиротевший после рестарта) поднимается заново на автопилоте.
// Завершенные матчи с несработавшим расчетом дожимаются повторным
// вызовом расчетного движка.
type RepairLoop struct {
	hub     *Hub
	matches MatchLister
	stop    chan struct{}
}

func NewRepairLoop(hub *Hub, matches MatchLister) *RepairLoop {
	return &RepairLoop{hub: hub, matches: matches, stop: make(chan struct{})}
}

func (rl *RepairLoop) Start() {
	go func() {
		ticker := time.NewTicker(RepairInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep()
			case <-rl.stop:
				return
			}
		}
	}()
}

func (rl *RepairLoop) Stop() {
	close(rl.stop)
}

func (rl *RepairLoop) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	active, err := rl.matches.ListActive(ctx)
	if err != nil {
		logger.Error("repair: выборка активных матчей не удалась", "error", err)
		return
	}

	for _, m := range active {
		if room, ok := rl.hub.ActiveRoom(m.ID); ok {
			room.PostRepair()
			continue
		}
		rl.hub.ResumeMatch(m)
	}

	unsettled, err := rl.matches.ListUnsettled(ctx)
	if err != nil {
		logger.Error("repair: выборка нерассчитанных матчей не удалась", "error", err)
		return
	}
	for _, m := range unsettled {
		if err := rl.hub.settler.Settle(ctx, m); err != nil {
			logger.Error("repair: дожим расчета не удался", "match", m.ID, "error", err)
			continue
		}
		metrics.RepairsApplied.Inc()
		logger.Warn("repair: расчет доведен повторным вызовом", "match", m.ID)
	}
}
