package ws

import (
	"testing"

	"ludo_arena/internal/domain"
	"ludo_arena/internal/game"
)

func TestRepairLoop_ResumesOrphanedMatch(t *testing.T) {
	hub, reg := testHub(t, &fakeReserver{})

	seats := [2]domain.Seat{
		{Color: domain.ColorRed, UserID: 1},
		{Color: domain.ColorGreen, UserID: 2},
	}
	m := game.NewMatch("m-orphan", 10, seats, 0)
	reg.mu.Lock()
	reg.active = append(reg.active, m)
	reg.mu.Unlock()

	rl := NewRepairLoop(hub, reg)
	rl.sweep()

	room, ok := hub.ActiveRoom(m.ID)
	if !ok {
		t.Fatalf("осиротевший матч должен получить комнату")
	}
	defer close(room.done)

	// оба места без соединений - автопилот до переподключения
	for i := range m.Seats {
		if m.Seats[i].Autopilot != domain.AutopilotDisconnected {
			t.Fatalf("место %d должно быть на автопилоте", i)
		}
	}
}

func TestRepairLoop_RetriesSettlement(t *testing.T) {
	hub, reg := testHub(t, &fakeReserver{})

	// расчет сорвался в момент победы: матч завершен, флаг не установлен
	seats := [2]domain.Seat{
		{Color: domain.ColorRed, UserID: 1},
		{Color: domain.ColorGreen, UserID: 2},
	}
	m := game.NewMatch("m-unsettled", 10, seats, 0)
	m.Status = domain.MatchCompleted
	m.TurnState = domain.TurnGameOver
	m.Winners = []domain.Color{domain.ColorRed}

	reg.mu.Lock()
	reg.unsettled = append(reg.unsettled, m)
	reg.mu.Unlock()

	rl := NewRepairLoop(hub, reg)
	rl.sweep()

	settler := hub.settler.(*memSettler)
	settler.mu.Lock()
	settled := settler.settled
	settler.mu.Unlock()
	if !settled {
		t.Fatalf("контур ремонта должен дожать сорвавшийся расчет")
	}
	if !m.SettlementProcessed {
		t.Fatalf("после дожима флаг расчета должен быть установлен")
	}
}

func TestRepairLoop_SkipsLiveRooms(t *testing.T) {
	hub, reg := testHub(t, &fakeReserver{})

	seats := [2]domain.Seat{
		{Color: domain.ColorRed, UserID: 1},
		{Color: domain.ColorGreen, UserID: 2},
	}
	m := game.NewMatch("m-live", 10, seats, 0)
	room := NewRoom(m, hub, hub.scheduler, reg, &memSettler{})
	hub.mu.Lock()
	hub.rooms[m.ID] = room
	hub.mu.Unlock()

	reg.mu.Lock()
	reg.active = append(reg.active, m)
	reg.mu.Unlock()

	rl := NewRepairLoop(hub, reg)
	rl.sweep()

	// живая комната получает команду самопроверки, а не замену
	got, _ := hub.ActiveRoom(m.ID)
	if got != room {
		t.Fatalf("живая комната не должна подменяться")
	}
	select {
	case cmd := <-room.inbox:
		if cmd.kind != cmdRepair {
			t.Fatalf("ожидалась команда ремонта, получено %v", cmd.kind)
		}
	default:
		t.Fatalf("живая комната должна получить команду ремонта")
	}
}
