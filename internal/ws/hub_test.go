package ws

import (
	"context"
	"sync"
	"testing"

	"ludo_arena/internal/service"
)

type fakeReserver struct {
	mu       sync.Mutex
	failFor  map[int64]bool
	reserved []int64
	released []int64
}

func (f *fakeReserver) Reserve(ctx context.Context, userID, amount int64, matchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return service.ErrInsufficientFunds
	}
	f.reserved = append(f.reserved, userID)
	return nil
}

func (f *fakeReserver) Release(ctx context.Context, userID, amount int64, matchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, userID)
	return nil
}

func testHub(t *testing.T, reserver *fakeReserver) (*Hub, *memRegistry) {
	t.Helper()
	reg := &memRegistry{}
	scheduler := NewScheduler()
	t.Cleanup(scheduler.StopAll)
	return NewHub(reg, reserver, &memSettler{}, scheduler), reg
}

func TestHub_RouteBadMessage(t *testing.T) {
	hub, _ := testHub(t, &fakeReserver{})

	c := testClient(1)
	hub.Route(c, []byte("не json"))
	if msg := recvMessage(t, c); msg.Type != msgError {
		t.Fatalf("битое сообщение должно давать ошибку, получено %s", msg.Type)
	}

	hub.Route(c, []byte(`{"type":"unknown"}`))
	if msg := recvMessage(t, c); msg.Type != msgError {
		t.Fatalf("неизвестный тип должен давать ошибку, получено %s", msg.Type)
	}
}

func TestHub_RouteActionWithoutMatch(t *testing.T) {
	hub, _ := testHub(t, &fakeReserver{})

	c := testClient(1)
	hub.Route(c, []byte(`{"type":"roll"}`))
	if msg := recvMessage(t, c); msg.Type != msgError {
		t.Fatalf("бросок без матча должен давать ошибку, получено %s", msg.Type)
	}
}

func TestHub_StartMatch(t *testing.T) {
	reserver := &fakeReserver{}
	hub, reg := testHub(t, reserver)

	a, b := testClient(1), testClient(2)
	hub.StartMatch(a, b, 50)

	ma := recvMessage(t, a)
	mb := recvMessage(t, b)
	if ma.Type != msgMatchFound || mb.Type != msgMatchFound {
		t.Fatalf("оба игрока должны получить match_found, получено %s/%s", ma.Type, mb.Type)
	}

	reserver.mu.Lock()
	reservedCount := len(reserver.reserved)
	reserver.mu.Unlock()
	if reservedCount != 2 {
		t.Fatalf("обе ставки должны быть зарезервированы, получено %d", reservedCount)
	}

	reg.mu.Lock()
	created := reg.saves
	reg.mu.Unlock()
	if created == 0 {
		t.Fatalf("матч должен быть сохранен при создании")
	}

	hub.mu.Lock()
	rooms := len(hub.rooms)
	boundA, boundB := hub.userMatch[1], hub.userMatch[2]
	hub.mu.Unlock()
	if rooms != 1 || boundA == "" || boundA != boundB {
		t.Fatalf("оба игрока должны быть привязаны к одной комнате")
	}
}

func TestHub_StartMatchReserveFailure(t *testing.T) {
	// второй игрок без средств: первому возвращается резерв,
	// и он снова встает в очередь
	reserver := &fakeReserver{failFor: map[int64]bool{2: true}}
	hub, _ := testHub(t, reserver)

	a, b := testClient(1), testClient(2)
	hub.StartMatch(a, b, 50)

	if msg := recvMessage(t, b); msg.Type != msgError {
		t.Fatalf("игрок без средств должен получить ошибку, получено %s", msg.Type)
	}
	// второй участник тоже уведомляется: он возвращается в очередь
	if msg := recvMessage(t, a); msg.Type != msgSearchRetry {
		t.Fatalf("вернувшийся в очередь игрок должен получить %s, получено %s", msgSearchRetry, msg.Type)
	}

	reserver.mu.Lock()
	released := len(reserver.released)
	reserver.mu.Unlock()
	if released != 1 {
		t.Fatalf("резерв первого игрока должен вернуться, возвратов %d", released)
	}

	hub.mu.Lock()
	rooms := len(hub.rooms)
	hub.mu.Unlock()
	if rooms != 0 {
		t.Fatalf("комната не должна создаваться при сорванном резерве")
	}

	hub.Matchmaker.mu.Lock()
	queued := len(hub.Matchmaker.buckets[50])
	hub.Matchmaker.mu.Unlock()
	if queued != 1 {
		t.Fatalf("первый игрок должен вернуться в очередь, билетов %d", queued)
	}
}

func TestHub_OnDisconnectRemovesFromQueue(t *testing.T) {
	hub, _ := testHub(t, &fakeReserver{})

	a := testClient(1)
	if err := hub.Matchmaker.Enqueue(a, 50); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	hub.OnDisconnect(a)

	hub.Matchmaker.mu.Lock()
	queued := len(hub.Matchmaker.buckets)
	hub.Matchmaker.mu.Unlock()
	if queued != 0 {
		t.Fatalf("разрыв должен снимать билет с очереди")
	}

	// уведомление при разрыве не отправляется
	select {
	case data := <-a.Send:
		t.Fatalf("неожиданное сообщение после разрыва: %s", data)
	default:
	}
}
