package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStarter struct {
	mu     sync.Mutex
	pairs  [][2]*Client
	stakes []int64
}

func (f *fakeStarter) StartMatch(a, b *Client, stake int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = append(f.pairs, [2]*Client{a, b})
	f.stakes = append(f.stakes, stake)
}

func (f *fakeStarter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pairs)
}

func testClient(userID int64) *Client {
	return &Client{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		DisplayName: "p",
		Send:        make(chan []byte, 16),
		Done:        make(chan struct{}),
	}
}

// забирает следующее сообщение клиента или падает по таймауту
func recvMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("битое сообщение: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("сообщение не пришло")
		return Message{}
	}
}

func TestMatchmaker_PairsSameStake(t *testing.T) {
	starter := &fakeStarter{}
	mm := NewMatchmaker(starter)

	a, b := testClient(1), testClient(2)
	if err := mm.Enqueue(a, 50); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if starter.count() != 0 {
		t.Fatalf("один игрок не должен образовать пару")
	}

	if err := mm.Enqueue(b, 50); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if starter.count() != 1 || starter.stakes[0] != 50 {
		t.Fatalf("ожидалась одна пара со ставкой 50, получено %d", starter.count())
	}
	if starter.pairs[0][0] != a || starter.pairs[0][1] != b {
		t.Fatalf("пара должна собираться в порядке постановки")
	}

	mm.mu.Lock()
	left := len(mm.buckets)
	mm.mu.Unlock()
	if left != 0 {
		t.Fatalf("после пары корзина должна опустеть")
	}
}

func TestMatchmaker_DifferentStakesDontPair(t *testing.T) {
	starter := &fakeStarter{}
	mm := NewMatchmaker(starter)

	mm.Enqueue(testClient(1), 50)
	mm.Enqueue(testClient(2), 100)

	if starter.count() != 0 {
		t.Fatalf("разные ставки не должны образовать пару")
	}
}

func TestMatchmaker_SameConnectionReplacesTicket(t *testing.T) {
	starter := &fakeStarter{}
	mm := NewMatchmaker(starter)

	c := testClient(1)
	mm.Enqueue(c, 50)
	mm.Enqueue(c, 50)

	if starter.count() != 0 {
		t.Fatalf("соединение не должно образовать пару само с собой")
	}

	mm.mu.Lock()
	tickets := len(mm.buckets[50])
	mm.mu.Unlock()
	if tickets != 1 {
		t.Fatalf("повторный поиск должен заменить билет, билетов %d", tickets)
	}
}

func TestMatchmaker_SameUserTwoConnectionsPair(t *testing.T) {
	starter := &fakeStarter{}
	mm := NewMatchmaker(starter)

	// один пользователь с двух вкладок
	mm.Enqueue(testClient(7), 50)
	mm.Enqueue(testClient(7), 50)

	if starter.count() != 1 {
		t.Fatalf("две вкладки одного пользователя - допустимая пара")
	}
}

func TestMatchmaker_StakeBounds(t *testing.T) {
	mm := NewMatchmaker(&fakeStarter{})

	if err := mm.Enqueue(testClient(1), MinStake-1); err != ErrStakeTooLow {
		t.Fatalf("ожидался ErrStakeTooLow, получено %v", err)
	}
	if err := mm.Enqueue(testClient(1), MaxStake+1); err != ErrStakeTooHigh {
		t.Fatalf("ожидался ErrStakeTooHigh, получено %v", err)
	}
}

func TestMatchmaker_Cancel(t *testing.T) {
	starter := &fakeStarter{}
	mm := NewMatchmaker(starter)

	a := testClient(1)
	mm.Enqueue(a, 50)
	mm.Cancel(a)

	if msg := recvMessage(t, a); msg.Type != msgSearchStopped {
		t.Fatalf("ожидалось %s, получено %s", msgSearchStopped, msg.Type)
	}

	mm.Enqueue(testClient(2), 50)
	if starter.count() != 0 {
		t.Fatalf("снятый билет не должен участвовать в паринге")
	}
}

func TestMatchmaker_StaleTicketPurged(t *testing.T) {
	starter := &fakeStarter{}
	mm := NewMatchmaker(starter)

	stale := testClient(1)
	mm.mu.Lock()
	mm.buckets[50] = append(mm.buckets[50], &ticket{
		client:     stale,
		stake:      50,
		enqueuedAt: time.Now().Add(-QueueTTL - time.Minute),
	})
	mm.mu.Unlock()

	mm.Enqueue(testClient(2), 50)

	if msg := recvMessage(t, stale); msg.Type != msgSearchTimeout {
		t.Fatalf("просроченный билет должен получить %s, получено %s", msgSearchTimeout, msg.Type)
	}
	if starter.count() != 0 {
		t.Fatalf("просроченный билет не должен участвовать в паринге")
	}
}
