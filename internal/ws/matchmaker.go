package ws

import (
	"errors"
	"sync"
	"time"

	"ludo_arena/internal/logger"
	"ludo_arena/internal/metrics"
)

// границы ставки
const (
	MinStake int64 = 10
	MaxStake int64 = 100000
)

// поиск без пары дольше этого срока снимается с очереди
const (
	QueueTTL        = 5 * time.Minute
	cleanupInterval = 30 * time.Second
)

var (
	ErrStakeTooLow  = errors.New("ставка ниже минимальной")
	ErrStakeTooHigh = errors.New("ставка выше максимальной")
)

// создатель матча для подобранной пары
type MatchStarter interface {
	StartMatch(a, b *Client, stake int64)
}

type ticket struct {
	client     *Client
	stake      int64
	enqueuedAt time.Time
}

// Матчмейкер: очереди поиска по точному значению ставки. Пара
// собирается из двух разных соединений одной корзины в порядке
// постановки; ставки резервируются уже при создании матча, поэтому
// снятие с очереди по таймауту ничего не возвращает.
type Matchmaker struct {
	mu      sync.Mutex
	buckets map[int64][]*ticket

	starter MatchStarter
	stop    chan struct{}
}

func NewMatchmaker(starter MatchStarter) *Matchmaker {
	return &Matchmaker{
		buckets: make(map[int64][]*ticket),
		starter: starter,
		stop:    make(chan struct{}),
	}
}

// Enqueue ставит соединение в очередь поиска. Повторный поиск с того же
// соединения заменяет прежний билет (в том числе с другой ставкой).
func (mm *Matchmaker) Enqueue(c *Client, stake int64) error {
	if stake < MinStake {
		return ErrStakeTooLow
	}
	if stake > MaxStake {
		return ErrStakeTooHigh
	}

	mm.mu.Lock()
	expired := mm.purgeStaleLocked()
	mm.removeLocked(c.ConnID)
	mm.buckets[stake] = append(mm.buckets[stake], &ticket{
		client:     c,
		stake:      stake,
		enqueuedAt: time.Now(),
	})
	a, b := mm.pairLocked(stake)
	mm.updateGaugeLocked()
	mm.mu.Unlock()

	mm.notifyExpired(expired)

	logger.Info("matchmaker: поиск", "user", c.UserID, "stake", stake)

	if a != nil {
		mm.starter.StartMatch(a, b, stake)
	}
	return nil
}

// Cancel снимает соединение с очереди по запросу игрока
func (mm *Matchmaker) Cancel(c *Client) {
	mm.mu.Lock()
	removed := mm.removeLocked(c.ConnID)
	mm.updateGaugeLocked()
	mm.mu.Unlock()

	if removed {
		c.send(Message{Type: msgSearchStopped})
	}
}

// RemoveConn снимает соединение с очереди без уведомления (разрыв)
func (mm *Matchmaker) RemoveConn(connID string) {
	mm.mu.Lock()
	mm.removeLocked(connID)
	mm.updateGaugeLocked()
	mm.mu.Unlock()
}

// StartCleanup запускает фоновую чистку просроченных билетов
func (mm *Matchmaker) StartCleanup() {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mm.mu.Lock()
				expired := mm.purgeStaleLocked()
				mm.updateGaugeLocked()
				mm.mu.Unlock()
				mm.notifyExpired(expired)
			case <-mm.stop:
				return
			}
		}
	}()
}

func (mm *Matchmaker) Stop() {
	close(mm.stop)
}

// pairLocked забирает два старших билета корзины, если их держат разные
// соединения. Один пользователь с двух вкладок - допустимая пара.
func (mm *Matchmaker) pairLocked(stake int64) (a, b *Client) {
	q := mm.buckets[stake]
	if len(q) < 2 {
		return nil, nil
	}
	first := q[0]
	for i := 1; i < len(q); i++ {
		if q[i].client.ConnID == first.client.ConnID {
			continue
		}
		second := q[i]
		q = append(q[:i], q[i+1:]...)
		q = q[1:]
		if len(q) == 0 {
			delete(mm.buckets, stake)
		} else {
			mm.buckets[stake] = q
		}
		return first.client, second.client
	}
	return nil, nil
}

func (mm *Matchmaker) removeLocked(connID string) bool {
	for stake, q := range mm.buckets {
		for i, t := range q {
			if t.client.ConnID != connID {
				continue
			}
			q = append(q[:i], q[i+1:]...)
			if len(q) == 0 {
				delete(mm.buckets, stake)
			} else {
				mm.buckets[stake] = q
			}
			return true
		}
	}
	return false
}

func (mm *Matchmaker) purgeStaleLocked() []*Client {
	var expired []*Client
	cutoff := time.Now().Add(-QueueTTL)
	for stake, q := range mm.buckets {
		kept := q[:0]
		for _, t := range q {
			if t.enqueuedAt.Before(cutoff) {
				expired = append(expired, t.client)
				continue
			}
			kept = append(kept, t)
		}
		if len(kept) == 0 {
			delete(mm.buckets, stake)
		} else {
			mm.buckets[stake] = kept
		}
	}
	return expired
}

// notifyExpired шлет уведомления вне блокировки
func (mm *Matchmaker) notifyExpired(expired []*Client) {
	for _, c := range expired {
		metrics.SearchTimeouts.Inc()
		logger.Info("matchmaker: поиск истек", "user", c.UserID)
		c.send(Message{Type: msgSearchTimeout})
	}
}

func (mm *Matchmaker) updateGaugeLocked() {
	total := 0
	for _, q := range mm.buckets {
		total += len(q)
	}
	metrics.WaitingPlayers.Set(float64(total))
}
