package ws

import (
	"sync"
	"time"
)

// виды таймеров матча
type TimerKind string

const (
	TimerRoll      TimerKind = "roll"      // человек должен бросить кубик
	TimerMove      TimerKind = "move"      // человек должен выбрать ход
	TimerAutopilot TimerKind = "autopilot" // очередь автопилота
	TimerBarren    TimerKind = "barren"    // пауза после броска без ходов
)

// тайминги ходов
const (
	RollTimeout    = 7 * time.Second
	MoveTimeout    = 18 * time.Second
	AutopilotDelay = 1500 * time.Millisecond
	BarrenDelay    = 1500 * time.Millisecond
)

type timerHandle struct {
	kind TimerKind
	stop chan struct{}
}

// Планировщик ходов: на матч - максимум один активный таймер.
// Arm снимает предыдущий таймер матча, fire срабатывает не более одного
// раза, Cancel снимает таймер если он взведен. StopAll вызывается при
// остановке процесса, чтобы утекшие таймеры не работали по устаревшему
// состоянию.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*timerHandle
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*timerHandle)}
}

// Arm взводит таймер матча. tick (может быть nil) вызывается раз в
// секунду с оставшимися секундами, fire - по истечении d.
func (s *Scheduler) Arm(matchID string, kind TimerKind, d time.Duration, tick func(remaining int), fire func()) {
	h := &timerHandle{kind: kind, stop: make(chan struct{})}

	s.mu.Lock()
	if old, ok := s.timers[matchID]; ok {
		close(old.stop)
	}
	s.timers[matchID] = h
	s.mu.Unlock()

	go s.run(matchID, h, d, tick, fire)
}

func (s *Scheduler) run(matchID string, h *timerHandle, d time.Duration, tick func(int), fire func()) {
	deadline := time.NewTimer(d)
	defer deadline.Stop()

	var tickC <-chan time.Time
	if tick != nil {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		tickC = ticker.C
	}
	remaining := int(d / time.Second)

	for {
		select {
		case <-h.stop:
			return

		case <-tickC:
			remaining--
			if remaining > 0 {
				tick(remaining)
			}

		case <-deadline.C:
			// снимаем хэндл до срабатывания: fire-once семантика
			s.mu.Lock()
			if s.timers[matchID] == h {
				delete(s.timers, matchID)
			}
			s.mu.Unlock()
			fire()
			return
		}
	}
}

// Cancel снимает таймер матча, если он взведен
func (s *Scheduler) Cancel(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.timers[matchID]; ok {
		close(h.stop)
		delete(s.timers, matchID)
	}
}

// Kind возвращает вид взведенного таймера матча
func (s *Scheduler) Kind(matchID string) (TimerKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.timers[matchID]
	if !ok {
		return "", false
	}
	return h.kind, true
}

// StopAll снимает все таймеры (остановка процесса)
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.timers {
		close(h.stop)
		delete(s.timers, id)
	}
}
