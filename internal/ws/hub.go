package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"ludo_arena/internal/domain"
	"ludo_arena/internal/game"
	"ludo_arena/internal/logger"
	"ludo_arena/internal/metrics"

	"github.com/google/uuid"
)

var (
	errBadMessage    = errors.New("неизвестное сообщение")
	errMatchNotFound = errors.New("матч не найден")
)

// реестр матчей (хранилище)
type MatchRegistry interface {
	MatchStore
	Create(ctx context.Context, m *domain.Match) error
}

// резервирование ставок при создании матча
type StakeReserver interface {
	Reserve(ctx context.Context, userID, amount int64, matchID string) error
	Release(ctx context.Context, userID, amount int64, matchID string) error
}

// Хаб - реестр живых комнат и маршрутизатор клиентских сообщений.
// Создает матчи для пар из матчмейкера и поднимает комнаты для
// осиротевших активных матчей.
type Hub struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	userMatch  map[int64]string // игрок -> его активный матч
	watchRooms map[string]*Room // наблюдатель (conn id) -> комната

	Matchmaker *Matchmaker
	scheduler  *Scheduler
	matches    MatchRegistry
	balance    StakeReserver
	settler    Settler
}

func NewHub(matches MatchRegistry, balance StakeReserver, settler Settler, scheduler *Scheduler) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		userMatch:  make(map[int64]string),
		watchRooms: make(map[string]*Room),
		scheduler:  scheduler,
		matches:    matches,
		balance:    balance,
		settler:    settler,
	}
	h.Matchmaker = NewMatchmaker(h)
	return h
}

// Route разбирает входящее сообщение и направляет его адресату
func (h *Hub) Route(c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError(errBadMessage)
		return
	}

	switch msg.Type {
	case msgSearch:
		if err := h.Matchmaker.Enqueue(c, msg.Stake); err != nil {
			c.sendError(err)
		}

	case msgCancelSearch:
		h.Matchmaker.Cancel(c)

	case msgJoin:
		room, ok := h.roomFor(c, msg.MatchID)
		if !ok {
			c.sendError(errMatchNotFound)
			return
		}
		room.PostJoin(c, domain.Color(msg.Color))

	case msgRoll:
		room, ok := h.roomFor(c, msg.MatchID)
		if !ok {
			c.sendError(errMatchNotFound)
			return
		}
		room.PostRoll(c)

	case msgMove:
		room, ok := h.roomFor(c, msg.MatchID)
		if !ok {
			c.sendError(errMatchNotFound)
			return
		}
		room.PostMove(c, msg.TokenID)

	case msgWatch:
		room, ok := h.ActiveRoom(msg.MatchID)
		if !ok {
			c.sendError(errMatchNotFound)
			return
		}
		h.mu.Lock()
		h.watchRooms[c.ConnID] = room
		h.mu.Unlock()
		room.PostWatch(c)

	default:
		c.sendError(errBadMessage)
	}
}

// roomFor ищет комнату по явному match_id либо по привязке игрока
func (h *Hub) roomFor(c *Client, matchID string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if matchID == "" {
		matchID = h.userMatch[c.UserID]
	}
	room, ok := h.rooms[matchID]
	return room, ok
}

func (h *Hub) ActiveRoom(matchID string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[matchID]
	return room, ok
}

// StartMatch создает матч для подобранной пары: резервирует обе ставки,
// собирает начальное состояние, сохраняет и запускает комнату.
// Срыв резервирования возвращает второго игрока в очередь.
func (h *Hub) StartMatch(a, b *Client, stake int64) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	matchID := uuid.NewString()

	if err := h.balance.Reserve(ctx, a.UserID, stake, matchID); err != nil {
		logger.Warn("hub: резерв ставки не прошел", "user", a.UserID, "error", err)
		a.sendError(err)
		h.requeue(b, stake)
		return
	}
	if err := h.balance.Reserve(ctx, b.UserID, stake, matchID); err != nil {
		logger.Warn("hub: резерв ставки не прошел", "user", b.UserID, "error", err)
		if rerr := h.balance.Release(ctx, a.UserID, stake, matchID); rerr != nil {
			logger.Error("hub: возврат ставки не прошел", "user", a.UserID, "error", rerr)
		}
		b.sendError(err)
		h.requeue(a, stake)
		return
	}

	seats := [2]domain.Seat{
		{Color: domain.ColorRed, UserID: a.UserID, DisplayName: a.DisplayName},
		{Color: domain.ColorGreen, UserID: b.UserID, DisplayName: b.DisplayName},
	}
	start := int(game.SecureRandInt(2))
	m := game.NewMatch(matchID, stake, seats, start)

	if err := h.matches.Create(ctx, m); err != nil {
		logger.Error("hub: матч не сохранен", "match", matchID, "error", err)
		_ = h.balance.Release(ctx, a.UserID, stake, matchID)
		_ = h.balance.Release(ctx, b.UserID, stake, matchID)
		a.sendError(err)
		b.sendError(err)
		return
	}

	room := NewRoom(m, h, h.scheduler, h.matches, h.settler)
	room.seats[domain.ColorRed] = a
	room.seats[domain.ColorGreen] = b

	h.mu.Lock()
	h.rooms[matchID] = room
	h.userMatch[a.UserID] = matchID
	h.userMatch[b.UserID] = matchID
	h.mu.Unlock()

	for i, c := range []*Client{a, b} {
		opp := seats[1-i]
		c.send(Message{Type: msgMatchFound, Payload: map[string]any{
			"match_id": matchID,
			"color":    seats[i].Color,
			"stake":    stake,
			"opponent": map[string]any{"id": opp.UserID, "name": opp.DisplayName},
		}})
	}

	metrics.MatchesStarted.Inc()
	logger.Info("hub: матч создан", "match", matchID, "stake", stake,
		"red", a.UserID, "green", b.UserID)

	go room.Run()
}

// requeue возвращает игрока в очередь после сорванного паринга
// и уведомляет его об этом
func (h *Hub) requeue(c *Client, stake int64) {
	c.send(Message{Type: msgSearchRetry, Payload: map[string]any{"stake": stake}})
	if err := h.Matchmaker.Enqueue(c, stake); err != nil {
		c.sendError(err)
	}
}

// ResumeMatch поднимает комнату для активного матча без живой комнаты
// (после рестарта процесса). Оба места стартуют на автопилоте, пока
// игроки не переподключатся.
func (h *Hub) ResumeMatch(m *domain.Match) {
	h.mu.Lock()
	if _, ok := h.rooms[m.ID]; ok {
		h.mu.Unlock()
		return
	}

	for i := range m.Seats {
		if m.Seats[i].Autopilot == domain.AutopilotNone {
			m.Seats[i].Autopilot = domain.AutopilotDisconnected
		}
	}

	room := NewRoom(m, h, h.scheduler, h.matches, h.settler)
	h.rooms[m.ID] = room
	for i := range m.Seats {
		h.userMatch[m.Seats[i].UserID] = m.ID
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	if err := h.matches.Save(ctx, m); err != nil {
		logger.Error("hub: матч не сохранен", "match", m.ID, "error", err)
	}
	cancel()

	logger.Warn("hub: матч возобновлен без игроков", "match", m.ID)
	go room.Run()
}

// OnDisconnect вызывается при разрыве соединения: снимает его с очереди
// поиска и сообщает комнате игрока
func (h *Hub) OnDisconnect(c *Client) {
	h.Matchmaker.RemoveConn(c.ConnID)

	h.mu.Lock()
	matchID, playing := h.userMatch[c.UserID]
	watched := h.watchRooms[c.ConnID]
	delete(h.watchRooms, c.ConnID)
	var room *Room
	if playing {
		room = h.rooms[matchID]
	}
	h.mu.Unlock()

	if room != nil {
		room.PostLeave(c)
	}
	if watched != nil && watched != room {
		watched.PostLeave(c)
	}
}

func (h *Hub) bindUser(userID int64, matchID string) {
	h.mu.Lock()
	h.userMatch[userID] = matchID
	h.mu.Unlock()
}

// removeRoom удаляет завершенную комнату из реестра
func (h *Hub) removeRoom(matchID string, userIDs []int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, matchID)
	for _, id := range userIDs {
		if h.userMatch[id] == matchID {
			delete(h.userMatch, id)
		}
	}
	for connID, room := range h.watchRooms {
		if room != nil && room.ID == matchID {
			delete(h.watchRooms, connID)
		}
	}
}

// Shutdown останавливает фоновые контуры хаба
func (h *Hub) Shutdown() {
	h.Matchmaker.Stop()
	h.scheduler.StopAll()
}
