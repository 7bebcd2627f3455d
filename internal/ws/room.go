package ws

import (
	"context"
	"errors"
	"time"

	"ludo_arena/internal/domain"
	"ludo_arena/internal/game"
	"ludo_arena/internal/logger"
	"ludo_arena/internal/metrics"
	"ludo_arena/internal/service"
)

const (
	persistTimeout = 3 * time.Second
	settleTimeout  = 5 * time.Second
	inboxSize      = 32
	postTimeout    = 2 * time.Second
)

var (
	errUnknownColor = errors.New("неизвестный цвет")
	errSeatTaken    = errors.New("место занято другим игроком")
)

// контракт персистентности комнаты
type MatchStore interface {
	Save(ctx context.Context, m *domain.Match) error
}

// контракт расчетного движка
type Settler interface {
	Settle(ctx context.Context, m *domain.Match) error
}

type cmdKind int

const (
	cmdRoll cmdKind = iota
	cmdMove
	cmdJoin
	cmdLeave
	cmdWatch
	cmdTimer
	cmdTick
	cmdRepair
)

type command struct {
	kind      cmdKind
	client    *Client
	tokenID   int
	color     domain.Color
	timer     TimerKind
	seq       uint64
	remaining int
}

// Комната матча - актор: единственная горутина Run последовательно
// обрабатывает команды из inbox (действия игроков, срабатывания
// таймеров, ремонт), поэтому состояние матча не требует блокировок и
// переходы строго упорядочены.
type Room struct {
	ID    string
	match *domain.Match

	inbox chan command
	done  chan struct{}

	seats    map[domain.Color]*Client // живые соединения мест
	watchers map[string]*Client       // наблюдатели по conn id

	// растет на каждом переходе состояния; команда таймера с устаревшим
	// seq игнорируется (таймер был взведен для уже прожитой фазы)
	turnSeq uint64

	hub       *Hub
	scheduler *Scheduler
	store     MatchStore
	settler   Settler
}

func NewRoom(m *domain.Match, hub *Hub, scheduler *Scheduler, store MatchStore, settler Settler) *Room {
	return &Room{
		ID:        m.ID,
		match:     m,
		inbox:     make(chan command, inboxSize),
		done:      make(chan struct{}),
		seats:     make(map[domain.Color]*Client),
		watchers:  make(map[string]*Client),
		hub:       hub,
		scheduler: scheduler,
		store:     store,
		settler:   settler,
	}
}

// post ставит команду в очередь комнаты; false - комната уже закрыта
func (r *Room) post(c command) bool {
	select {
	case r.inbox <- c:
		return true
	case <-r.done:
		return false
	case <-time.After(postTimeout):
		logger.Warn("room: inbox переполнен", "match", r.ID)
		return false
	}
}

func (r *Room) PostRoll(c *Client)                    { r.post(command{kind: cmdRoll, client: c}) }
func (r *Room) PostMove(c *Client, tokenID int)       { r.post(command{kind: cmdMove, client: c, tokenID: tokenID}) }
func (r *Room) PostJoin(c *Client, color domain.Color) { r.post(command{kind: cmdJoin, client: c, color: color}) }
func (r *Room) PostLeave(c *Client)                   { r.post(command{kind: cmdLeave, client: c}) }
func (r *Room) PostWatch(c *Client)                   { r.post(command{kind: cmdWatch, client: c}) }
func (r *Room) PostRepair()                           { r.post(command{kind: cmdRepair}) }

func (r *Room) Run() {
	metrics.ActiveRooms.Inc()
	defer metrics.ActiveRooms.Dec()

	logger.Info("room: запуск", "match", r.ID, "stake", r.match.Stake)

	r.broadcastState()
	r.scheduleTurn()

	for {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-r.done:
			return
		}

		select {
		case <-r.done:
			return
		default:
		}
	}
}

func (r *Room) handle(cmd command) {
	switch cmd.kind {
	case cmdRoll:
		r.handleRoll(cmd.client, false)
	case cmdMove:
		r.handleMove(cmd.client, cmd.tokenID)
	case cmdJoin:
		r.handleJoin(cmd.client, cmd.color)
	case cmdLeave:
		r.handleLeave(cmd.client)
	case cmdWatch:
		r.handleWatch(cmd.client)
	case cmdTimer:
		r.handleTimer(cmd.timer, cmd.seq)
	case cmdTick:
		if cmd.seq == r.turnSeq {
			r.broadcast(countdownMessage(cmd.remaining))
		}
	case cmdRepair:
		r.handleRepair()
	}
}

// --- действия игроков ---

func (r *Room) handleRoll(c *Client, forced bool) {
	m := r.match
	if m.TurnState != domain.TurnRolling {
		r.reject(c, game.ErrWrongState)
		return
	}
	if !forced && !r.isActiveConnection(c) {
		r.reject(c, game.ErrNotYourTurn)
		return
	}

	// ручное действие снимает взведенный таймер до применения
	r.scheduler.Cancel(r.ID)
	r.turnSeq++

	dice := game.RollDice()
	moves, err := game.Roll(m, dice)
	if err != nil {
		r.reject(c, err)
		return
	}

	r.persist()
	r.broadcastState()

	if len(moves) == 0 {
		// кубик без ходов остается видимым; ход перейдет после паузы
		r.armTimer(TimerBarren, BarrenDelay, false)
		return
	}
	r.scheduleMovePhase()
}

func (r *Room) handleMove(c *Client, tokenID int) {
	m := r.match
	if m.TurnState != domain.TurnMoving {
		r.reject(c, game.ErrWrongState)
		return
	}
	if !r.isActiveConnection(c) {
		r.reject(c, game.ErrNotYourTurn)
		return
	}

	// недопустимый ход не снимает таймер хода - иначе спам невалидными
	// ходами выключал бы принудительный автоход
	legal := false
	for i := range m.LegalMoves {
		if m.LegalMoves[i].TokenID == tokenID {
			legal = true
			break
		}
	}
	if !legal {
		r.reject(c, game.ErrIllegalMove)
		return
	}

	r.scheduler.Cancel(r.ID)
	if err := r.applyMove(tokenID); err != nil {
		r.reject(c, err)
	}
}

// applyMove применяет ход, сохраняет и рассылает состояние,
// при победе синхронно запускает расчет
func (r *Room) applyMove(tokenID int) error {
	m := r.match
	r.turnSeq++

	out, err := game.ApplyMove(m, tokenID)
	if err != nil {
		return err
	}

	r.persist()

	if out.Won {
		logger.Info("room: матч завершен", "match", r.ID, "winner", m.Winners[0])
		metrics.MatchesCompleted.Inc()

		// расчет синхронен с переходом в GAMEOVER
		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		if err := r.settler.Settle(ctx, m); err != nil {
			// флаг не установлен - контур ремонта дожмет расчет по
			// выборке завершенных нерассчитанных матчей
			logger.Error("room: ошибка расчета", "match", r.ID, "error", err)
		}
		cancel()
		r.persist()

		r.broadcastState()
		r.broadcastResult()
		r.finish()
		return nil
	}

	r.broadcastState()
	r.scheduleTurn()
	return nil
}

// --- подключения ---

func (r *Room) handleJoin(c *Client, color domain.Color) {
	m := r.match
	idx := m.SeatIndex(color)
	if idx < 0 {
		// без цвета место находится по личности игрока
		for i := range m.Seats {
			if m.Seats[i].UserID == c.UserID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		r.reject(c, errUnknownColor)
		return
	}
	seat := &m.Seats[idx]
	color = seat.Color

	if seat.UserID != c.UserID {
		// чужая личность на занятое место
		r.reject(c, errSeatTaken)
		return
	}

	r.seats[color] = c
	r.hub.bindUser(c.UserID, r.ID)

	if seat.Autopilot == domain.AutopilotDisconnected {
		seat.Autopilot = domain.AutopilotNone
		r.persist()
	}

	c.send(Message{Type: msgState, Payload: r.snapshot()})
	logger.Info("room: игрок подключился", "match", r.ID, "user", c.UserID, "color", color)

	// если сейчас его ход - снимаем автопилот и возвращаем человеческий таймер
	if m.CurrentSeat == idx && m.TurnState != domain.TurnGameOver {
		r.scheduler.Cancel(r.ID)
		r.scheduleTurn()
	}
}

func (r *Room) handleLeave(c *Client) {
	m := r.match

	delete(r.watchers, c.ConnID)

	for color, cl := range r.seats {
		if cl == nil || cl.ConnID != c.ConnID {
			continue
		}
		delete(r.seats, color)

		idx := m.SeatIndex(color)
		seat := &m.Seats[idx]
		if seat.Autopilot == domain.AutopilotNone {
			seat.Autopilot = domain.AutopilotDisconnected
			r.persist()
		}

		logger.Info("room: игрок отключился", "match", r.ID, "user", c.UserID, "color", color)

		// его ход передается автопилоту немедленно
		if m.CurrentSeat == idx && m.TurnState != domain.TurnGameOver {
			r.scheduler.Cancel(r.ID)
			r.scheduleTurn()
		}
		return
	}
}

func (r *Room) handleWatch(c *Client) {
	r.watchers[c.ConnID] = c
	c.send(Message{Type: msgState, Payload: r.snapshot()})
}

// --- таймеры ---

func (r *Room) handleTimer(kind TimerKind, seq uint64) {
	if seq != r.turnSeq {
		// таймер был взведен для уже прожитой фазы
		return
	}

	switch kind {
	case TimerRoll:
		// игрок не бросил вовремя - сервер бросает за него
		metrics.ForcedRolls.Inc()
		r.handleRoll(nil, true)

	case TimerMove:
		if mv, ok := game.ChooseAutoMove(r.match.LegalMoves); ok {
			_ = r.applyMove(mv.TokenID)
		}

	case TimerBarren:
		r.turnSeq++
		game.EndBarrenTurn(r.match)
		r.persist()
		r.broadcastState()
		r.scheduleTurn()

	case TimerAutopilot:
		r.autopilotTurn()
	}
}

// autopilotTurn играет ход за автопилот: бросок и, если есть ходы,
// сразу ход по эвристике. Начатая игроком фаза хода (бросил и пропал)
// доигрывается отсюда же.
func (r *Room) autopilotTurn() {
	m := r.match

	if m.TurnState == domain.TurnMoving {
		metrics.AutopilotTurns.Inc()
		if mv, ok := game.ChooseAutoMove(m.LegalMoves); ok {
			_ = r.applyMove(mv.TokenID)
		}
		return
	}
	if m.TurnState != domain.TurnRolling {
		return
	}
	metrics.AutopilotTurns.Inc()
	r.turnSeq++

	dice := game.RollDice()
	moves, err := game.Roll(m, dice)
	if err != nil {
		return
	}

	r.persist()
	r.broadcastState()

	if len(moves) == 0 {
		r.armTimer(TimerBarren, BarrenDelay, false)
		return
	}

	mv, _ := game.ChooseAutoMove(moves)
	_ = r.applyMove(mv.TokenID)
}

// scheduleTurn взводит таймер под текущее состояние: автопилот играет
// сам после короткой задержки, человеку отсчитываются секунды
func (r *Room) scheduleTurn() {
	m := r.match
	if m.TurnState == domain.TurnGameOver {
		return
	}

	seat := &m.Seats[m.CurrentSeat]
	if seat.Autopilot != domain.AutopilotNone || r.seats[seat.Color] == nil {
		r.armTimer(TimerAutopilot, AutopilotDelay, false)
		return
	}
	if m.TurnState == domain.TurnRolling {
		r.armTimer(TimerRoll, RollTimeout, true)
		return
	}
	r.armTimer(TimerMove, MoveTimeout, true)
}

func (r *Room) scheduleMovePhase() {
	seat := &r.match.Seats[r.match.CurrentSeat]
	if seat.Autopilot != domain.AutopilotNone || r.seats[seat.Color] == nil {
		r.armTimer(TimerAutopilot, AutopilotDelay, false)
		return
	}
	r.armTimer(TimerMove, MoveTimeout, true)
}

func (r *Room) armTimer(kind TimerKind, d time.Duration, withTicks bool) {
	seq := r.turnSeq
	var tick func(int)
	if withTicks {
		// тики идут через inbox - рассылка выполняется горутиной комнаты
		tick = func(remaining int) {
			r.post(command{kind: cmdTick, seq: seq, remaining: remaining})
		}
	}
	r.scheduler.Arm(r.ID, kind, d, tick, func() {
		r.post(command{kind: cmdTimer, timer: kind, seq: seq})
	})
}

// --- ремонт ---

// handleRepair чинит зависшие состояния: MOVING без кубика, ROLLING с
// чужим кубиком, флаг отключения при живом соединении; после ремонта -
// полная рассылка и перевзвод таймера
func (r *Room) handleRepair() {
	m := r.match
	if m.TurnState == domain.TurnGameOver {
		return
	}

	changed := false
	stale := time.Since(m.UpdatedAt) > RepairStaleAfter

	if stale && m.TurnState == domain.TurnMoving && m.DiceValue == 0 {
		m.TurnState = domain.TurnRolling
		m.LegalMoves = nil
		changed = true
	}
	if stale && m.TurnState == domain.TurnRolling && m.DiceValue != 0 {
		// легитимное ROLLING+кубик живет только BarrenDelay, это застрявший
		m.DiceValue = 0
		m.LegalMoves = nil
		changed = true
	}
	for i := range m.Seats {
		seat := &m.Seats[i]
		if seat.Autopilot == domain.AutopilotDisconnected && r.seats[seat.Color] != nil {
			seat.Autopilot = domain.AutopilotNone
			changed = true
		}
	}

	if changed {
		logger.Warn("room: состояние отремонтировано", "match", r.ID)
		metrics.RepairsApplied.Inc()
		r.turnSeq++
		m.UpdatedAt = time.Now()
		r.persist()
		r.broadcastState()
		r.scheduler.Cancel(r.ID)
		r.scheduleTurn()
		return
	}

	// таймер мог потеряться (например, после рестарта планировщика)
	if _, armed := r.scheduler.Kind(r.ID); !armed {
		r.scheduleTurn()
	}
}

// --- вспомогательное ---

// проверяет, что действие пришло от соединения, занимающего текущее место
func (r *Room) isActiveConnection(c *Client) bool {
	if c == nil {
		return false
	}
	active := r.seats[r.match.CurrentColor()]
	return active != nil && active.ConnID == c.ConnID
}

func (r *Room) reject(c *Client, err error) {
	// ошибки валидации уходят только инициатору, без рассылки
	if c != nil {
		c.sendError(err)
	}
}

func (r *Room) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.store.Save(ctx, r.match); err != nil {
		logger.Error("room: ошибка сохранения", "match", r.ID, "error", err)
	}
}

func (r *Room) snapshot() map[string]any {
	return map[string]any{
		"match":     r.match,
		"timestamp": time.Now().UnixMilli(),
	}
}

func (r *Room) broadcastState() {
	r.broadcast(Message{Type: msgState, Payload: r.snapshot()})
}

func (r *Room) broadcast(msg Message) {
	for _, c := range r.seats {
		if c != nil {
			c.send(msg)
		}
	}
	for _, c := range r.watchers {
		c.send(msg)
	}
}

// broadcastResult отправляет каждому игроку персональный итог
func (r *Room) broadcastResult() {
	m := r.match
	if len(m.Winners) == 0 {
		return
	}
	winner := m.Winners[0]
	_, _, payout := service.ComputeSettlement(m.Stake)

	for color, c := range r.seats {
		if c == nil {
			continue
		}
		outcome := "lose"
		winAmount := int64(0)
		if color == winner {
			outcome = "win"
			winAmount = payout
		}
		c.send(Message{Type: msgResult, Payload: map[string]any{
			"you":        outcome,
			"winner":     winner,
			"win_amount": winAmount,
			"stake":      m.Stake,
		}})
	}
	for _, c := range r.watchers {
		c.send(Message{Type: msgResult, Payload: map[string]any{
			"winner": winner,
			"stake":  m.Stake,
		}})
	}
}

// finish закрывает комнату: таймеры сняты, матч удален из реестра
func (r *Room) finish() {
	r.scheduler.Cancel(r.ID)

	userIDs := make([]int64, 0, 2)
	for i := range r.match.Seats {
		userIDs = append(userIDs, r.match.Seats[i].UserID)
	}
	r.hub.removeRoom(r.ID, userIDs)

	close(r.done)
}
