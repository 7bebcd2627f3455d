package domain

import "time"

// Цвет места в матче. В матче на двоих используются красный и зеленый -
// противоположные углы доски, назначаются в порядке присоединения.
type Color string

const (
	ColorRed   Color = "red"
	ColorGreen Color = "green"
)

// Фаза хода
type TurnState string

const (
	TurnRolling  TurnState = "rolling"
	TurnMoving   TurnState = "moving"
	TurnGameOver TurnState = "gameover"
)

// Статус матча
type MatchStatus string

const (
	MatchWaiting   MatchStatus = "waiting"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
)

// Зона, в которой находится фишка. Фишка проходит зоны только в порядке
// yard -> path -> home_path -> home (взятие возвращает path -> yard).
type Zone string

const (
	ZoneYard     Zone = "yard"
	ZonePath     Zone = "path"
	ZoneHomePath Zone = "home_path"
	ZoneHome     Zone = "home"
)

// Причина автопилота. Искусственный игрок и отключившийся игрок
// обрабатываются одной и той же веткой планировщика: важно лишь
// "активен ли автопилот", а не почему.
type AutopilotReason string

const (
	AutopilotNone         AutopilotReason = ""
	AutopilotArtificial   AutopilotReason = "artificial"
	AutopilotDisconnected AutopilotReason = "disconnected"
)

type Position struct {
	Zone  Zone `json:"zone"`
	Index int  `json:"index"`
}

type Token struct {
	ID    int      `json:"id"`
	Color Color    `json:"color"`
	Pos   Position `json:"pos"`
}

// YardSlot - постоянный слот фишки во дворе (0..3); взятая фишка
// возвращается именно в него.
func (t Token) YardSlot() int {
	return t.ID % 4
}

// Место игрока в матче. Ссылка на живое соединение живет в ws-слое
// и никогда не сохраняется.
type Seat struct {
	Color       Color           `json:"color"`
	UserID      int64           `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Autopilot   AutopilotReason `json:"autopilot,omitempty"`
}

// Один допустимый ход для текущего броска
type Move struct {
	TokenID  int      `json:"token_id"`
	From     Position `json:"from"`
	To       Position `json:"to"`
	Captures int      `json:"captures"` // id взятой фишки или -1
}

type Match struct {
	ID                  string      `json:"id"`
	Stake               int64       `json:"stake"`
	Status              MatchStatus `json:"status"`
	Seats               [2]Seat     `json:"seats"`
	Tokens              [8]Token    `json:"tokens"`
	CurrentSeat         int         `json:"current_seat"`
	DiceValue           int         `json:"dice_value"` // 0 = кубик не брошен
	TurnState           TurnState   `json:"turn_state"`
	LegalMoves          []Move      `json:"legal_moves,omitempty"`
	Winners             []Color     `json:"winners,omitempty"`
	SettlementProcessed bool        `json:"settlement_processed"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// цвет места, которое сейчас ходит
func (m *Match) CurrentColor() Color {
	return m.Seats[m.CurrentSeat].Color
}

// SeatIndex возвращает индекс места данного цвета или -1
func (m *Match) SeatIndex(c Color) int {
	for i := range m.Seats {
		if m.Seats[i].Color == c {
			return i
		}
	}
	return -1
}

// SeatByUser возвращает место пользователя или nil
func (m *Match) SeatByUser(userID int64) *Seat {
	for i := range m.Seats {
		if m.Seats[i].UserID == userID {
			return &m.Seats[i]
		}
	}
	return nil
}
