package game

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"ludo_arena/internal/domain"
)

const (
	DiceMin = 1
	DiceMax = 6
)

var (
	ErrNotYourTurn   = errors.New("сейчас не ваш ход")
	ErrWrongState    = errors.New("действие не соответствует фазе хода")
	ErrIllegalMove   = errors.New("недопустимый ход")
	ErrMatchFinished = errors.New("матч уже завершен")
)

// RollDice возвращает криптографически случайное значение кубика 1-6
func RollDice() int {
	n, err := rand.Int(rand.Reader, big.NewInt(DiceMax))
	if err != nil {
		// запасной вариант - никогда не должно происходить
		n = big.NewInt(0)
	}
	return int(n.Int64()) + 1
}

// SecureRandInt возвращает криптографически случайное число в [0, max)
func SecureRandInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// NewMatch собирает начальное состояние матча: все фишки во дворах,
// ходит место startSeat.
func NewMatch(id string, stake int64, seats [2]domain.Seat, startSeat int) *domain.Match {
	now := time.Now()
	m := &domain.Match{
		ID:          id,
		Stake:       stake,
		Status:      domain.MatchActive,
		Seats:       seats,
		CurrentSeat: startSeat,
		TurnState:   domain.TurnRolling,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i := range m.Tokens {
		color := seats[i/TokensPerColor].Color
		m.Tokens[i] = domain.Token{
			ID:    i,
			Color: color,
			Pos:   domain.Position{Zone: domain.ZoneYard, Index: i % TokensPerColor},
		}
	}
	return m
}

// Roll обрабатывает бросок кубика текущего места. Возвращает допустимые
// ходы; пустой список означает бросок без ходов - кубик остается видимым,
// комната передаст ход после короткой паузы через EndBarrenTurn.
func Roll(m *domain.Match, dice int) ([]domain.Move, error) {
	if m.Status == domain.MatchCompleted || m.TurnState == domain.TurnGameOver {
		return nil, ErrMatchFinished
	}
	if m.TurnState != domain.TurnRolling {
		return nil, ErrWrongState
	}
	if dice < DiceMin || dice > DiceMax {
		return nil, ErrIllegalMove
	}

	m.DiceValue = dice
	m.UpdatedAt = time.Now()

	moves := LegalMoves(m, dice)
	if len(moves) == 0 {
		m.LegalMoves = nil
		return nil, nil
	}

	m.TurnState = domain.TurnMoving
	m.LegalMoves = moves
	return moves, nil
}

// EndBarrenTurn передает ход после броска без доступных ходов
func EndBarrenTurn(m *domain.Match) {
	if m.TurnState != domain.TurnRolling {
		return
	}
	m.DiceValue = 0
	m.LegalMoves = nil
	m.CurrentSeat = 1 - m.CurrentSeat
	m.UpdatedAt = time.Now()
}

// итог применения хода
type MoveOutcome struct {
	Move        domain.Move
	Captured    bool
	ReachedHome bool
	ExtraTurn   bool
	Won         bool
}

// ApplyMove применяет выбранный ход и продвигает автомат состояний:
// перемещение, взятие, проверка победы, передача хода (или дополнительный
// ход за шестерку, взятие либо доведенную до дома фишку).
func ApplyMove(m *domain.Match, tokenID int) (MoveOutcome, error) {
	if m.Status == domain.MatchCompleted || m.TurnState == domain.TurnGameOver {
		return MoveOutcome{}, ErrMatchFinished
	}
	if m.TurnState != domain.TurnMoving {
		return MoveOutcome{}, ErrWrongState
	}

	var chosen *domain.Move
	for i := range m.LegalMoves {
		if m.LegalMoves[i].TokenID == tokenID {
			chosen = &m.LegalMoves[i]
			break
		}
	}
	if chosen == nil {
		return MoveOutcome{}, ErrIllegalMove
	}

	dice := m.DiceValue
	out := MoveOutcome{Move: *chosen}

	tok := &m.Tokens[chosen.TokenID]
	tok.Pos = chosen.To

	if chosen.Captures >= 0 {
		captured := &m.Tokens[chosen.Captures]
		// взятая фишка теряет весь прогресс и возвращается в свой слот двора
		captured.Pos = domain.Position{Zone: domain.ZoneYard, Index: captured.YardSlot()}
		out.Captured = true
	}
	if chosen.To.Zone == domain.ZoneHome {
		out.ReachedHome = true
	}
	out.ExtraTurn = dice == DiceMax || out.Captured || out.ReachedHome

	m.DiceValue = 0
	m.LegalMoves = nil
	m.UpdatedAt = time.Now()

	if allHome(m, tok.Color) {
		// в матче на двоих первый победитель завершает матч
		m.Winners = append(m.Winners, tok.Color)
		m.Status = domain.MatchCompleted
		m.TurnState = domain.TurnGameOver
		out.Won = true
		return out, nil
	}

	if !out.ExtraTurn {
		m.CurrentSeat = 1 - m.CurrentSeat
	}
	m.TurnState = domain.TurnRolling
	return out, nil
}

func allHome(m *domain.Match, color domain.Color) bool {
	for i := range m.Tokens {
		t := &m.Tokens[i]
		if t.Color == color && t.Pos.Zone != domain.ZoneHome {
			return false
		}
	}
	return true
}
