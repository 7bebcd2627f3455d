package game

import (
	"testing"

	"ludo_arena/internal/domain"
)

func TestNewMatch_InitialState(t *testing.T) {
	m := testMatch()

	if m.Status != domain.MatchActive || m.TurnState != domain.TurnRolling {
		t.Fatalf("новый матч должен быть active/rolling, получено %s/%s", m.Status, m.TurnState)
	}
	red, green := 0, 0
	for _, tok := range m.Tokens {
		if tok.Pos.Zone != domain.ZoneYard {
			t.Fatalf("все фишки должны начинать во дворе, фишка %d в %s", tok.ID, tok.Pos.Zone)
		}
		switch tok.Color {
		case domain.ColorRed:
			red++
		case domain.ColorGreen:
			green++
		}
	}
	if red != 4 || green != 4 {
		t.Fatalf("ожидалось по 4 фишки каждого цвета, получено red=%d green=%d", red, green)
	}
}

func TestRollDice_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		if d := RollDice(); d < DiceMin || d > DiceMax {
			t.Fatalf("значение кубика вне диапазона: %d", d)
		}
	}
}

func TestRoll_WrongState(t *testing.T) {
	m := testMatch()
	m.TurnState = domain.TurnMoving

	if _, err := Roll(m, 3); err != ErrWrongState {
		t.Fatalf("ожидался ErrWrongState, получено %v", err)
	}
}

func TestRoll_Barren(t *testing.T) {
	m := testMatch()

	moves, err := Roll(m, 3)
	if err != nil || moves != nil {
		t.Fatalf("бросок без ходов: ожидалось (nil, nil), получено (%v, %v)", moves, err)
	}
	// кубик остается видимым, фаза не меняется
	if m.DiceValue != 3 || m.TurnState != domain.TurnRolling {
		t.Fatalf("после пустого броска dice=%d state=%s", m.DiceValue, m.TurnState)
	}

	EndBarrenTurn(m)
	if m.DiceValue != 0 || m.CurrentSeat != 1 {
		t.Fatalf("после паузы ход должен перейти: dice=%d seat=%d", m.DiceValue, m.CurrentSeat)
	}
}

func TestRoll_SetsMovingPhase(t *testing.T) {
	m := testMatch()

	moves, err := Roll(m, 6)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if m.TurnState != domain.TurnMoving || len(m.LegalMoves) != len(moves) {
		t.Fatalf("после броска с ходами фаза должна быть moving")
	}
}

func TestApplyMove_ExtraTurnOnSix(t *testing.T) {
	m := testMatch()
	if _, err := Roll(m, 6); err != nil {
		t.Fatalf("бросок: %v", err)
	}

	out, err := ApplyMove(m, 0)
	if err != nil {
		t.Fatalf("ход: %v", err)
	}
	if !out.ExtraTurn || m.CurrentSeat != 0 || m.TurnState != domain.TurnRolling {
		t.Fatalf("шестерка должна давать дополнительный ход: %+v seat=%d", out, m.CurrentSeat)
	}
	if m.DiceValue != 0 {
		t.Fatalf("кубик должен сбрасываться после хода")
	}
}

func TestApplyMove_PassesTurn(t *testing.T) {
	m := testMatch()
	placeOnPath(m, 0, 10)

	if _, err := Roll(m, 2); err != nil {
		t.Fatalf("бросок: %v", err)
	}
	out, err := ApplyMove(m, 0)
	if err != nil {
		t.Fatalf("ход: %v", err)
	}
	if out.ExtraTurn || m.CurrentSeat != 1 || m.TurnState != domain.TurnRolling {
		t.Fatalf("обычный ход должен передать очередь: %+v seat=%d", out, m.CurrentSeat)
	}
}

func TestApplyMove_CaptureReturnsTokenToYard(t *testing.T) {
	m := testMatch()
	placeOnPath(m, 0, 2)
	placeOnPath(m, 4, 4)

	if _, err := Roll(m, 2); err != nil {
		t.Fatalf("бросок: %v", err)
	}
	out, err := ApplyMove(m, 0)
	if err != nil {
		t.Fatalf("ход: %v", err)
	}
	if !out.Captured || !out.ExtraTurn {
		t.Fatalf("взятие должно давать дополнительный ход: %+v", out)
	}

	captured := m.Tokens[4]
	if captured.Pos.Zone != domain.ZoneYard || captured.Pos.Index != captured.YardSlot() {
		t.Fatalf("взятая фишка должна вернуться в свой слот двора, получено %+v", captured.Pos)
	}
}

func TestApplyMove_Illegal(t *testing.T) {
	m := testMatch()
	if _, err := Roll(m, 6); err != nil {
		t.Fatalf("бросок: %v", err)
	}

	// фишка противника не входит в список допустимых ходов
	if _, err := ApplyMove(m, 4); err != ErrIllegalMove {
		t.Fatalf("ожидался ErrIllegalMove, получено %v", err)
	}
}

func TestApplyMove_Win(t *testing.T) {
	m := testMatch()
	for i := 0; i < 3; i++ {
		m.Tokens[i].Pos = domain.Position{Zone: domain.ZoneHome}
	}
	m.Tokens[3].Pos = domain.Position{Zone: domain.ZoneHomePath, Index: 4}

	if _, err := Roll(m, 1); err != nil {
		t.Fatalf("бросок: %v", err)
	}
	out, err := ApplyMove(m, 3)
	if err != nil {
		t.Fatalf("ход: %v", err)
	}
	if !out.Won {
		t.Fatalf("четвертая фишка дома должна завершать матч")
	}
	if m.Status != domain.MatchCompleted || m.TurnState != domain.TurnGameOver {
		t.Fatalf("матч должен стать completed/gameover, получено %s/%s", m.Status, m.TurnState)
	}
	if len(m.Winners) != 1 || m.Winners[0] != domain.ColorRed {
		t.Fatalf("победителем должен быть красный, получено %v", m.Winners)
	}

	// после завершения действия отклоняются
	if _, err := Roll(m, 3); err != ErrMatchFinished {
		t.Fatalf("ожидался ErrMatchFinished, получено %v", err)
	}
}

func TestTokenConservation(t *testing.T) {
	m := testMatch()
	placeOnPath(m, 0, 2)
	placeOnPath(m, 4, 4)

	if _, err := Roll(m, 2); err != nil {
		t.Fatalf("бросок: %v", err)
	}
	if _, err := ApplyMove(m, 0); err != nil {
		t.Fatalf("ход: %v", err)
	}

	counts := map[domain.Color]int{}
	for _, tok := range m.Tokens {
		counts[tok.Color]++
	}
	if counts[domain.ColorRed] != 4 || counts[domain.ColorGreen] != 4 {
		t.Fatalf("фишки не сохраняются: %v", counts)
	}
}
