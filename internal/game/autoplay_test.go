package game

import (
	"testing"

	"ludo_arena/internal/domain"
)

func TestChooseAutoMove_PrefersCapture(t *testing.T) {
	moves := []domain.Move{
		{TokenID: 0, To: domain.Position{Zone: domain.ZonePath, Index: 5}, Captures: -1},
		{TokenID: 1, To: domain.Position{Zone: domain.ZonePath, Index: 9}, Captures: 4},
		{TokenID: 2, To: domain.Position{Zone: domain.ZoneHome}, Captures: -1},
	}

	mv, ok := ChooseAutoMove(moves)
	if !ok || mv.TokenID != 1 {
		t.Fatalf("взятие должно иметь высший приоритет, выбрано %+v", mv)
	}
}

func TestChooseAutoMove_PrefersHome(t *testing.T) {
	moves := []domain.Move{
		{TokenID: 0, To: domain.Position{Zone: domain.ZonePath, Index: 5}, Captures: -1},
		{TokenID: 2, To: domain.Position{Zone: domain.ZoneHome}, Captures: -1},
	}

	mv, ok := ChooseAutoMove(moves)
	if !ok || mv.TokenID != 2 {
		t.Fatalf("довести фишку до дома важнее обычного хода, выбрано %+v", mv)
	}
}

func TestChooseAutoMove_Fallback(t *testing.T) {
	moves := []domain.Move{
		{TokenID: 3, To: domain.Position{Zone: domain.ZonePath, Index: 7}, Captures: -1},
	}
	mv, ok := ChooseAutoMove(moves)
	if !ok || mv.TokenID != 3 {
		t.Fatalf("ожидался первый доступный ход, выбрано %+v", mv)
	}

	if _, ok := ChooseAutoMove(nil); ok {
		t.Fatalf("пустой список не должен давать ход")
	}
}
