package game

import "ludo_arena/internal/domain"

// ChooseAutoMove выбирает ход за автопилот (бот, отключившийся игрок или
// истекший таймер хода): взятие > довести фишку до дома > первый доступный.
func ChooseAutoMove(moves []domain.Move) (domain.Move, bool) {
	if len(moves) == 0 {
		return domain.Move{}, false
	}
	for _, mv := range moves {
		if mv.Captures >= 0 {
			return mv, true
		}
	}
	for _, mv := range moves {
		if mv.To.Zone == domain.ZoneHome {
			return mv, true
		}
	}
	return moves[0], true
}
