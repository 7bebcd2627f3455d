package game

import "ludo_arena/internal/domain"

// LegalMoves вычисляет допустимые ходы цвета, который сейчас ходит,
// для данного значения кубика.
func LegalMoves(m *domain.Match, dice int) []domain.Move {
	color := m.CurrentColor()
	var moves []domain.Move
	for i := range m.Tokens {
		t := &m.Tokens[i]
		if t.Color != color {
			continue
		}
		if mv, ok := moveFor(m, t, dice); ok {
			moves = append(moves, mv)
		}
	}
	return moves
}

func moveFor(m *domain.Match, t *domain.Token, dice int) (domain.Move, bool) {
	switch t.Pos.Zone {
	case domain.ZoneYard:
		// выход из двора только на шестерке
		if dice != DiceMax {
			return domain.Move{}, false
		}
		entry := StartCell(t.Color)
		// послабление для клетки входа: до 4 своих фишек вместо обычного блока из 2
		if ownTokensAt(m, t.Color, entry) >= EntryCellCap {
			return domain.Move{}, false
		}
		return pathDestination(m, t, entry)

	case domain.ZonePath:
		dist := DistanceToEntrance(t.Color, t.Pos.Index)
		if dice <= dist {
			dest := (t.Pos.Index + dice) % TrackLength
			// собственный блок на клетке назначения
			if ownTokensAt(m, t.Color, dest) >= BlockadeSize {
				return domain.Move{}, false
			}
			return pathDestination(m, t, dest)
		}
		// переход на домашнюю тропу; перелет за нее хода не дает
		homeIdx := dice - dist - 1
		switch {
		case homeIdx < HomePathLength:
			return homeMove(t, domain.Position{Zone: domain.ZoneHomePath, Index: homeIdx}), true
		case homeIdx == HomePathLength:
			return homeMove(t, domain.Position{Zone: domain.ZoneHome}), true
		default:
			return domain.Move{}, false
		}

	case domain.ZoneHomePath:
		// только точный бросок доводит до дома
		next := t.Pos.Index + dice
		switch {
		case next < HomePathLength:
			return homeMove(t, domain.Position{Zone: domain.ZoneHomePath, Index: next}), true
		case next == HomePathLength:
			return homeMove(t, domain.Position{Zone: domain.ZoneHome}), true
		default:
			return domain.Move{}, false
		}
	}

	// уже дома
	return domain.Move{}, false
}

// pathDestination проверяет клетку круга: блок противника исключает ход,
// одиночная фишка противника на небезопасной клетке берется.
func pathDestination(m *domain.Match, t *domain.Token, dest int) (domain.Move, bool) {
	count, single := opponentTokensAt(m, t.Color, dest)
	if count >= BlockadeSize {
		return domain.Move{}, false
	}

	mv := domain.Move{
		TokenID:  t.ID,
		From:     t.Pos,
		To:       domain.Position{Zone: domain.ZonePath, Index: dest},
		Captures: -1,
	}
	if count == 1 && !IsSafeCell(dest) {
		mv.Captures = single.ID
	}
	return mv, true
}

func homeMove(t *domain.Token, to domain.Position) domain.Move {
	return domain.Move{TokenID: t.ID, From: t.Pos, To: to, Captures: -1}
}

func ownTokensAt(m *domain.Match, color domain.Color, pathIdx int) int {
	n := 0
	for i := range m.Tokens {
		t := &m.Tokens[i]
		if t.Color == color && t.Pos.Zone == domain.ZonePath && t.Pos.Index == pathIdx {
			n++
		}
	}
	return n
}

func opponentTokensAt(m *domain.Match, color domain.Color, pathIdx int) (int, *domain.Token) {
	n := 0
	var single *domain.Token
	for i := range m.Tokens {
		t := &m.Tokens[i]
		if t.Color != color && t.Pos.Zone == domain.ZonePath && t.Pos.Index == pathIdx {
			n++
			single = t
		}
	}
	return n, single
}
