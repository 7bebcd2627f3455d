package game

import "ludo_arena/internal/domain"

const (
	TrackLength    = 52 // общий круг
	HomePathLength = 5  // домашняя тропа, индексы 0..4
	TokensPerColor = 4

	// Обычный блок - 2 фишки на клетке. На клетке входа разрешено
	// до 4 своих фишек, иначе двор может заблокировать сам себя.
	BlockadeSize = 2
	EntryCellCap = 4

	// клеток от стартовой клетки до входа в домашнюю тропу
	cellsToEntrance = 50
)

// стартовые клетки цветов (противоположные углы доски)
var startCells = map[domain.Color]int{
	domain.ColorRed:   0,
	domain.ColorGreen: 26,
}

// клетки, на которых взятие невозможно
var safeCells = map[int]bool{
	0: true, 8: true, 13: true, 21: true,
	26: true, 34: true, 39: true, 47: true,
}

// StartCell - клетка, на которую фишка выходит из двора
func StartCell(c domain.Color) int {
	return startCells[c]
}

// HomeEntrance - последняя клетка круга перед домашней тропой цвета
func HomeEntrance(c domain.Color) int {
	return (startCells[c] + cellsToEntrance) % TrackLength
}

func IsSafeCell(idx int) bool {
	return safeCells[idx]
}

// DistanceToEntrance - сколько клеток осталось до входа в домашнюю тропу
func DistanceToEntrance(c domain.Color, pathIdx int) int {
	return (HomeEntrance(c) - pathIdx + TrackLength) % TrackLength
}
