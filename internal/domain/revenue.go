package domain

import "time"

// Запись комиссии платформы с завершенного матча (append-only леджер)
type RevenueEntry struct {
	ID        int64     `db:"id" json:"id"`
	MatchID   string    `db:"match_id" json:"match_id"`
	Stake     int64     `db:"stake" json:"stake"`
	Amount    int64     `db:"amount" json:"amount"` // удержанная комиссия
	WinnerID  int64     `db:"winner_id" json:"winner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Движение по балансу пользователя (история)
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Amount    int64                  `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
