package domain

import "time"

type User struct {
	ID          int64     `db:"id" json:"id"`
	TgID        int64     `db:"tg_id" json:"tg_id"`
	Username    string    `db:"username" json:"username"`
	FirstName   string    `db:"first_name" json:"first_name"`
	Coins       int64     `db:"coins" json:"coins"`
	GamesPlayed int64     `db:"games_played" json:"games_played"`
	GamesWon    int64     `db:"games_won" json:"games_won"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DisplayName - имя для отображения противнику
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
