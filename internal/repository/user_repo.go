package repository

import (
	"context"
	"errors"

	"ludo_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("пользователь не найден")

// отвечает за операции с пользователями
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		SELECT id, tg_id, username, first_name, coins, games_played, games_won, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.Coins, &u.GamesPlayed, &u.GamesWon, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetOrCreateByTgID создает пользователя при первом входе и обновляет
// имя/username при повторных
func (r *UserRepository) GetOrCreateByTgID(ctx context.Context, tgID int64, username, firstName string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (tg_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tg_id) DO UPDATE SET username = $2, first_name = $3
		RETURNING id, tg_id, username, first_name, coins, games_played, games_won, created_at
	`, tgID, username, firstName).Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.Coins, &u.GamesPlayed, &u.GamesWon, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TopByWins возвращает лидеров по числу побед
func (r *UserRepository) TopByWins(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tg_id, username, first_name, coins, games_played, games_won, created_at
		FROM users
		WHERE games_played > 0
		ORDER BY games_won DESC, games_played ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.Coins, &u.GamesPlayed, &u.GamesWon, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// UpdateCoins изменяет баланс на delta (может быть отрицательной)
// и возвращает новый баланс
func (r *UserRepository) UpdateCoins(ctx context.Context, userID int64, delta int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `
		UPDATE users SET coins = coins + $1 WHERE id = $2 RETURNING coins
	`, delta, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}
