package repository

import (
	"context"

	"ludo_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// отвечает за append-only леджер комиссий платформы
type RevenueRepository struct {
	db *pgxpool.Pool
}

func NewRevenueRepository(db *pgxpool.Pool) *RevenueRepository {
	return &RevenueRepository{db: db}
}

// добавляет запись комиссии
func (r *RevenueRepository) Create(ctx context.Context, e *domain.RevenueEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO revenue (match_id, stake, amount, winner_id)
		VALUES ($1, $2, $3, $4)
	`, e.MatchID, e.Stake, e.Amount, e.WinnerID)
	return err
}

// добавляет запись комиссии внутри транзакции расчета
func (r *RevenueRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, e *domain.RevenueEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO revenue (match_id, stake, amount, winner_id)
		VALUES ($1, $2, $3, $4)
	`, e.MatchID, e.Stake, e.Amount, e.WinnerID)
	return err
}

// возвращает последние записи комиссий
func (r *RevenueRepository) GetRecent(ctx context.Context, limit int) ([]*domain.RevenueEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, match_id, stake, amount, winner_id, created_at
		FROM revenue
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.RevenueEntry
	for rows.Next() {
		var e domain.RevenueEntry
		if err := rows.Scan(&e.ID, &e.MatchID, &e.Stake, &e.Amount, &e.WinnerID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// возвращает суммарную комиссию платформы
func (r *RevenueRepository) Total(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM revenue`).Scan(&total)
	return total, err
}
