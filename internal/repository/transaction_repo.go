package repository

import (
	"context"
	"encoding/json"

	"ludo_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// отвечает за историю движений по балансу
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	meta, err := json.Marshal(t.Meta)
	if err != nil {
		meta = []byte("{}")
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, meta)
		VALUES ($1, $2, $3, $4)
	`, t.UserID, t.Type, t.Amount, meta)
	return err
}

// создает запись внутри существующей транзакции БД
func (r *TransactionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	meta, err := json.Marshal(t.Meta)
	if err != nil {
		meta = []byte("{}")
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, meta)
		VALUES ($1, $2, $3, $4)
	`, t.UserID, t.Type, t.Amount, meta)
	return err
}

// возвращает последние движения пользователя
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, amount, meta, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var meta []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &meta, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &t.Meta); err != nil {
			t.Meta = make(map[string]interface{})
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}
