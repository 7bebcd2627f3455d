package repository

import (
	"context"
	"encoding/json"
	"errors"

	"ludo_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrMatchNotFound = errors.New("матч не найден")

// отвечает за хранение документов матчей (состояние целиком в JSONB,
// ключ - id матча)
type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// создает документ нового матча
func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	state, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO matches (id, stake, status, state, settlement_processed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.Stake, m.Status, state, m.SettlementProcessed, m.CreatedAt, m.UpdatedAt)
	return err
}

// сохраняет состояние матча после перехода автомата состояний
func (r *MatchRepository) Save(ctx context.Context, m *domain.Match) error {
	state, err := json.Marshal(m)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE matches
		SET status = $2, state = $3, updated_at = $4
		WHERE id = $1
	`, m.ID, m.Status, state, m.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var state []byte
	var settled bool
	err := r.db.QueryRow(ctx, `
		SELECT state, settlement_processed FROM matches WHERE id = $1
	`, id).Scan(&state, &settled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	var m domain.Match
	if err := json.Unmarshal(state, &m); err != nil {
		return nil, err
	}
	// колонка-гард авторитетнее снапшота
	m.SettlementProcessed = settled
	return &m, nil
}

// возвращает все активные матчи (для цикла восстановления консистентности)
func (r *MatchRepository) ListActive(ctx context.Context) ([]*domain.Match, error) {
	rows, err := r.db.Query(ctx, `
		SELECT state, settlement_processed FROM matches WHERE status = $1
	`, domain.MatchActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		var state []byte
		var settled bool
		if err := rows.Scan(&state, &settled); err != nil {
			return nil, err
		}
		var m domain.Match
		if err := json.Unmarshal(state, &m); err != nil {
			continue // битый документ чинит не ремонт, а оператор
		}
		m.SettlementProcessed = settled
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// возвращает завершенные матчи без произведенного расчета - выплата,
// сорвавшаяся в момент победы, дожимается контуром ремонта
func (r *MatchRepository) ListUnsettled(ctx context.Context) ([]*domain.Match, error) {
	rows, err := r.db.Query(ctx, `
		SELECT state, settlement_processed FROM matches
		WHERE status = $1 AND settlement_processed = false
	`, domain.MatchCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		var state []byte
		var settled bool
		if err := rows.Scan(&state, &settled); err != nil {
			return nil, err
		}
		var m domain.Match
		if err := json.Unmarshal(state, &m); err != nil {
			continue
		}
		m.SettlementProcessed = settled
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// LockForSettlement блокирует строку матча внутри транзакции расчета
// и возвращает текущее значение флага settlement_processed.
func (r *MatchRepository) LockForSettlement(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	var settled bool
	err := tx.QueryRow(ctx, `
		SELECT settlement_processed FROM matches WHERE id = $1 FOR UPDATE
	`, id).Scan(&settled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrMatchNotFound
		}
		return false, err
	}
	return settled, nil
}

// MarkSettledWithTx устанавливает флаг расчета в той же транзакции,
// что и выплата - выплата и флаг коммитятся атомарно.
func (r *MatchRepository) MarkSettledWithTx(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `
		UPDATE matches SET settlement_processed = true WHERE id = $1
	`, id)
	return err
}
