package service

import (
	"context"
	"errors"

	"ludo_arena/internal/domain"
	"ludo_arena/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = errors.New("недостаточно средств")
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrInvalidAmount     = errors.New("неверная сумма")
)

// обрабатывает все операции с балансом
type BalanceService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
}

// создает новый сервис баланса
func NewBalanceService(db *pgxpool.Pool) *BalanceService {
	return &BalanceService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// возвращает текущий баланс пользователя
func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT coins FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Reserve списывает ставку при создании матча. Проигравший больше ничего
// не платит - его ставка уже удержана здесь.
func (s *BalanceService) Reserve(ctx context.Context, userID, amount int64, matchID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// блокируем и проверяем баланс
	var balance int64
	err = tx.QueryRow(ctx, `SELECT coins FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if balance < amount {
		return ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `UPDATE users SET coins = coins - $1 WHERE id = $2`, amount, userID)
	if err != nil {
		return err
	}

	record := &domain.Transaction{
		UserID: userID,
		Type:   "stake_reserve",
		Amount: -amount,
		Meta:   map[string]interface{}{"match_id": matchID},
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, record); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Release возвращает зарезервированную ставку, если паринг сорвался
// (например, второй игрок не прошел проверку баланса)
func (s *BalanceService) Release(ctx context.Context, userID, amount int64, matchID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	_, err := s.credit(ctx, userID, amount, "stake_release", map[string]interface{}{"match_id": matchID})
	return err
}

// Credit начисляет сумму на баланс (выигрыши, бонусы)
func (s *BalanceService) Credit(ctx context.Context, userID, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	return s.credit(ctx, userID, amount, txType, meta)
}

func (s *BalanceService) credit(ctx context.Context, userID, amount int64, txType string, meta map[string]interface{}) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `UPDATE users SET coins = coins + $1 WHERE id = $2 RETURNING coins`, amount, userID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	record := &domain.Transaction{
		UserID: userID,
		Type:   txType,
		Amount: amount,
		Meta:   meta,
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, record); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}
