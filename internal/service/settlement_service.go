package service

import (
	"context"
	"errors"

	"ludo_arena/internal/domain"
	"ludo_arena/internal/metrics"
	"ludo_arena/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// комиссия платформы с банка матча, процентов
const CommissionPct = 10

var (
	ErrMatchNotCompleted = errors.New("матч не завершен")
	ErrNoWinner          = errors.New("у матча нет победителя")
)

// ComputeSettlement возвращает банк, комиссию и выплату победителю
func ComputeSettlement(stake int64) (pot, commission, payout int64) {
	pot = stake * 2
	commission = pot * CommissionPct / 100
	payout = pot - commission
	return
}

// Расчетный движок: одноразовая выплата банка при завершении матча
type SettlementService struct {
	db           *pgxpool.Pool
	matches      *repository.MatchRepository
	revenue      *repository.RevenueRepository
	transactions *repository.TransactionRepository
}

func NewSettlementService(db *pgxpool.Pool) *SettlementService {
	return &SettlementService{
		db:           db,
		matches:      repository.NewMatchRepository(db),
		revenue:      repository.NewRevenueRepository(db),
		transactions: repository.NewTransactionRepository(db),
	}
}

// Settle выполняет расчет завершенного матча ровно один раз: выплата
// победителю, запись комиссии в леджер, обновление статистики обоих
// игроков и установка флага settlement_processed - все в одной
// транзакции, так что выплата и флаг коммитятся атомарно.
// Повторный вызов - no-op.
func (s *SettlementService) Settle(ctx context.Context, m *domain.Match) error {
	if m.SettlementProcessed {
		return nil
	}
	if m.Status != domain.MatchCompleted {
		return ErrMatchNotCompleted
	}
	if len(m.Winners) == 0 {
		return ErrNoWinner
	}

	winnerIdx := m.SeatIndex(m.Winners[0])
	if winnerIdx < 0 {
		return ErrNoWinner
	}
	winnerID := m.Seats[winnerIdx].UserID
	loserID := m.Seats[1-winnerIdx].UserID

	pot, commission, payout := ComputeSettlement(m.Stake)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// флаг под блокировкой строки - защита от параллельного расчета
	already, err := s.matches.LockForSettlement(ctx, tx, m.ID)
	if err != nil {
		return err
	}
	if already {
		m.SettlementProcessed = true
		return nil
	}

	// выплата победителю и статистика; ставка проигравшего удержана
	// при резервировании, его баланс не трогаем
	_, err = tx.Exec(ctx, `
		UPDATE users SET coins = coins + $1, games_played = games_played + 1, games_won = games_won + 1
		WHERE id = $2
	`, payout, winnerID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE users SET games_played = games_played + 1 WHERE id = $1`, loserID)
	if err != nil {
		return err
	}

	record := &domain.Transaction{
		UserID: winnerID,
		Type:   "match_win",
		Amount: payout,
		Meta: map[string]interface{}{
			"match_id":   m.ID,
			"stake":      m.Stake,
			"pot":        pot,
			"commission": commission,
		},
	}
	if err = s.transactions.CreateWithTx(ctx, tx, record); err != nil {
		return err
	}

	entry := &domain.RevenueEntry{
		MatchID:  m.ID,
		Stake:    m.Stake,
		Amount:   commission,
		WinnerID: winnerID,
	}
	if err = s.revenue.CreateWithTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = s.matches.MarkSettledWithTx(ctx, tx, m.ID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}

	m.SettlementProcessed = true
	metrics.MatchesSettled.Inc()
	metrics.CommissionTotal.Add(float64(commission))
	return nil
}
