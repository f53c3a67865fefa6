package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

const txColumns = `id, user_id, amount, tx_hash, status, created_at`

func scanTransaction(row pgx.Row) (*store.Transaction, error) {
	var t store.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.TxHash, &t.Status, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// RecordTransaction регистрирует депозит. Повторный хэш отсекает UNIQUE-индекс.
func (r *Repository) RecordTransaction(ctx context.Context, userID int64, amount decimal.Decimal, hash string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, tx_hash, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id
	`, userID, amount, hash).Scan(&id)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("хэш %s: %w", hash, common.ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return id, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (*store.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("транзакция %d", id))
	}
	return t, nil
}

func (r *Repository) FindTransactionByHash(ctx context.Context, hash string) (*store.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE tx_hash = $1`, hash))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("транзакция %s", hash))
	}
	return t, nil
}

// SetTransactionStatus меняет статус только у депозита в pending.
func (r *Repository) SetTransactionStatus(ctx context.Context, id int64, status store.TxStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET status = $2 WHERE id = $1 AND status = 'pending'
	`, id, string(status))
	if err != nil {
		return fmt.Errorf("ошибка смены статуса транзакции: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetTransaction(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("транзакция %d уже обработана: %w", id, common.ErrInvalidState)
	}
	return nil
}

func (r *Repository) queryTransactions(ctx context.Context, where string, args ...any) ([]*store.Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+txColumns+` FROM transactions`+where+` ORDER BY id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var out []*store.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения транзакции: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ListUserTransactions(ctx context.Context, userID int64) ([]*store.Transaction, error) {
	return r.queryTransactions(ctx, ` WHERE user_id = $1`, userID)
}

func (r *Repository) ListTransactionsByStatus(ctx context.Context, status store.TxStatus) ([]*store.Transaction, error) {
	if status == "" {
		return r.queryTransactions(ctx, "")
	}
	return r.queryTransactions(ctx, ` WHERE status = $1`, string(status))
}

// ConfirmDeposit фиксирует сумму депозита и начисляет её одной транзакцией.
// Блокировки: строка депозита, затем строка пользователя.
func (r *Repository) ConfirmDeposit(ctx context.Context, txID int64, amount decimal.Decimal) (*store.Transaction, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return nil, decimal.Zero, common.ErrInvalidAmount
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := scanTransaction(tx.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, txID))
	if err != nil {
		return nil, decimal.Zero, notFound(err, fmt.Sprintf("транзакция %d", txID))
	}
	if t.Status != store.TxPending {
		return nil, decimal.Zero, fmt.Errorf("транзакция %d в статусе %s: %w", txID, t.Status, common.ErrInvalidState)
	}

	balance, err := creditTx(ctx, tx, t.UserID, amount, store.Movement{
		Kind:        store.MovementDepositCredit,
		Description: fmt.Sprintf("Пополнение, транзакция #%d", t.ID),
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE transactions SET status = 'confirmed', amount = $2 WHERE id = $1
	`, txID, amount); err != nil {
		return nil, decimal.Zero, fmt.Errorf("ошибка смены статуса транзакции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, decimal.Zero, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	t.Status = store.TxConfirmed
	t.Amount = amount
	return t, balance, nil
}
