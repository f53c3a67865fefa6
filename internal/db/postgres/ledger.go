package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// insertMovement пишет запись журнала в той же транзакции, что и изменение баланса.
func insertMovement(ctx context.Context, tx pgx.Tx, userID int64, delta decimal.Decimal, m store.Movement) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO balance_movements (user_id, delta, kind, order_id, description)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, delta, string(m.Kind), m.OrderID, m.Description)
	if err != nil {
		return fmt.Errorf("ошибка записи движения баланса: %w", err)
	}
	return nil
}

// creditTx начисляет amount внутри транзакции tx.
func creditTx(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2 WHERE user_id = $1 RETURNING balance
	`, userID, amount).Scan(&balance)
	if err != nil {
		return decimal.Zero, notFound(err, fmt.Sprintf("пользователь %d", userID))
	}
	if err := insertMovement(ctx, tx, userID, amount, m); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// debitTx списывает amount внутри транзакции tx. Баланс читается с FOR UPDATE,
// поэтому проверка и списание не пересекаются с другими изменениями той же строки.
func debitTx(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	var current decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT balance FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, common.ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if current.LessThan(amount) {
		return decimal.Zero, fmt.Errorf("нужно %s, есть %s: %w", amount, current, common.ErrInsufficientFunds)
	}

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $2 WHERE user_id = $1 RETURNING balance
	`, userID, amount).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка списания: %w", err)
	}
	if err := insertMovement(ctx, tx, userID, amount.Neg(), m); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *Repository) Credit(ctx context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	balance, err := creditTx(ctx, tx, userID, amount, m)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, tx.Commit(ctx)
}

func (r *Repository) Debit(ctx context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	balance, err := debitTx(ctx, tx, userID, amount, m)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, tx.Commit(ctx)
}

// ListMovements возвращает последние движения баланса пользователя, новые первыми.
func (r *Repository) ListMovements(ctx context.Context, userID int64, limit int) ([]*store.Movement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, delta, kind, order_id, description, created_at
		FROM balance_movements
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории баланса: %w", err)
	}
	defer rows.Close()

	var out []*store.Movement
	for rows.Next() {
		var m store.Movement
		if err := rows.Scan(&m.ID, &m.UserID, &m.Delta, &m.Kind, &m.OrderID, &m.Description, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения движения: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
