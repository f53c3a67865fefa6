package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// orderView — заказ с username покупателя и названием товара.
// LEFT JOIN на products: заказ удалённого товара остаётся в выборках.
const orderView = `
	SELECT o.id, o.user_id, o.product_id, o.amount, o.status, o.chat_id, o.admin_chat_id,
	       o.created_at, o.completed_at, u.username, COALESCE(p.name, '')
	FROM orders o
	JOIN users u ON u.user_id = o.user_id
	LEFT JOIN products p ON p.id = o.product_id
`

func scanOrder(row pgx.Row) (*store.Order, error) {
	var o store.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.ProductID, &o.Amount, &o.Status, &o.ChatID, &o.AdminChatID,
		&o.CreatedAt, &o.CompletedAt, &o.Username, &o.ProductName,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) queryOrders(ctx context.Context, where string, args ...any) ([]*store.Order, error) {
	rows, err := r.db.Query(ctx, orderView+where+" ORDER BY o.id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказов: %w", err)
	}
	defer rows.Close()

	var out []*store.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения заказа: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateOrder снимает цену товара в amount тем же запросом, что и вставка.
func (r *Repository) CreateOrder(ctx context.Context, userID, productID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, product_id, amount, status)
		SELECT $1, p.id, p.price, 'pending' FROM products p WHERE p.id = $2
		RETURNING id
	`, userID, productID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("пользователь %d: %w", userID, common.ErrNotFound)
		}
		return 0, notFound(err, fmt.Sprintf("товар %d", productID))
	}
	return id, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*store.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderView+" WHERE o.id = $1", id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("заказ %d", id))
	}
	return o, nil
}

func (r *Repository) ListPendingOrders(ctx context.Context) ([]*store.Order, error) {
	return r.ListOrdersByStatus(ctx, store.OrderPending)
}

func (r *Repository) ListOrdersByStatus(ctx context.Context, status store.OrderStatus) ([]*store.Order, error) {
	if status == "" {
		return r.queryOrders(ctx, "")
	}
	return r.queryOrders(ctx, " WHERE o.status = $1", string(status))
}

func (r *Repository) ListUserOrders(ctx context.Context, userID int64, status store.OrderStatus) ([]*store.Order, error) {
	if status == "" {
		return r.queryOrders(ctx, " WHERE o.user_id = $1", userID)
	}
	return r.queryOrders(ctx, " WHERE o.user_id = $1 AND o.status = $2", userID, string(status))
}

func (r *Repository) ListUserChats(ctx context.Context, userID int64) ([]*store.Order, error) {
	return r.ListUserOrders(ctx, userID, store.OrderProcessing)
}

func (r *Repository) ListActiveChats(ctx context.Context) ([]*store.ActiveChat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT o.user_id, u.username, o.chat_id, COALESCE(o.admin_chat_id, 0)
		FROM orders o
		JOIN users u ON u.user_id = o.user_id
		WHERE o.status = 'processing' AND o.chat_id IS NOT NULL
		ORDER BY o.user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активных чатов: %w", err)
	}
	defer rows.Close()

	var out []*store.ActiveChat
	for rows.Next() {
		var c store.ActiveChat
		if err := rows.Scan(&c.UserID, &c.Username, &c.ChatID, &c.AdminChatID); err != nil {
			return nil, fmt.Errorf("ошибка чтения чата: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// lockOrder читает статус и сумму заказа с блокировкой строки до конца транзакции.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID int64) (userID int64, status store.OrderStatus, amount decimal.Decimal, err error) {
	err = tx.QueryRow(ctx, `
		SELECT user_id, status, amount FROM orders WHERE id = $1 FOR UPDATE
	`, orderID).Scan(&userID, &status, &amount)
	if err != nil {
		err = notFound(err, fmt.Sprintf("заказ %d", orderID))
	}
	return
}

// commitOrder читает заказ внутри транзакции и фиксирует её. После Commit
// база больше не читается: зафиксированный переход всегда возвращает заказ.
func commitOrder(ctx context.Context, tx pgx.Tx, orderID int64) (*store.Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx, orderView+" WHERE o.id = $1", orderID))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("заказ %d", orderID))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return o, nil
}

// ConfirmOrder списывает сумму заказа и переводит его в processing.
// Блокировки: строка заказа, затем строка покупателя.
func (r *Repository) ConfirmOrder(ctx context.Context, orderID, buyerID, adminID int64) (*store.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	ownerID, status, amount, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if ownerID != buyerID {
		return nil, fmt.Errorf("заказ %d принадлежит другому пользователю: %w", orderID, common.ErrForbidden)
	}
	if status != store.OrderPending {
		return nil, fmt.Errorf("заказ %d в статусе %s: %w", orderID, status, common.ErrInvalidState)
	}

	m := store.Movement{
		Kind:        store.MovementOrderDebit,
		OrderID:     &orderID,
		Description: fmt.Sprintf("Оплата заказа #%d", orderID),
	}
	if _, err := debitTx(ctx, tx, buyerID, amount, m); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = 'processing', chat_id = $2, admin_chat_id = $3 WHERE id = $1
	`, orderID, buyerID, adminID); err != nil {
		return nil, fmt.Errorf("ошибка смены статуса заказа: %w", err)
	}

	return commitOrder(ctx, tx, orderID)
}

func (r *Repository) CompleteOrder(ctx context.Context, orderID int64) (*store.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, status, _, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if status != store.OrderProcessing {
		return nil, fmt.Errorf("заказ %d в статусе %s: %w", orderID, status, common.ErrInvalidState)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = 'completed', completed_at = NOW() WHERE id = $1
	`, orderID); err != nil {
		return nil, fmt.Errorf("ошибка смены статуса заказа: %w", err)
	}

	return commitOrder(ctx, tx, orderID)
}

// RejectOrder возвращает покупателю ровно ту сумму, что была списана при оплате.
func (r *Repository) RejectOrder(ctx context.Context, orderID int64) (*store.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	buyerID, status, amount, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if status != store.OrderProcessing {
		return nil, fmt.Errorf("заказ %d в статусе %s: %w", orderID, status, common.ErrInvalidState)
	}

	m := store.Movement{
		Kind:        store.MovementOrderRefund,
		OrderID:     &orderID,
		Description: fmt.Sprintf("Возврат по заказу #%d", orderID),
	}
	if _, err := creditTx(ctx, tx, buyerID, amount, m); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = 'rejected' WHERE id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("ошибка смены статуса заказа: %w", err)
	}

	return commitOrder(ctx, tx, orderID)
}
