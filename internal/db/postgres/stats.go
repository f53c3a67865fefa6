package postgres

import (
	"context"
	"fmt"

	"serotonyl.ru/numbers-bot/internal/store"
)

// Statistics собирает сводку для админ-панели и /stats.
func (r *Repository) Statistics(ctx context.Context) (*store.Statistics, error) {
	st := &store.Statistics{OrdersByStatus: make(map[store.OrderStatus]int)}

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(SUM(balance), 0) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(amount), 0) FROM orders WHERE status = 'completed')
	`).Scan(&st.TotalUsers, &st.TotalBalance, &st.TotalProducts, &st.TotalTransactions, &st.TotalSales)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики заказов: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status store.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("ошибка чтения статистики: %w", err)
		}
		st.OrdersByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	st.PendingOrders = st.OrdersByStatus[store.OrderPending]
	return st, nil
}
