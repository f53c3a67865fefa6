package admin

import (
	"fmt"
	"strings"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/features/orders"
	"serotonyl.ru/numbers-bot/internal/store"
)

// FormatStatistics — текст сводки для панели и ежедневного отчёта.
func FormatStatistics(title string, st *store.Statistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", title)
	fmt.Fprintf(&b, "👥 Пользователей: %d\n", st.TotalUsers)
	fmt.Fprintf(&b, "📱 Товаров: %d\n", st.TotalProducts)
	fmt.Fprintf(&b, "⏳ Заказов в ожидании: %d\n", st.PendingOrders)
	fmt.Fprintf(&b, "💰 Баланс пользователей: %s\n", common.FormatTON(st.TotalBalance))
	fmt.Fprintf(&b, "💸 Продажи: %s\n", common.FormatTON(st.TotalSales))
	fmt.Fprintf(&b, "🔗 Заявок на пополнение: %d\n", st.TotalTransactions)

	if len(st.OrdersByStatus) > 0 {
		b.WriteString("\nЗаказы по статусам:\n")
		for _, s := range orders.Statuses {
			if n := st.OrdersByStatus[s]; n > 0 {
				fmt.Fprintf(&b, "%s: %d\n", orders.StatusTitle(s), n)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatOrderLine — одна строка списка заказов.
func FormatOrderLine(o *store.Order) string {
	return fmt.Sprintf("#%d %s · %s · %s · %s",
		o.ID, orders.ProductName(o), common.FormatTON(o.Amount),
		common.DisplayName(o.UserID, o.Username), common.FormatDateTime(o.CreatedAt))
}
