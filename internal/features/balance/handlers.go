package balance

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
)

var movementTitles = map[store.MovementKind]string{
	store.MovementAdminCredit:   "Начисление администратором",
	store.MovementDepositCredit: "Пополнение TON",
	store.MovementOrderDebit:    "Оплата заказа",
	store.MovementOrderRefund:   "Возврат за заказ",
}

// Handler — экран баланса.
type Handler struct {
	service *Service
	sender  *telegram.Sender
}

// NewHandler создаёт обработчик баланса.
func NewHandler(service *Service, sender *telegram.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// Show — «💳 Баланс»: сумма и последние движения.
func (h *Handler) Show(ctx context.Context, chatID, userID int64) {
	bal, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения баланса")
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💳 Ваш баланс\n\n💰 Доступно: %s", common.FormatTON(bal))

	history, err := h.service.History(ctx, userID, HistoryLimit)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Ошибка получения истории баланса")
	}
	if len(history) > 0 {
		b.WriteString("\n\n📜 Последние операции:")
		for _, m := range history {
			b.WriteString("\n")
			b.WriteString(FormatMovement(m))
		}
	}
	h.sender.Reply(chatID, b.String(), nil)
}

// FormatMovement — строка истории: "+2.5 TON · Пополнение TON · 01.02.2026 10:00".
func FormatMovement(m *store.Movement) string {
	sign := ""
	if m.Delta.IsPositive() {
		sign = "+"
	}
	title, ok := movementTitles[m.Kind]
	if !ok {
		title = string(m.Kind)
	}
	if m.OrderID != nil {
		title = fmt.Sprintf("%s #%d", title, *m.OrderID)
	}
	return fmt.Sprintf("%s%s · %s · %s", sign, common.FormatTON(m.Delta), title, common.FormatDateTime(m.CreatedAt))
}
