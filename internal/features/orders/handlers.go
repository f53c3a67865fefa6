package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
)

// Statuses — статусы в порядке жизненного цикла.
var Statuses = []store.OrderStatus{
	store.OrderPending, store.OrderProcessing, store.OrderCompleted, store.OrderRejected,
}

var statusTitles = map[store.OrderStatus]string{
	store.OrderPending:    "⏳ Ожидают оплаты",
	store.OrderProcessing: "🔄 В работе",
	store.OrderCompleted:  "✅ Выполнены",
	store.OrderRejected:   "❌ Отклонены",
}

// StatusTitle — подпись статуса для списков.
func StatusTitle(s store.OrderStatus) string {
	if t, ok := statusTitles[s]; ok {
		return t
	}
	return string(s)
}

var statusLabels = map[store.OrderStatus]string{
	store.OrderPending:    "⏳ не оплачен",
	store.OrderProcessing: "🔄 в работе",
	store.OrderCompleted:  "✅ выполнен",
	store.OrderRejected:   "❌ отклонён, средства возвращены",
}

// HistoryLimit — сколько заказов показывает /history.
const HistoryLimit = 10

// BalanceReader — баланс покупателя для экрана подтверждения.
type BalanceReader interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// Handler — экраны покупки и кнопки админа под заказом.
type Handler struct {
	service *Service
	balance BalanceReader
	sender  *telegram.Sender
}

// NewHandler создаёт обработчик заказов.
func NewHandler(service *Service, balance BalanceReader, sender *telegram.Sender) *Handler {
	return &Handler{service: service, balance: balance, sender: sender}
}

// ProductName — название товара заказа или пометка, что товар удалён.
func ProductName(o *store.Order) string {
	if o.ProductName == "" {
		return "товар удалён"
	}
	return o.ProductName
}

// Buy создаёт заказ и показывает подтверждение оплаты с текущим балансом.
func (h *Handler) Buy(ctx context.Context, chatID int64, messageID int, userID, productID int64) {
	o, err := h.service.CreateOrder(ctx, userID, productID)
	if err != nil {
		h.sender.Show(chatID, messageID, telegram.ErrorText(err), nil)
		return
	}

	bal, err := h.balance.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось получить баланс")
	}

	var b strings.Builder
	b.WriteString("🛒 Подтверждение покупки\n\n")
	fmt.Fprintf(&b, "📱 Товар: %s\n", ProductName(o))
	fmt.Fprintf(&b, "💰 Цена: %s\n", common.FormatTON(o.Amount))
	fmt.Fprintf(&b, "💳 Ваш баланс: %s\n", common.FormatTON(bal))
	fmt.Fprintf(&b, "🆔 Заказ: #%d\n\n", o.ID)
	if bal.LessThan(o.Amount) {
		b.WriteString("⚠️ Средств недостаточно, сначала пополните баланс.\n\n")
	}
	b.WriteString("👇 Нажмите «Оплатить», чтобы списать сумму с баланса:")

	kb := telegram.PaymentConfirm(o.ID)
	h.sender.Show(chatID, messageID, b.String(), &kb)
}

// Pay оплачивает заказ с баланса. Админа и покупателя уведомляет Notifier.
func (h *Handler) Pay(ctx context.Context, chatID int64, messageID int, userID, orderID int64) {
	o, err := h.service.ConfirmPayment(ctx, orderID, userID)
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		kb := telegram.BackToMain()
		h.sender.Show(chatID, messageID, "❌ Недостаточно средств на балансе!\n\nПополните баланс и попробуйте снова.", &kb)
		return
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrForbidden):
		h.sender.Show(chatID, messageID, "❌ Заказ не найден!", nil)
		return
	case errors.Is(err, common.ErrInvalidState):
		h.sender.Show(chatID, messageID, "⚠️ Заказ уже оплачен", nil)
		return
	case err != nil:
		h.sender.Show(chatID, messageID, telegram.ErrorText(err), nil)
		return
	}

	h.sender.Show(chatID, messageID, fmt.Sprintf(
		"✅ Заказ #%d оплачен!\n\n💰 Списано: %s\n📞 Чат с администратором открыт, пишите прямо сюда.",
		o.ID, common.FormatTON(o.Amount)), nil)
}

// CancelPayment закрывает экран оплаты. Заказ остаётся неоплаченным.
func (h *Handler) CancelPayment(chatID int64, messageID int) {
	kb := telegram.BackToMain()
	h.sender.Show(chatID, messageID, "❌ Оплата отменена", &kb)
}

// Complete — кнопка «Выполнен» под уведомлением админа.
func (h *Handler) Complete(ctx context.Context, chatID int64, messageID int, adminID, orderID int64) {
	o, err := h.service.CompleteOrder(ctx, orderID, adminID)
	if err != nil {
		h.sender.Show(chatID, messageID, fmt.Sprintf("Заказ #%d: %s", orderID, telegram.ErrorText(err)), nil)
		return
	}
	h.sender.Show(chatID, messageID, fmt.Sprintf("✅ Заказ #%d выполнен\n📱 %s · %s",
		o.ID, ProductName(o), common.DisplayName(o.UserID, o.Username)), nil)
}

// Reject — кнопка «Отклонить»: заказ отклоняется, сумма возвращается покупателю.
func (h *Handler) Reject(ctx context.Context, chatID int64, messageID int, adminID, orderID int64) {
	o, err := h.service.RejectOrder(ctx, orderID, adminID)
	if err != nil {
		h.sender.Show(chatID, messageID, fmt.Sprintf("Заказ #%d: %s", orderID, telegram.ErrorText(err)), nil)
		return
	}
	h.sender.Show(chatID, messageID, fmt.Sprintf("❌ Заказ #%d отклонён\n💰 %s возвращено %s",
		o.ID, common.FormatTON(o.Amount), common.DisplayName(o.UserID, o.Username)), nil)
}

// History — /history: последние заказы покупателя.
func (h *Handler) History(ctx context.Context, chatID, userID int64) {
	list, err := h.service.UserOrders(ctx, userID)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	if len(list) == 0 {
		h.sender.Reply(chatID, "📭 У вас пока нет заказов", nil)
		return
	}

	var b strings.Builder
	b.WriteString("📋 Ваши заказы:\n")
	for i, o := range list {
		if i == HistoryLimit {
			fmt.Fprintf(&b, "\n…и ещё %d", len(list)-HistoryLimit)
			break
		}
		fmt.Fprintf(&b, "\n#%d %s · %s · %s\n%s\n",
			o.ID, ProductName(o), common.FormatTON(o.Amount), common.FormatDateTime(o.CreatedAt), statusLabels[o.Status])
	}
	h.sender.Reply(chatID, strings.TrimRight(b.String(), "\n"), nil)
}
