package bot

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/features/deposits"
	"serotonyl.ru/numbers-bot/internal/features/orders"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
)

// Notifier доставляет события заказов и депозитов в Telegram.
// Ошибку отправки возвращает вызывающему сервису, тот её логирует.
type Notifier struct {
	sender  *telegram.Sender
	adminID int64
}

// NewNotifier создаёт Notifier, который пишет админу adminID.
func NewNotifier(sender *telegram.Sender, adminID int64) *Notifier {
	return &Notifier{sender: sender, adminID: adminID}
}

var (
	_ orders.Notifier   = (*Notifier)(nil)
	_ deposits.Notifier = (*Notifier)(nil)
)

// AdminNotified — новая оплаченная заявка с кнопками обработки.
func (n *Notifier) AdminNotified(_ context.Context, o *store.Order) error {
	text := fmt.Sprintf(`📦 Новая заявка!

🆔 Заказ: #%d
👤 Пользователь: %s (ID: %d)
📱 Товар: %s
💰 Сумма: %s
⏰ Время: %s

👇 Обработайте заявку:`,
		o.ID, common.DisplayName(o.UserID, o.Username), o.UserID,
		orders.ProductName(o), common.FormatTON(o.Amount), common.FormatDateTime(o.CreatedAt))
	return n.sender.Send(n.adminID, text, telegram.OrderActions(o.ID))
}

// BuyerChatOpened — приветствие в чате заказа.
func (n *Notifier) BuyerChatOpened(_ context.Context, o *store.Order) error {
	text := fmt.Sprintf(`👋 Чат с администратором

🆔 Заказ: #%d
📱 Товар: %s
💰 Сумма: %s

Администратор получил уведомление о вашем заказе и скоро свяжется с вами для выдачи номера и кода.
⏰ Время ожидания ответа не больше 24 часов.

Вы можете задавать вопросы прямо в этом чате.`,
		o.ID, orders.ProductName(o), common.FormatTON(o.Amount))
	return n.sender.SendText(o.UserID, text)
}

func (n *Notifier) OrderCompleted(_ context.Context, o *store.Order) error {
	text := fmt.Sprintf(`✅ Ваш заказ выполнен!

🆔 Заказ: #%d
📱 Товар: %s
✅ Статус: Выполнен

Спасибо за покупку! Если возникнут вопросы, обращайтесь.`,
		o.ID, orders.ProductName(o))
	return n.sender.SendText(o.UserID, text)
}

func (n *Notifier) OrderRejected(_ context.Context, o *store.Order) error {
	text := fmt.Sprintf(`❌ Ваш заказ отклонён

🆔 Заказ: #%d
📱 Товар: %s
💰 Возвращено: %s
❌ Статус: Отклонён

Деньги возвращены на ваш баланс.`,
		o.ID, orders.ProductName(o), common.FormatTON(o.Amount))
	return n.sender.SendText(o.UserID, text)
}

// DepositRecorded — админу: транзакция найдена, нужно проверить сумму.
func (n *Notifier) DepositRecorded(_ context.Context, tx *store.Transaction, user *store.User) error {
	username := ""
	if user != nil {
		username = user.Username
	}
	text := fmt.Sprintf(`💎 Заявка на пополнение #%d

👤 Пользователь: %s (ID: %d)
🔗 Хэш: %s
⏰ Время: %s

Проверьте сумму в кошельке и зачислите:
/deposit_ok %d <сумма>`,
		tx.ID, common.DisplayName(tx.UserID, username), tx.UserID, tx.TxHash,
		common.FormatDateTime(tx.CreatedAt), tx.ID)
	return n.sender.Send(n.adminID, text, telegram.DepositActions(tx.ID))
}

func (n *Notifier) DepositConfirmed(_ context.Context, tx *store.Transaction, balance decimal.Decimal) error {
	text := fmt.Sprintf("💰 Пополнение #%d зачислено: %s\n\n💳 Текущий баланс: %s",
		tx.ID, common.FormatTON(tx.Amount), common.FormatTON(balance))
	return n.sender.SendText(tx.UserID, text)
}

func (n *Notifier) DepositRejected(_ context.Context, tx *store.Transaction) error {
	text := fmt.Sprintf("❌ Заявка на пополнение #%d отклонена.\n\nЕсли это ошибка, напишите администратору.", tx.ID)
	return n.sender.SendText(tx.UserID, text)
}
