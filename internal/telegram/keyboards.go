package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// Кнопки главного меню (reply-клавиатура). Текст кнопки приходит боту как обычное сообщение.
const (
	BtnBalance  = "💳 Баланс"
	BtnDeposit  = "💰 Пополнить баланс"
	BtnNumbers  = "📱 Номера"
	BtnAdmin    = "👑 Админ панель"
	BtnMainMenu = "🔙 Главное меню"
)

// Callback-данные inline-кнопок. С числовым аргументом: "<префикс><id>".
const (
	CallbackMainMenu       = "main_menu"
	CallbackAdminPanel     = "admin_panel"
	CallbackViewOrders     = "view_orders"
	CallbackAddProduct     = "add_product"
	CallbackGiveBalance    = "give_balance"
	CallbackCancelPayment  = "cancel_payment"
	CallbackCancelAdd      = "cancel_add"
	CallbackBackToProducts = "back_to_products"
	CallbackShowProducts   = "show_products"

	PrefixProduct   = "product_"
	PrefixBuy       = "buy_"
	PrefixPaid      = "paid_"
	PrefixComplete  = "complete_"
	PrefixReject    = "reject_"
	PrefixDepositNo = "deposit_no_"
	PrefixCheckHash = "check_"
)

func withID(prefix string, id int64) string {
	return fmt.Sprintf("%s%d", prefix, id)
}

// MainMenu — reply-клавиатура. Кнопка админки видна только админу.
func MainMenu(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnBalance),
			tgbotapi.NewKeyboardButton(BtnDeposit),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnNumbers)),
	}
	if isAdmin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnAdmin)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func backToMainRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnMainMenu, CallbackMainMenu))
}

// ProductList — по кнопке на товар: "Название - 3 TON".
func ProductList(products []*store.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+1)
	for _, p := range products {
		label := fmt.Sprintf("%s - %s", p.Name, common.FormatTON(p.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, withID(PrefixProduct, p.ID)),
		))
	}
	rows = append(rows, backToMainRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ProductDetail — купить или вернуться к списку.
func ProductDetail(productID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Купить", withID(PrefixBuy, productID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", CallbackBackToProducts),
		),
	)
}

// PaymentConfirm — подтверждение оплаты заказа с баланса.
func PaymentConfirm(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Оплатить", withID(PrefixPaid, orderID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", CallbackCancelPayment),
		),
	)
}

// OrderActions — кнопки админа под уведомлением о заказе.
func OrderActions(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Выполнен", withID(PrefixComplete, orderID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", withID(PrefixReject, orderID)),
		),
	)
}

// DepositActions — отклонить заявку на пополнение (подтверждение — командой с суммой).
func DepositActions(txID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", withID(PrefixDepositNo, txID)),
		),
	)
}

// AdminPanel — главное меню админки.
func AdminPanel() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Заказы", CallbackViewOrders),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить товар", CallbackAddProduct),
			tgbotapi.NewInlineKeyboardButtonData("💰 Выдать баланс", CallbackGiveBalance),
		),
		backToMainRow(),
	)
}

// BackToAdmin — одна кнопка возврата в админку.
func BackToAdmin() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Админ панель", CallbackAdminPanel),
		),
	)
}

// CancelDialog — отмена пошагового ввода в админке.
func CancelDialog() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", CallbackCancelAdd),
		),
	)
}

// BackToMain — одна кнопка возврата в главное меню.
func BackToMain() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backToMainRow())
}
