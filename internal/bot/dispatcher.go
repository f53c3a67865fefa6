package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/bot/filters"
	"serotonyl.ru/numbers-bot/internal/bot/middleware"
	"serotonyl.ru/numbers-bot/internal/features/admin"
	"serotonyl.ru/numbers-bot/internal/features/balance"
	"serotonyl.ru/numbers-bot/internal/features/catalog"
	"serotonyl.ru/numbers-bot/internal/features/deposits"
	"serotonyl.ru/numbers-bot/internal/features/orders"
	"serotonyl.ru/numbers-bot/internal/features/relay"
	"serotonyl.ru/numbers-bot/internal/features/users"
	"serotonyl.ru/numbers-bot/internal/telegram"
)

const welcomeText = `🍕 Добро пожаловать в Pizza Numbers Bot! 🍕

🍕 Горячие номера Telegram как свежая пицца!

📱 Покупайте качественные номера Telegram
🔒 Полная анонимность и безопасность
💎 Оплата в TON - быстро и надежно
✅ Проверка платежей по хэшу транзакции

👇 Выберите действие:`

const unknownText = "❓ Неизвестная команда. Используйте кнопки меню для навигации."

// Handlers — обработчики фич, между которыми выбирает Dispatcher.
type Handlers struct {
	Admin    *admin.Handler
	Catalog  *catalog.Handler
	Balance  *balance.Handler
	Orders   *orders.Handler
	Deposits *deposits.Handler
	Relay    *relay.Handler
}

// Dispatcher обрабатывает один апдейт: фильтр чата, лимит, регистрация
// пользователя, разбор команды и вызов обработчика.
type Dispatcher struct {
	sender      *telegram.Sender
	users       *users.Service
	admins      *admin.Service
	h           Handlers
	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
}

// NewDispatcher собирает диспетчер.
func NewDispatcher(
	sender *telegram.Sender,
	userService *users.Service,
	adminService *admin.Service,
	handlers Handlers,
	chatFilter *filters.ChatFilter,
	rateLimiter *middleware.RateLimiter,
) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		users:       userService,
		admins:      adminService,
		h:           handlers,
		chatFilter:  chatFilter,
		rateLimiter: rateLimiter,
	}
}

// request — откуда пришла команда и куда отвечать.
type request struct {
	chatID    int64
	messageID int // сообщение с inline-кнопкой; 0 для текста
	userID    int64
	username  string
	callback  bool
}

// HandleUpdate обрабатывает одно обновление от Telegram.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, logger := middleware.UpdateLogger(ctx, update)
	defer middleware.RecoverFromPanic(logger)

	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, logger, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		d.handleMessage(ctx, logger, update.Message)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, logger *log.Entry, msg *tgbotapi.Message) {
	if !d.chatFilter.CheckAccess(msg.Chat, msg.From) {
		return
	}
	logger.Debug("Входящее сообщение")
	if !d.admit(ctx, logger, msg.From) {
		return
	}

	req := request{
		chatID:   msg.Chat.ID,
		userID:   msg.From.ID,
		username: msg.From.UserName,
	}
	cmd := DecodeText(msg.Text)

	// Незавершённый диалог админки забирает свободный текст раньше чата заказа
	if cmd.Kind == CmdText && d.admins.IsAdmin(req.userID) &&
		d.h.Admin.HandleDialog(ctx, req.chatID, req.userID, msg.Text) {
		return
	}
	d.dispatch(ctx, logger, req, cmd)
}

func (d *Dispatcher) handleCallback(ctx context.Context, logger *log.Entry, cb *tgbotapi.CallbackQuery) {
	// Часики на кнопке убираем в любом случае
	d.sender.AnswerCallback(cb.ID, "")

	if cb.Message == nil || !d.chatFilter.CheckAccess(cb.Message.Chat, cb.From) {
		return
	}
	logger.Debug("Нажата кнопка")
	if !d.admit(ctx, logger, cb.From) {
		return
	}

	req := request{
		chatID:    cb.Message.Chat.ID,
		messageID: cb.Message.MessageID,
		userID:    cb.From.ID,
		username:  cb.From.UserName,
		callback:  true,
	}
	d.dispatch(ctx, logger, req, DecodeCallback(cb.Data))
}

// admit применяет rate limit и регистрирует пользователя при первом обращении.
func (d *Dispatcher) admit(ctx context.Context, logger *log.Entry, from *tgbotapi.User) bool {
	if !d.rateLimiter.Allow(from.ID) {
		logger.Debug("rate limited")
		return false
	}
	if _, err := d.users.Ensure(ctx, from.ID, from.UserName); err != nil {
		logger.WithError(err).Warn("Не удалось зарегистрировать пользователя")
	}
	return true
}

// dispatch вызывает обработчик команды.
func (d *Dispatcher) dispatch(ctx context.Context, logger *log.Entry, req request, cmd Command) {
	logger.WithFields(log.Fields{
		"kind": cmd.Kind,
		"id":   cmd.ID,
	}).Debug("routing command")

	chatID, messageID, userID := req.chatID, req.messageID, req.userID
	isAdmin := d.admins.IsAdmin(userID)

	switch cmd.Kind {
	case CmdStart:
		d.sender.Reply(chatID, welcomeText, telegram.MainMenu(isAdmin))
	case CmdMainMenu:
		d.sender.Reply(chatID, "🏠 Главное меню\n\n👇 Выберите действие:", telegram.MainMenu(isAdmin))
	case CmdBalance:
		d.h.Balance.Show(ctx, chatID, userID)
	case CmdDeposit:
		d.h.Deposits.Instructions(chatID)
	case CmdCheckDeposit:
		d.h.Deposits.Check(ctx, chatID, userID, cmd.Text)
	case CmdShowProducts:
		d.h.Catalog.List(ctx, chatID, messageID)
	case CmdProduct:
		d.h.Catalog.Detail(ctx, chatID, messageID, cmd.ID)
	case CmdBuy:
		d.h.Orders.Buy(ctx, chatID, messageID, userID, cmd.ID)
	case CmdPaid:
		d.h.Orders.Pay(ctx, chatID, messageID, userID, cmd.ID)
	case CmdCancelPayment:
		d.h.Orders.CancelPayment(chatID, messageID)
	case CmdComplete, CmdReject:
		// Покупатель получит отказ от сервиса, админ сначала проходит вход
		if isAdmin && !d.h.Admin.Allow(ctx, chatID, userID) {
			return
		}
		if cmd.Kind == CmdComplete {
			d.h.Orders.Complete(ctx, chatID, messageID, userID, cmd.ID)
			return
		}
		d.h.Orders.Reject(ctx, chatID, messageID, userID, cmd.ID)
	case CmdHistory:
		d.h.Orders.History(ctx, chatID, userID)
		d.h.Deposits.History(ctx, chatID, userID)

	case CmdAdminPanel:
		d.h.Admin.Panel(ctx, chatID, messageID, userID)
	case CmdViewOrders:
		d.h.Admin.ViewOrders(ctx, chatID, messageID, userID)
	case CmdAddProduct:
		d.h.Admin.StartAddProduct(ctx, chatID, messageID, userID)
	case CmdGiveBalance:
		d.h.Admin.StartGiveBalance(ctx, chatID, messageID, userID)
	case CmdCancelAdd:
		d.h.Admin.CancelDialog(ctx, chatID, messageID, userID)
	case CmdLogin:
		d.h.Admin.Login(ctx, chatID, userID, cmd.Args)
	case CmdLogout:
		d.h.Admin.Logout(ctx, chatID, userID)
	case CmdOrders:
		d.h.Admin.Orders(ctx, chatID, userID, cmd.Args)
	case CmdDeposits:
		d.h.Admin.Deposits(ctx, chatID, userID)
	case CmdDepositOK:
		d.h.Admin.DepositOK(ctx, chatID, userID, cmd.Args)
	case CmdDepositNo:
		d.h.Admin.DepositNo(ctx, chatID, messageID, userID, cmd.ID)
	case CmdEditProduct:
		d.h.Admin.EditProduct(ctx, chatID, userID, cmd.Args)
	case CmdDeleteProduct:
		d.h.Admin.DeleteProduct(ctx, chatID, userID, cmd.ID)

	case CmdReply, CmdChats:
		if !isAdmin {
			d.unknown(req)
			return
		}
		if d.h.Admin.Allow(ctx, chatID, userID) {
			d.h.Relay.FromAdmin(ctx, chatID, cmd.Text)
		}
	case CmdText:
		if isAdmin {
			if d.h.Admin.Allow(ctx, chatID, userID) {
				d.h.Relay.FromAdmin(ctx, chatID, cmd.Text)
			}
			return
		}
		d.h.Relay.FromUser(ctx, chatID, userID, req.username, cmd.Text)

	case CmdUnknown:
		d.unknown(req)
	}
}

func (d *Dispatcher) unknown(req request) {
	// На неизвестный callback (старая кнопка) отвечать текстом не нужно
	if req.callback {
		return
	}
	d.sender.Reply(req.chatID, unknownText, telegram.MainMenu(d.admins.IsAdmin(req.userID)))
}
