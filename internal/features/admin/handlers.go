package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/features/balance"
	"serotonyl.ru/numbers-bot/internal/features/catalog"
	"serotonyl.ru/numbers-bot/internal/features/deposits"
	"serotonyl.ru/numbers-bot/internal/features/orders"
	"serotonyl.ru/numbers-bot/internal/features/users"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
)

// listLimit — сколько заказов выводим одним сообщением.
const listLimit = 20

const (
	panelTitle       = "👑 Админ панель"
	passwordPrompt   = "🔐 Введите пароль для доступа к админ-панели:"
	usageOrders      = "Использование: /orders [pending|processing|completed|rejected]"
	usageDepositOK   = "Использование: /deposit_ok <ID заявки> <сумма TON>"
	usageDepositNo   = "Использование: /deposit_no <ID заявки>"
	usageEditProduct = "Использование: /editproduct <ID> price=<цена> name=<название>\nname указывается последним."
	usageDelProduct  = "Использование: /delproduct <ID>"
)

// Handler обрабатывает команды и диалоги админа.
type Handler struct {
	service  *Service
	catalog  *catalog.Service
	balance  *balance.Service
	orders   *orders.Service
	deposits *deposits.Service
	users    *users.Service
	sender   *telegram.Sender
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(
	service *Service,
	catalogService *catalog.Service,
	balanceService *balance.Service,
	orderService *orders.Service,
	depositService *deposits.Service,
	userService *users.Service,
	sender *telegram.Sender,
) *Handler {
	return &Handler{
		service:  service,
		catalog:  catalogService,
		balance:  balanceService,
		orders:   orderService,
		deposits: depositService,
		users:    userService,
		sender:   sender,
	}
}

// Allow пропускает только вошедшего админа. Без сессии запрашивает пароль.
// Диспетчер вызывает его и для кнопок заказов и команд чата.
func (h *Handler) Allow(ctx context.Context, chatID, userID int64) bool {
	if !h.service.IsAdmin(userID) {
		h.sender.Reply(chatID, telegram.ErrorText(common.ErrForbidden), nil)
		return false
	}
	if h.service.Authorized(ctx, userID) {
		return true
	}
	if err := h.service.Begin(ctx, userID, StepAwaitingPassword); err != nil {
		log.WithError(err).Error("Не удалось начать вход в админку")
	}
	h.sender.Reply(chatID, passwordPrompt, nil)
	return false
}

// Panel показывает админ-панель со статистикой и сбрасывает незавершённый диалог.
func (h *Handler) Panel(ctx context.Context, chatID int64, messageID int, adminID int64) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	h.service.Cancel(ctx, adminID)

	kb := telegram.AdminPanel()
	st, err := h.service.Statistics(ctx, adminID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики")
		h.sender.Show(chatID, messageID, panelTitle, &kb)
		return
	}
	h.sender.Show(chatID, messageID, FormatStatistics(panelTitle, st), &kb)
}

// ViewOrders — неоплаченные заказы списком и заказы в работе с кнопками.
func (h *Handler) ViewOrders(ctx context.Context, chatID int64, messageID int, adminID int64) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	pending, err := h.orders.ListByStatus(ctx, adminID, store.OrderPending)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	processing, err := h.orders.ListByStatus(ctx, adminID, store.OrderProcessing)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}

	text := orderList(orders.StatusTitle(store.OrderPending), pending) + "\n\n" +
		orderList(orders.StatusTitle(store.OrderProcessing), processing)
	back := telegram.BackToAdmin()
	h.sender.Show(chatID, messageID, text, &back)

	for i, o := range processing {
		if i == listLimit {
			break
		}
		h.sender.Reply(chatID, FormatOrderLine(o), telegram.OrderActions(o.ID))
	}
}

func orderList(title string, list []*store.Order) string {
	if len(list) == 0 {
		return title + ": нет"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s):", title, common.PluralizeOrders(len(list)))
	for i, o := range list {
		if i == listLimit {
			fmt.Fprintf(&b, "\n…и ещё %d", len(list)-listLimit)
			break
		}
		b.WriteString("\n")
		b.WriteString(FormatOrderLine(o))
	}
	return b.String()
}

// StartAddProduct — шаг 1 добавления товара: ждём название.
func (h *Handler) StartAddProduct(ctx context.Context, chatID int64, messageID int, adminID int64) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	if err := h.service.Begin(ctx, adminID, StepProductName); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	kb := telegram.CancelDialog()
	h.sender.Show(chatID, messageID, "➕ Добавление товара\n\nВведите название товара:", &kb)
}

// StartGiveBalance — шаг 1 выдачи баланса: ждём ID пользователя.
func (h *Handler) StartGiveBalance(ctx context.Context, chatID int64, messageID int, adminID int64) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	if err := h.service.Begin(ctx, adminID, StepBalanceUser); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	kb := telegram.CancelDialog()
	h.sender.Show(chatID, messageID, "💰 Выдача баланса\n\nВведите ID пользователя:", &kb)
}

// CancelDialog сбрасывает диалог и возвращает в панель.
func (h *Handler) CancelDialog(ctx context.Context, chatID int64, messageID int, adminID int64) {
	h.service.Cancel(ctx, adminID)
	h.Panel(ctx, chatID, messageID, adminID)
}

// HandleDialog обрабатывает текст админа, если у него открыт диалог.
// Возвращает false, если диалога нет и текст нужно обработать дальше.
func (h *Handler) HandleDialog(ctx context.Context, chatID, adminID int64, text string) bool {
	if !h.service.IsAdmin(adminID) {
		return false
	}
	sess := h.service.Session(ctx, adminID)
	if sess == nil {
		return false
	}

	switch sess.Step {
	case StepAwaitingPassword:
		h.checkPassword(ctx, chatID, adminID, text)
	case StepProductName:
		h.productName(ctx, chatID, sess, text)
	case StepProductPrice:
		h.productPrice(ctx, chatID, sess, text)
	case StepBalanceUser:
		h.balanceUser(ctx, chatID, sess, text)
	case StepBalanceAmount:
		h.balanceAmount(ctx, chatID, sess, text)
	default:
		h.service.Cancel(ctx, adminID)
		return false
	}
	return true
}

func (h *Handler) checkPassword(ctx context.Context, chatID, adminID int64, password string) {
	h.service.Cancel(ctx, adminID)
	if err := h.service.VerifyPassword(ctx, adminID, strings.TrimSpace(password)); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.sender.Reply(chatID, "✅ Аутентификация успешна!", nil)
	h.Panel(ctx, chatID, 0, adminID)
}

func (h *Handler) productName(ctx context.Context, chatID int64, sess *Session, text string) {
	name, err := catalog.ValidateName(text)
	if err != nil {
		h.sender.Reply(chatID,
			fmt.Sprintf("❌ Название должно быть от 1 до %d символов. Попробуйте ещё раз:", catalog.MaxNameLength),
			telegram.CancelDialog())
		return
	}
	sess.ProductName = name
	if err := h.service.SetStep(ctx, sess, StepProductPrice); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.sender.Reply(chatID, fmt.Sprintf("Название: %s\n\nВведите цену в TON (например 3 или 1.5):", name),
		telegram.CancelDialog())
}

func (h *Handler) productPrice(ctx context.Context, chatID int64, sess *Session, text string) {
	price, err := common.ParsePrice(text)
	if err != nil {
		h.sender.Reply(chatID, "❌ Некорректная цена. Введите число, например 3 или 1.5:", telegram.CancelDialog())
		return
	}
	h.service.Cancel(ctx, sess.AdminID)

	id, err := h.catalog.Create(ctx, sess.AdminID, sess.ProductName, price)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), telegram.BackToAdmin())
		return
	}
	h.sender.Reply(chatID,
		fmt.Sprintf("✅ Товар #%d «%s» добавлен за %s", id, sess.ProductName, common.FormatTON(price)),
		telegram.BackToAdmin())
}

func (h *Handler) balanceUser(ctx context.Context, chatID int64, sess *Session, text string) {
	userID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || userID <= 0 {
		h.sender.Reply(chatID, "❌ Введите числовой ID пользователя:", telegram.CancelDialog())
		return
	}
	user, err := h.users.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		h.sender.Reply(chatID,
			"❌ Пользователь не найден: он должен хотя бы раз написать боту. Введите другой ID:",
			telegram.CancelDialog())
		return
	}
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), telegram.CancelDialog())
		return
	}

	sess.TargetUserID = userID
	if err := h.service.SetStep(ctx, sess, StepBalanceAmount); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.sender.Reply(chatID, fmt.Sprintf("Пользователь: %s\nБаланс: %s\n\nВведите сумму начисления в TON:",
		common.DisplayName(user.UserID, user.Username), common.FormatTON(user.Balance)),
		telegram.CancelDialog())
}

func (h *Handler) balanceAmount(ctx context.Context, chatID int64, sess *Session, text string) {
	amount, err := common.ParseTON(text)
	if err != nil {
		h.sender.Reply(chatID, "❌ Сумма должна быть положительным числом. Попробуйте ещё раз:", telegram.CancelDialog())
		return
	}
	h.service.Cancel(ctx, sess.AdminID)

	newBalance, err := h.balance.AdminCredit(ctx, sess.AdminID, sess.TargetUserID, amount)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), telegram.BackToAdmin())
		return
	}
	h.sender.Reply(chatID, fmt.Sprintf("✅ Пользователю %d начислено %s\nНовый баланс: %s",
		sess.TargetUserID, common.FormatTON(amount), common.FormatTON(newBalance)),
		telegram.BackToAdmin())

	msg := fmt.Sprintf("💰 Ваш баланс пополнен на %s\nТекущий баланс: %s",
		common.FormatTON(amount), common.FormatTON(newBalance))
	if err := h.sender.SendText(sess.TargetUserID, msg); err != nil {
		log.WithError(err).WithField("user_id", sess.TargetUserID).Warn("Покупатель не получил уведомление о начислении")
	}
}

// Login — /login [пароль]. Без аргумента ждёт пароль следующим сообщением.
func (h *Handler) Login(ctx context.Context, chatID, adminID int64, args string) {
	if !h.service.IsAdmin(adminID) {
		h.sender.Reply(chatID, telegram.ErrorText(common.ErrForbidden), nil)
		return
	}
	if !h.service.PasswordRequired() {
		h.sender.Reply(chatID, "ℹ️ Пароль не настроен, панель доступна без входа", nil)
		return
	}
	if strings.TrimSpace(args) == "" {
		if err := h.service.Begin(ctx, adminID, StepAwaitingPassword); err != nil {
			h.sender.Reply(chatID, telegram.ErrorText(err), nil)
			return
		}
		h.sender.Reply(chatID, passwordPrompt, nil)
		return
	}
	h.checkPassword(ctx, chatID, adminID, args)
}

// Logout закрывает сессию входа.
func (h *Handler) Logout(ctx context.Context, chatID, adminID int64) {
	if !h.service.IsAdmin(adminID) {
		h.sender.Reply(chatID, telegram.ErrorText(common.ErrForbidden), nil)
		return
	}
	h.service.Cancel(ctx, adminID)
	if err := h.service.Logout(ctx, adminID); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.sender.Reply(chatID, "👋 Вы вышли из админ-панели", nil)
}

// Orders — /orders [статус]. Без статуса выводит все заказы.
func (h *Handler) Orders(ctx context.Context, chatID, adminID int64, args string) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	status := store.OrderStatus(strings.ToLower(strings.TrimSpace(args)))
	if status != "" && !status.Valid() {
		h.sender.Reply(chatID, usageOrders, nil)
		return
	}
	list, err := h.orders.ListByStatus(ctx, adminID, status)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	title := "📋 Все заказы"
	if status != "" {
		title = orders.StatusTitle(status)
	}
	h.sender.Reply(chatID, orderList(title, list), nil)
}

// Deposits — /deposits: заявки на пополнение, ждущие решения.
func (h *Handler) Deposits(ctx context.Context, chatID, adminID int64) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	list, err := h.deposits.ListPending(ctx, adminID)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	if len(list) == 0 {
		h.sender.Reply(chatID, "🔗 Заявок на пополнение нет", nil)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔗 Заявки на пополнение (%d):\n", len(list))
	for i, tx := range list {
		if i == listLimit {
			fmt.Fprintf(&b, "\n…и ещё %d", len(list)-listLimit)
			break
		}
		fmt.Fprintf(&b, "\n#%d · пользователь %d · %s\n%s\n", tx.ID, tx.UserID, common.FormatDateTime(tx.CreatedAt), tx.TxHash)
	}
	b.WriteString("\nЗачислить: /deposit_ok <ID> <сумма>\nОтклонить: /deposit_no <ID>")
	h.sender.Reply(chatID, b.String(), nil)
}

// DepositOK — /deposit_ok <ID> <сумма>: зачислить сумму по заявке.
func (h *Handler) DepositOK(ctx context.Context, chatID, adminID int64, args string) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	fields := strings.Fields(args)
	if len(fields) != 2 {
		h.sender.Reply(chatID, usageDepositOK, nil)
		return
	}
	txID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		h.sender.Reply(chatID, usageDepositOK, nil)
		return
	}
	amount, err := common.ParseTON(fields[1])
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err)+"\n"+usageDepositOK, nil)
		return
	}

	tx, newBalance, err := h.deposits.Confirm(ctx, adminID, txID, amount)
	if errors.Is(err, common.ErrBelowMinimum) {
		h.sender.Reply(chatID, fmt.Sprintf("❌ Минимальная сумма пополнения: %s",
			common.FormatTON(h.deposits.MinDeposit())), nil)
		return
	}
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.sender.Reply(chatID, fmt.Sprintf("✅ Заявка #%d: пользователю %d зачислено %s\nБаланс: %s",
		tx.ID, tx.UserID, common.FormatTON(amount), common.FormatTON(newBalance)), nil)
}

// DepositNo отклоняет заявку (кнопка под уведомлением или /deposit_no <ID>).
func (h *Handler) DepositNo(ctx context.Context, chatID int64, messageID int, adminID, txID int64) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	if txID <= 0 {
		h.sender.Reply(chatID, usageDepositNo, nil)
		return
	}
	tx, err := h.deposits.Reject(ctx, adminID, txID)
	if err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.sender.Show(chatID, messageID, fmt.Sprintf("❌ Заявка #%d отклонена\n%s", tx.ID, tx.TxHash), nil)
}

// EditProduct — /editproduct <ID> price=<цена> name=<название>.
func (h *Handler) EditProduct(ctx context.Context, chatID, adminID int64, args string) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	id, name, price, err := parseEditArgs(args)
	if err != nil {
		h.sender.Reply(chatID, usageEditProduct, nil)
		return
	}
	if err := h.catalog.Edit(ctx, adminID, id, name, price); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	p, err := h.catalog.Get(ctx, id)
	if err != nil {
		h.sender.Reply(chatID, fmt.Sprintf("✅ Товар #%d обновлён", id), nil)
		return
	}
	h.sender.Reply(chatID, fmt.Sprintf("✅ Товар #%d обновлён: %s - %s", p.ID, p.Name, common.FormatTON(p.Price)), nil)
}

// parseEditArgs разбирает "<ID> price=3.5 name=Новое название".
// name забирает весь остаток строки, поэтому идёт последним.
func parseEditArgs(args string) (int64, *string, *decimal.Decimal, error) {
	idStr, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, nil, common.ErrInvalidInput
	}

	var name *string
	var price *decimal.Decimal
	rest = strings.TrimSpace(rest)
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "name="):
			n := strings.TrimSpace(strings.TrimPrefix(rest, "name="))
			name = &n
			rest = ""
		case strings.HasPrefix(rest, "price="):
			tok, tail, _ := strings.Cut(strings.TrimPrefix(rest, "price="), " ")
			p, err := common.ParsePrice(tok)
			if err != nil {
				return 0, nil, nil, err
			}
			price = &p
			rest = strings.TrimSpace(tail)
		default:
			return 0, nil, nil, common.ErrInvalidInput
		}
	}
	if name == nil && price == nil {
		return 0, nil, nil, common.ErrInvalidInput
	}
	return id, name, price, nil
}

// DeleteProduct — /delproduct <ID>.
func (h *Handler) DeleteProduct(ctx context.Context, chatID, adminID, productID int64) {
	if !h.Allow(ctx, chatID, adminID) {
		return
	}
	if productID <= 0 {
		h.sender.Reply(chatID, usageDelProduct, nil)
		return
	}
	if err := h.catalog.Delete(ctx, adminID, productID); err != nil {
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.sender.Reply(chatID, fmt.Sprintf("🗑 Товар #%d удалён. Созданные заказы сохранены.", productID), nil)
}
