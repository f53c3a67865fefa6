package relay

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/telegram"
)

const (
	menuHint  = "Используйте кнопки меню для навигации."
	replyHelp = "Ответить покупателю: /reply <ID пользователя> <сообщение>\nАктивные чаты: /chats"
)

// Handler выводит результат маршрутизации пользователю.
type Handler struct {
	router *Router
	sender *telegram.Sender
}

// NewHandler создаёт обработчик свободного текста.
func NewHandler(router *Router, sender *telegram.Sender) *Handler {
	return &Handler{router: router, sender: sender}
}

// FromUser — свободный текст покупателя.
func (h *Handler) FromUser(ctx context.Context, chatID, userID int64, username, text string) {
	res, err := h.router.FromUser(ctx, userID, username, text)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка маршрутизации сообщения")
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.render(chatID, res, false)
}

// FromAdmin — свободный текст и команды /reply, /chats от админа.
func (h *Handler) FromAdmin(ctx context.Context, chatID int64, text string) {
	res, err := h.router.FromAdmin(ctx, text)
	if err != nil {
		log.WithError(err).Error("Ошибка маршрутизации сообщения админа")
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}
	h.render(chatID, res, true)
}

func (h *Handler) render(chatID int64, res *Result, isAdmin bool) {
	switch res.Outcome {
	case MenuHint:
		h.sender.Reply(chatID, menuHint, telegram.MainMenu(isAdmin))
	case Forwarded:
		h.sender.Reply(chatID, "✅ Сообщение отправлено администратору!", nil)
	case ForwardFailed:
		h.sender.Reply(chatID, "❌ Ошибка при отправке сообщения, попробуйте позже.", nil)
	case ReplySent:
		h.sender.Reply(chatID, fmt.Sprintf("✅ Ответ отправлен пользователю %d", res.TargetID), nil)
	case ReplyFailed:
		h.sender.Reply(chatID, fmt.Sprintf("❌ Не удалось доставить ответ пользователю %d: он не начинал диалог с ботом или заблокировал его", res.TargetID), nil)
	case ReplyUsage:
		h.sender.Reply(chatID, "❌ Неверный формат. Используйте: /reply <user_id> <сообщение>", nil)
	case Chats:
		h.sender.Reply(chatID, formatChats(res), nil)
	case NoChats:
		h.sender.Reply(chatID, "📭 Нет активных чатов.", nil)
	case UsageHint:
		h.sender.Reply(chatID, fmt.Sprintf("💬 Активных чатов: %d\n\n%s", len(res.Chats), replyHelp), nil)
	}
}

func formatChats(res *Result) string {
	var b strings.Builder
	b.WriteString("⏰ Активные чаты:\n")
	for _, c := range res.Chats {
		fmt.Fprintf(&b, "\n👤 %s (ID: %d)\n💬 Чат ID: %d\n━━━━━━━━━━━━━━━━━━━━", common.DisplayName(c.UserID, c.Username), c.UserID, c.ChatID)
	}
	b.WriteString("\n\n")
	b.WriteString(replyHelp)
	return b.String()
}
