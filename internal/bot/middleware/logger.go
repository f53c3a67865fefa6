// Package middleware — обёртки вокруг обработки апдейта: логирование
// с request_id, восстановление после паники и ограничение частоты.
package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// maxLoggedText — сколько символов текста попадает в лог.
const maxLoggedText = 50

type loggerKey struct{}

// UpdateLogger возвращает запись лога с request_id и полями апдейта
// и кладёт её в контекст.
func UpdateLogger(ctx context.Context, update tgbotapi.Update) (context.Context, *log.Entry) {
	fields := log.Fields{
		"request_id": uuid.NewString(),
		"update_id":  update.UpdateID,
	}
	switch {
	case update.Message != nil:
		if update.Message.From != nil {
			fields["user_id"] = update.Message.From.ID
			fields["username"] = update.Message.From.UserName
		}
		if update.Message.Chat != nil {
			fields["chat_id"] = update.Message.Chat.ID
		}
		fields["text"] = truncate(update.Message.Text)
	case update.CallbackQuery != nil:
		if update.CallbackQuery.From != nil {
			fields["user_id"] = update.CallbackQuery.From.ID
			fields["username"] = update.CallbackQuery.From.UserName
		}
		fields["callback"] = update.CallbackQuery.Data
	}

	entry := log.WithFields(fields)
	return context.WithValue(ctx, loggerKey{}, entry), entry
}

// Logger достаёт запись лога апдейта из контекста.
func Logger(ctx context.Context) *log.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*log.Entry); ok {
		return entry
	}
	return log.NewEntry(log.StandardLogger())
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedText {
		return s
	}
	return string(r[:maxLoggedText]) + "..."
}
