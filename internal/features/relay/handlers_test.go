package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/numbers-bot/internal/db/memory"
	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/telegram/telegramtest"
)

func TestHandlerRendersOutcomes(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	rec := telegramtest.New()
	sender := telegram.NewSender(rec)
	h := NewHandler(NewRouter(s, sender, adminID, true), sender)

	h.FromUser(ctx, 1, 1, "bob", "привет")
	assert.Equal(t, menuHint, rec.Last().Text)

	h.FromAdmin(ctx, adminID, "/chats")
	assert.Equal(t, "📭 Нет активных чатов.", rec.Last().Text)

	processingOrders(t, s, 1, 1)

	h.FromUser(ctx, 1, 1, "bob", "где номер?")
	assert.Equal(t, "✅ Сообщение отправлено администратору!", rec.Last().Text)
	assert.Len(t, rec.To(adminID), 2)

	h.FromAdmin(ctx, adminID, "/chats")
	assert.Contains(t, rec.Last().Text, "@bob (ID: 1)")

	h.FromAdmin(ctx, adminID, "/reply 1 держи")
	assert.Equal(t, "✅ Ответ отправлен пользователю 1", rec.Last().Text)
	assert.Contains(t, rec.To(1), "👑 Администратор:\n\nдержи")

	h.FromAdmin(ctx, adminID, "/reply x")
	assert.Contains(t, rec.Last().Text, "Неверный формат")

	rec.Fail[42] = true
	h.FromAdmin(ctx, adminID, "/reply 42 привет")
	assert.Contains(t, rec.Last().Text, "Не удалось доставить ответ пользователю 42")

	h.FromAdmin(ctx, adminID, "просто текст")
	assert.Contains(t, rec.Last().Text, "Активных чатов: 1")
}

func TestHandlerForwardFailed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	processingOrders(t, s, 1, 1)
	rec := telegramtest.New()
	rec.Fail[adminID] = true
	sender := telegram.NewSender(rec)
	h := NewHandler(NewRouter(s, sender, adminID, true), sender)

	h.FromUser(ctx, 1, 1, "bob", "алло")
	assert.Contains(t, rec.Last().Text, "Ошибка при отправке")
}
