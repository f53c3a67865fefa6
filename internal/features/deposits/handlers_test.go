package deposits

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/telegram/telegramtest"
)

const wallet = "EQCD39VS5jcptHL8vMjEXrzGaRcCVYto7HUn4bpAOg8xqB2N"

func TestInstructions(t *testing.T) {
	svc, _, _ := newService(t, &fakeVerifier{})
	rec := telegramtest.New()
	NewHandler(svc, telegram.NewSender(rec), wallet).Instructions(userID)

	text := rec.Last().Text
	assert.Contains(t, text, wallet)
	assert.Contains(t, text, "Минимальная сумма: 0.1 TON")
	assert.Contains(t, text, "check_")
}

func TestHandlerCheck(t *testing.T) {
	ctx := context.Background()
	v := &fakeVerifier{exists: true}
	svc, _, _ := newService(t, v)
	rec := telegramtest.New()
	h := NewHandler(svc, telegram.NewSender(rec), wallet)

	h.Check(ctx, userID, userID, "check_")
	assert.Contains(t, rec.Last().Text, "в формате check_")

	h.Check(ctx, userID, userID, "check_abc")
	assert.Contains(t, rec.Last().Text, "Платеж найден! Заявка #1")

	h.Check(ctx, userID, userID, "check_abc")
	assert.Equal(t, "⏳ Заявка #1 уже на проверке у администратора", rec.Last().Text)

	_, _, err := svc.Confirm(ctx, adminID, 1, decimal.NewFromInt(2))
	require.NoError(t, err)
	h.Check(ctx, userID, userID, "check_abc")
	assert.Equal(t, "✅ Заявка #1 уже зачислена: 2 TON", rec.Last().Text)

	v.exists = false
	h.Check(ctx, userID, userID, "check_other")
	assert.Contains(t, rec.Last().Text, "не найден")

	v.err = errors.New("timeout")
	h.Check(ctx, userID, userID, "check_third")
	assert.Contains(t, rec.Last().Text, "недоступен")
}

func TestHandlerHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, &fakeVerifier{exists: true})
	rec := telegramtest.New()
	h := NewHandler(svc, telegram.NewSender(rec), wallet)

	h.History(ctx, userID, userID)
	assert.Empty(t, rec.Sent(), "без заявок сообщения нет")

	_, err := svc.Check(ctx, userID, "check_aaaaaaaaaaaaaaaa1111")
	require.NoError(t, err)
	_, err = svc.Check(ctx, userID, "check_bbbb")
	require.NoError(t, err)
	_, _, err = svc.Confirm(ctx, adminID, 1, decimal.RequireFromString("1.5"))
	require.NoError(t, err)

	h.History(ctx, userID, userID)
	text := rec.Last().Text
	assert.Contains(t, text, "💎 Ваши пополнения:")
	assert.Contains(t, text, "#1 aaaaaa...1111")
	assert.Contains(t, text, "✅ Зачислено: 1.5 TON")
	assert.Contains(t, text, "#2 bbbb")
	assert.Contains(t, text, "⏳ На проверке")
}
