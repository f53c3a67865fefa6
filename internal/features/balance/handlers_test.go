package balance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/db/memory"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/telegram/telegramtest"
)

func TestHandlerShow(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	rec := telegramtest.New()
	h := NewHandler(NewService(s, 100), telegram.NewSender(rec))

	h.Show(ctx, 1, 1)
	assert.Equal(t, "💳 Ваш баланс\n\n💰 Доступно: 0 TON", rec.Last().Text)

	_, err := s.UpsertUser(ctx, 1, "bob")
	require.NoError(t, err)
	_, err = s.Credit(ctx, 1, decimal.RequireFromString("2.5"), store.Movement{Kind: store.MovementAdminCredit})
	require.NoError(t, err)
	orderID := int64(7)
	_, err = s.Debit(ctx, 1, decimal.NewFromInt(1), store.Movement{Kind: store.MovementOrderDebit, OrderID: &orderID})
	require.NoError(t, err)

	h.Show(ctx, 1, 1)
	text := rec.Last().Text
	assert.Contains(t, text, "Доступно: 1.5 TON")
	assert.Contains(t, text, "+2.5 TON · Начисление администратором")
	assert.Contains(t, text, "-1 TON · Оплата заказа #7")
}
