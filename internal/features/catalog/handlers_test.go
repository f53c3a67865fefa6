package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/db/memory"
	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/telegram/telegramtest"
)

func TestHandlerListAndDetail(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	rec := telegramtest.New()
	h := NewHandler(NewService(s, 100), telegram.NewSender(rec))

	h.List(ctx, 1, 0)
	assert.Equal(t, "❌ Товары временно отсутствуют!", rec.Last().Text)

	id, err := s.CreateProduct(ctx, "+888 0000 0001", decimal.RequireFromString("2.5"))
	require.NoError(t, err)

	h.List(ctx, 1, 0)
	assert.Contains(t, rec.Last().Text, "Выберите номер")
	assert.NotNil(t, rec.Last().Markup)

	h.Detail(ctx, 1, 5, id)
	assert.Contains(t, rec.Last().Text, "📱 +888 0000 0001")
	assert.Contains(t, rec.Last().Text, "💰 Цена: 2.5 TON")
	assert.Contains(t, rec.Last().Text, "📞 Номер Telegram")

	vipID, err := s.CreateProduct(ctx, "+888 VIP 7777", decimal.NewFromInt(10))
	require.NoError(t, err)
	h.Detail(ctx, 1, 5, vipID)
	assert.Contains(t, rec.Last().Text, "👑 VIP номер Telegram")

	h.Detail(ctx, 1, 5, 999)
	assert.Equal(t, "❌ Товар не найден!", rec.Last().Text)
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Fresh +888 0001", "🍕 Свежий номер Telegram"},
		{"+888 vip", "👑 VIP номер Telegram"},
		{"PREMIUM номер", "💎 Premium номер Telegram"},
		{"standard", "📱 Стандартный номер Telegram"},
		{"fresh vip", "🍕 Свежий номер Telegram"},
		{"+888 0000 0001", "📞 Номер Telegram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(Description(tt.name), tt.want))
		})
	}
}
