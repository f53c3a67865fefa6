package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/telegram/telegramtest"
)

func TestHandlerPurchaseFlow(t *testing.T) {
	f, _ := newFixture(t, "0", "3")
	rec := telegramtest.New()
	h := NewHandler(f.svc, f.store, telegram.NewSender(rec))

	products, err := f.store.ListProducts(f.ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	h.Buy(f.ctx, buyerID, 0, buyerID, products[0].ID)
	last := rec.Last()
	assert.Contains(t, last.Text, "💰 Цена: 3 TON")
	assert.Contains(t, last.Text, "Средств недостаточно")
	require.NotNil(t, last.Markup)

	list, err := f.store.ListUserOrders(f.ctx, buyerID, store.OrderPending)
	require.NoError(t, err)
	require.Len(t, list, 2)
	orderID := list[0].ID

	h.Pay(f.ctx, buyerID, 0, buyerID, orderID)
	assert.Contains(t, rec.Last().Text, "Недостаточно средств")

	_, err = f.store.Credit(f.ctx, buyerID, ton("5"), store.Movement{Kind: store.MovementAdminCredit})
	require.NoError(t, err)

	h.Pay(f.ctx, otherID, 0, otherID, orderID)
	assert.Equal(t, "❌ Заказ не найден!", rec.Last().Text)

	h.Pay(f.ctx, buyerID, 0, buyerID, orderID)
	assert.Contains(t, rec.Last().Text, "оплачен!")
	h.Pay(f.ctx, buyerID, 0, buyerID, orderID)
	assert.Equal(t, "⚠️ Заказ уже оплачен", rec.Last().Text)
	assert.True(t, ton("2").Equal(f.balance(t)))

	h.Complete(f.ctx, buyerID, 0, buyerID, orderID)
	assert.Contains(t, rec.Last().Text, "Нет доступа")

	h.Complete(f.ctx, adminID, 0, adminID, orderID)
	assert.Contains(t, rec.Last().Text, "выполнен")

	h.Reject(f.ctx, adminID, 0, adminID, orderID)
	assert.Contains(t, rec.Last().Text, "Действие уже выполнено")
	assert.True(t, ton("2").Equal(f.balance(t)))

	h.History(f.ctx, buyerID, buyerID)
	assert.Contains(t, rec.Last().Text, "✅ выполнен")
	assert.Contains(t, rec.Last().Text, "⏳ не оплачен")
}

func TestHandlerRejectRefunds(t *testing.T) {
	f, o := newFixture(t, "5", "3")
	rec := telegramtest.New()
	h := NewHandler(f.svc, f.store, telegram.NewSender(rec))

	_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)

	h.Reject(f.ctx, adminID, 0, adminID, o.ID)
	assert.Contains(t, rec.Last().Text, "3 TON возвращено @buyer")
	assert.True(t, ton("5").Equal(f.balance(t)))
}

func TestHandlerCancelPaymentAndEmptyHistory(t *testing.T) {
	f, _ := newFixture(t, "0", "1")
	rec := telegramtest.New()
	h := NewHandler(f.svc, f.store, telegram.NewSender(rec))

	h.CancelPayment(buyerID, 7)
	assert.Equal(t, "❌ Оплата отменена", rec.Last().Text)

	h.History(f.ctx, otherID, otherID)
	assert.Equal(t, "📭 У вас пока нет заказов", rec.Last().Text)
}
