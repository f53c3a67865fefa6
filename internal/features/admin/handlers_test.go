package admin

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/db/memory"
	"serotonyl.ru/numbers-bot/internal/features/balance"
	"serotonyl.ru/numbers-bot/internal/features/catalog"
	"serotonyl.ru/numbers-bot/internal/features/deposits"
	"serotonyl.ru/numbers-bot/internal/features/orders"
	"serotonyl.ru/numbers-bot/internal/features/users"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/telegram/telegramtest"
)

type nopNotifier struct{}

func (nopNotifier) AdminNotified(context.Context, *store.Order) error   { return nil }
func (nopNotifier) BuyerChatOpened(context.Context, *store.Order) error { return nil }
func (nopNotifier) OrderCompleted(context.Context, *store.Order) error  { return nil }
func (nopNotifier) OrderRejected(context.Context, *store.Order) error   { return nil }

func (nopNotifier) DepositRecorded(context.Context, *store.Transaction, *store.User) error {
	return nil
}
func (nopNotifier) DepositConfirmed(context.Context, *store.Transaction, decimal.Decimal) error {
	return nil
}
func (nopNotifier) DepositRejected(context.Context, *store.Transaction) error { return nil }

type okVerifier struct{}

func (okVerifier) TransactionExists(context.Context, string) (bool, error) { return true, nil }

type handlerFixture struct {
	ctx   context.Context
	store *memory.Store
	rec   *telegramtest.Recorder
	h     *Handler
}

func newHandlerFixture(t *testing.T, passwordHash string) *handlerFixture {
	t.Helper()
	s := memory.New()
	rec := telegramtest.New()
	svc := NewService(s, NewMemorySessions(0), NewMemoryRepository(), adminID, passwordHash)
	h := NewHandler(
		svc,
		catalog.NewService(s, adminID),
		balance.NewService(s, adminID),
		orders.NewService(s, nopNotifier{}, adminID),
		deposits.NewService(s, okVerifier{}, nopNotifier{}, adminID, decimal.RequireFromString("0.1")),
		users.NewService(s),
		telegram.NewSender(rec),
	)
	ctx := context.Background()
	_, err := s.UpsertUser(ctx, adminID, "admin")
	require.NoError(t, err)
	_, err = s.UpsertUser(ctx, userID, "bob")
	require.NoError(t, err)
	return &handlerFixture{ctx: ctx, store: s, rec: rec, h: h}
}

func TestAddProductDialog(t *testing.T) {
	f := newHandlerFixture(t, "")

	f.h.StartAddProduct(f.ctx, adminID, 0, adminID)
	assert.Contains(t, f.rec.Last().Text, "Введите название")

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "  +888 0123 4567 "))
	assert.Contains(t, f.rec.Last().Text, "Введите цену")

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "три"))
	assert.Contains(t, f.rec.Last().Text, "Некорректная цена")

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "3,5"))
	assert.Contains(t, f.rec.Last().Text, "«+888 0123 4567» добавлен за 3.5 TON")

	products, err := f.store.ListProducts(f.ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, decimal.RequireFromString("3.5").Equal(products[0].Price))

	// Диалог закрыт, дальше текст идёт в обычную обработку
	assert.False(t, f.h.HandleDialog(f.ctx, adminID, adminID, "ещё"))
}

func TestGiveBalanceDialog(t *testing.T) {
	f := newHandlerFixture(t, "")

	f.h.StartGiveBalance(f.ctx, adminID, 0, adminID)
	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "bob"))
	assert.Contains(t, f.rec.Last().Text, "числовой ID")

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "999"))
	assert.Contains(t, f.rec.Last().Text, "Пользователь не найден")

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, fmt.Sprint(userID)))
	assert.Contains(t, f.rec.Last().Text, "@bob")

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "-1"))
	assert.Contains(t, f.rec.Last().Text, "положительным числом")

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "2.5"))
	assert.Contains(t, f.rec.To(adminID)[len(f.rec.To(adminID))-1], "начислено 2.5 TON")
	assert.Contains(t, f.rec.Last().Text, "Ваш баланс пополнен на 2.5 TON")
	assert.Equal(t, userID, f.rec.Last().ChatID)

	got, _ := f.store.GetBalance(f.ctx, userID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(got))

	ms, _ := f.store.ListMovements(f.ctx, userID, 0)
	require.Len(t, ms, 1)
	assert.Equal(t, store.MovementAdminCredit, ms[0].Kind)
}

func TestGiveBalanceBuyerUnreachable(t *testing.T) {
	f := newHandlerFixture(t, "")
	f.rec.Fail[userID] = true

	f.h.StartGiveBalance(f.ctx, adminID, 0, adminID)
	f.h.HandleDialog(f.ctx, adminID, adminID, fmt.Sprint(userID))
	f.h.HandleDialog(f.ctx, adminID, adminID, "1")

	assert.Contains(t, f.rec.Last().Text, "начислено 1 TON")
	got, _ := f.store.GetBalance(f.ctx, userID)
	assert.True(t, decimal.NewFromInt(1).Equal(got))
}

func TestNonAdminIsRejected(t *testing.T) {
	f := newHandlerFixture(t, "")

	f.h.Panel(f.ctx, userID, 0, userID)
	assert.Equal(t, "⛔ Нет доступа", f.rec.Last().Text)
	assert.False(t, f.h.HandleDialog(f.ctx, userID, userID, "hello"))

	f.h.StartAddProduct(f.ctx, userID, 0, userID)
	assert.False(t, f.h.HandleDialog(f.ctx, userID, userID, "name"))
}

func TestPasswordGate(t *testing.T) {
	f := newHandlerFixture(t, HashPassword("secret", []byte("0123456789abcdef")))

	f.h.Panel(f.ctx, adminID, 0, adminID)
	assert.Equal(t, passwordPrompt, f.rec.Last().Text)

	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "wrong"))
	assert.Equal(t, "❌ Неверный пароль", f.rec.Last().Text)

	f.h.Login(f.ctx, adminID, adminID, "")
	require.True(t, f.h.HandleDialog(f.ctx, adminID, adminID, "secret"))
	texts := f.rec.To(adminID)
	assert.Contains(t, texts, "✅ Аутентификация успешна!")
	assert.Contains(t, f.rec.Last().Text, panelTitle)
}

func TestParseEditArgs(t *testing.T) {
	tests := []struct {
		args      string
		wantID    int64
		wantName  string
		wantPrice string
		wantErr   bool
	}{
		{args: "5 price=3.5", wantID: 5, wantPrice: "3.5"},
		{args: "5 name=+888 0000 0000", wantID: 5, wantName: "+888 0000 0000"},
		{args: "5 price=0 name=Бесплатный номер", wantID: 5, wantName: "Бесплатный номер", wantPrice: "0"},
		{args: "5", wantErr: true},
		{args: "x price=1", wantErr: true},
		{args: "5 price=-1", wantErr: true},
		{args: "5 color=red", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			id, name, price, err := parseEditArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			if tt.wantName != "" {
				require.NotNil(t, name)
				assert.Equal(t, tt.wantName, *name)
			} else {
				assert.Nil(t, name)
			}
			if tt.wantPrice != "" {
				require.NotNil(t, price)
				assert.True(t, decimal.RequireFromString(tt.wantPrice).Equal(*price))
			} else {
				assert.Nil(t, price)
			}
		})
	}
}

func TestEditAndDeleteProduct(t *testing.T) {
	f := newHandlerFixture(t, "")
	id, err := f.store.CreateProduct(f.ctx, "+888 1111", decimal.NewFromInt(3))
	require.NoError(t, err)

	f.h.EditProduct(f.ctx, adminID, adminID, fmt.Sprintf("%d price=4", id))
	assert.Contains(t, f.rec.Last().Text, "+888 1111 - 4 TON")

	f.h.EditProduct(f.ctx, adminID, adminID, "999 price=4")
	assert.Equal(t, "❌ Не найдено", f.rec.Last().Text)

	f.h.DeleteProduct(f.ctx, adminID, adminID, id)
	assert.Contains(t, f.rec.Last().Text, "удалён")

	products, _ := f.store.ListProducts(f.ctx)
	assert.Empty(t, products)
}

func TestDepositCommands(t *testing.T) {
	f := newHandlerFixture(t, "")
	txID, err := f.store.RecordTransaction(f.ctx, userID, decimal.Zero, "0xabc")
	require.NoError(t, err)

	f.h.Deposits(f.ctx, adminID, adminID)
	assert.Contains(t, f.rec.Last().Text, "0xabc")

	f.h.DepositOK(f.ctx, adminID, adminID, "oops")
	assert.Equal(t, usageDepositOK, f.rec.Last().Text)

	f.h.DepositOK(f.ctx, adminID, adminID, fmt.Sprintf("%d 0.05", txID))
	assert.Equal(t, "❌ Минимальная сумма пополнения: 0.1 TON", f.rec.Last().Text)

	f.h.DepositOK(f.ctx, adminID, adminID, fmt.Sprintf("%d 2", txID))
	assert.Contains(t, f.rec.Last().Text, "зачислено 2 TON")

	f.h.DepositNo(f.ctx, adminID, 0, adminID, txID)
	assert.Equal(t, "⚠️ Действие уже выполнено или недоступно", f.rec.Last().Text)

	got, _ := f.store.GetBalance(f.ctx, userID)
	assert.True(t, decimal.NewFromInt(2).Equal(got))
}

func TestOrdersCommand(t *testing.T) {
	f := newHandlerFixture(t, "")

	f.h.Orders(f.ctx, adminID, adminID, "bogus")
	assert.Equal(t, usageOrders, f.rec.Last().Text)

	f.h.Orders(f.ctx, adminID, adminID, "")
	assert.Equal(t, "📋 Все заказы: нет", f.rec.Last().Text)
}
