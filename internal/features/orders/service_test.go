package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/db/memory"
	"serotonyl.ru/numbers-bot/internal/store"
)

const (
	adminID = int64(100)
	buyerID = int64(1)
	otherID = int64(2)
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (f *fakeNotifier) record(event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	if f.fail {
		return errors.New("chat not found")
	}
	return nil
}

func (f *fakeNotifier) AdminNotified(context.Context, *store.Order) error   { return f.record("admin") }
func (f *fakeNotifier) BuyerChatOpened(context.Context, *store.Order) error { return f.record("buyer") }
func (f *fakeNotifier) OrderCompleted(context.Context, *store.Order) error  { return f.record("completed") }
func (f *fakeNotifier) OrderRejected(context.Context, *store.Order) error   { return f.record("rejected") }

func ton(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	notifier *fakeNotifier
	svc      *Service
}

func newFixture(t *testing.T, balance, price string) (*fixture, *store.Order) {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: memory.New(), notifier: &fakeNotifier{}}
	f.svc = NewService(f.store, f.notifier, adminID)

	_, err := f.store.UpsertUser(f.ctx, buyerID, "buyer")
	require.NoError(t, err)
	_, err = f.store.UpsertUser(f.ctx, otherID, "other")
	require.NoError(t, err)
	if b := ton(balance); b.IsPositive() {
		_, err = f.store.Credit(f.ctx, buyerID, b, store.Movement{Kind: store.MovementAdminCredit})
		require.NoError(t, err)
	}
	pid, err := f.store.CreateProduct(f.ctx, "+7 900 000-00-00", ton(price))
	require.NoError(t, err)

	o, err := f.svc.CreateOrder(f.ctx, buyerID, pid)
	require.NoError(t, err)
	return f, o
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.store.GetBalance(f.ctx, buyerID)
	require.NoError(t, err)
	return b
}

func TestConfirmPaymentSufficientBalance(t *testing.T) {
	f, o := newFixture(t, "5", "3")

	got, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)

	assert.Equal(t, store.OrderProcessing, got.Status)
	require.NotNil(t, got.ChatID)
	assert.Equal(t, buyerID, *got.ChatID)
	require.NotNil(t, got.AdminChatID)
	assert.Equal(t, adminID, *got.AdminChatID)
	assert.True(t, ton("2").Equal(f.balance(t)))
	assert.Equal(t, []string{"admin", "buyer"}, f.notifier.events)
}

func TestConfirmPaymentInsufficientFunds(t *testing.T) {
	f, o := newFixture(t, "2", "3")

	_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	assert.True(t, ton("2").Equal(f.balance(t)))
	got, err := f.store.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderPending, got.Status)
	assert.Empty(t, f.notifier.events)
}

func TestConfirmPaymentErrors(t *testing.T) {
	f, o := newFixture(t, "5", "3")

	_, err := f.svc.ConfirmPayment(f.ctx, 999, buyerID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.ConfirmPayment(f.ctx, o.ID, otherID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	assert.True(t, ton("5").Equal(f.balance(t)))
}

func TestConfirmPaymentReplayDebitsOnce(t *testing.T) {
	f, o := newFixture(t, "10", "3")

	_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.ErrorIs(t, err, common.ErrInvalidState)

	assert.True(t, ton("7").Equal(f.balance(t)))
}

func TestCompleteThenReject(t *testing.T) {
	f, o := newFixture(t, "5", "3")
	_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)

	done, err := f.svc.CompleteOrder(f.ctx, o.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	_, err = f.svc.RejectOrder(f.ctx, o.ID, adminID)
	require.ErrorIs(t, err, common.ErrInvalidState)
	_, err = f.svc.CompleteOrder(f.ctx, o.ID, adminID)
	require.ErrorIs(t, err, common.ErrInvalidState)

	assert.True(t, ton("2").Equal(f.balance(t)))
}

func TestRejectThenComplete(t *testing.T) {
	f, o := newFixture(t, "5", "3")
	_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)

	rejected, err := f.svc.RejectOrder(f.ctx, o.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderRejected, rejected.Status)
	assert.Nil(t, rejected.CompletedAt)

	_, err = f.svc.CompleteOrder(f.ctx, o.ID, adminID)
	require.ErrorIs(t, err, common.ErrInvalidState)
	_, err = f.svc.RejectOrder(f.ctx, o.ID, adminID)
	require.ErrorIs(t, err, common.ErrInvalidState)

	// Возврат ровно один раз
	assert.True(t, ton("5").Equal(f.balance(t)))
}

func TestRejectRestoresBalanceAfterPriceChange(t *testing.T) {
	f, o := newFixture(t, "5", "3")
	_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)

	newPrice := ton("100")
	_, err = f.store.EditProduct(f.ctx, *o.ProductID, nil, &newPrice)
	require.NoError(t, err)

	_, err = f.svc.RejectOrder(f.ctx, o.ID, adminID)
	require.NoError(t, err)
	assert.True(t, ton("5").Equal(f.balance(t)))

	ms, err := f.store.ListMovements(f.ctx, buyerID, 0)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, m := range ms {
		sum = sum.Add(m.Delta)
	}
	assert.True(t, ton("5").Equal(sum), "журнал сходится с балансом")
}

func TestCompletePendingOrderInvalidState(t *testing.T) {
	f, o := newFixture(t, "5", "3")

	_, err := f.svc.CompleteOrder(f.ctx, o.ID, adminID)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	_, err = f.svc.RejectOrder(f.ctx, o.ID, adminID)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	assert.True(t, ton("5").Equal(f.balance(t)))
}

func TestAdminTransitionsRequireAdmin(t *testing.T) {
	f, o := newFixture(t, "5", "3")
	_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)

	_, err = f.svc.CompleteOrder(f.ctx, o.ID, buyerID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = f.svc.RejectOrder(f.ctx, o.ID, buyerID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = f.svc.CompleteOrder(f.ctx, 999, adminID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestConcurrentConfirmOnlyOneWins(t *testing.T) {
	f, o := newFixture(t, "3", "3")

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			errors.Is(err, common.ErrInvalidState) || errors.Is(err, common.ErrInsufficientFunds),
			"неожиданная ошибка: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, f.balance(t).IsZero())
}

func TestConcurrentConfirmTwoOrdersOneBalance(t *testing.T) {
	f, first := newFixture(t, "3", "3")
	second, err := f.svc.CreateOrder(f.ctx, buyerID, *first.ProductID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int64{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = f.svc.ConfirmPayment(f.ctx, id, buyerID)
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, common.ErrInsufficientFunds)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.True(t, f.balance(t).IsZero())
}

func TestNotifierFailureDoesNotRollBack(t *testing.T) {
	f, o := newFixture(t, "5", "3")
	f.notifier.fail = true

	got, err := f.svc.ConfirmPayment(f.ctx, o.ID, buyerID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderProcessing, got.Status)

	_, err = f.svc.RejectOrder(f.ctx, o.ID, adminID)
	require.NoError(t, err)
	assert.True(t, ton("5").Equal(f.balance(t)))
	assert.Equal(t, []string{"admin", "buyer", "rejected"}, f.notifier.events)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f, _ := newFixture(t, "0", "1")
	_, err := f.svc.CreateOrder(f.ctx, buyerID, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListByStatus(t *testing.T) {
	f, _ := newFixture(t, "0", "1")

	list, err := f.svc.ListByStatus(f.ctx, adminID, store.OrderPending)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListByStatus(f.ctx, buyerID, "")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.ListByStatus(f.ctx, adminID, "shipped")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestGetOrderOwnership(t *testing.T) {
	f, o := newFixture(t, "0", "1")

	_, err := f.svc.Get(f.ctx, o.ID, buyerID)
	require.NoError(t, err)
	_, err = f.svc.Get(f.ctx, o.ID, adminID)
	require.NoError(t, err)
	_, err = f.svc.Get(f.ctx, o.ID, otherID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
