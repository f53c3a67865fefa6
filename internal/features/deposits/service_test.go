package deposits

import (
	"context"
	"errors"
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
	userID  = int64(1)
)

type fakeVerifier struct {
	exists bool
	err    error
	calls  []string
}

func (f *fakeVerifier) TransactionExists(_ context.Context, hash string) (bool, error) {
	f.calls = append(f.calls, hash)
	return f.exists, f.err
}

type fakeNotifier struct {
	recorded, confirmed, rejected int
	fail                          bool
}

func (f *fakeNotifier) result() error {
	if f.fail {
		return errors.New("blocked")
	}
	return nil
}

func (f *fakeNotifier) DepositRecorded(context.Context, *store.Transaction, *store.User) error {
	f.recorded++
	return f.result()
}

func (f *fakeNotifier) DepositConfirmed(context.Context, *store.Transaction, decimal.Decimal) error {
	f.confirmed++
	return f.result()
}

func (f *fakeNotifier) DepositRejected(context.Context, *store.Transaction) error {
	f.rejected++
	return f.result()
}

func newService(t *testing.T, v *fakeVerifier) (*Service, *memory.Store, *fakeNotifier) {
	t.Helper()
	s := memory.New()
	_, err := s.UpsertUser(context.Background(), userID, "bob")
	require.NoError(t, err)
	n := &fakeNotifier{}
	return NewService(s, v, n, adminID, decimal.RequireFromString("0.1")), s, n
}

func TestParseHash(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "check_abc", want: "abc"},
		{in: "  check_ abc  ", want: "abc"},
		{in: "CHECK_0xDEAD", want: "0xDEAD"},
		{in: "check_0xdead", want: "0xdead"},
		{in: "check_", wantErr: true},
		{in: "check_a b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHash(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckRecordsOnce(t *testing.T) {
	ctx := context.Background()
	v := &fakeVerifier{exists: true}
	svc, _, n := newService(t, v)

	res, err := svc.Check(ctx, userID, "check_abc")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, store.TxPending, res.Tx.Status)
	assert.Equal(t, 1, n.recorded)

	res, err = svc.Check(ctx, userID, "check_abc")
	require.ErrorIs(t, err, common.ErrDuplicate)
	assert.Equal(t, store.TxPending, res.Tx.Status)
	// Повторный хэш не уходит в toncenter
	assert.Len(t, v.calls, 1)
}

func TestCheckNotFound(t *testing.T) {
	svc, s, n := newService(t, &fakeVerifier{exists: false})

	res, err := svc.Check(context.Background(), userID, "check_nope")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Zero(t, n.recorded)

	txs, _ := s.ListUserTransactions(context.Background(), userID)
	assert.Empty(t, txs)
}

func TestCheckVerifierDown(t *testing.T) {
	svc, _, _ := newService(t, &fakeVerifier{err: errors.New("timeout")})

	_, err := svc.Check(context.Background(), userID, "check_abc")
	assert.ErrorIs(t, err, ErrVerifierUnavailable)
}

func TestConfirmCreditsOnce(t *testing.T) {
	ctx := context.Background()
	svc, s, n := newService(t, &fakeVerifier{exists: true})
	n.fail = true
	res, err := svc.Check(ctx, userID, "check_abc")
	require.NoError(t, err)

	_, _, err = svc.Confirm(ctx, userID, res.Tx.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, _, err = svc.Confirm(ctx, adminID, res.Tx.ID, decimal.RequireFromString("0.05"))
	assert.ErrorIs(t, err, common.ErrBelowMinimum)

	tx, balance, err := svc.Confirm(ctx, adminID, res.Tx.ID, decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assert.Equal(t, store.TxConfirmed, tx.Status)
	assert.True(t, decimal.RequireFromString("2.5").Equal(balance))

	_, _, err = svc.Confirm(ctx, adminID, res.Tx.ID, decimal.RequireFromString("2.5"))
	assert.ErrorIs(t, err, common.ErrInvalidState)

	got, _ := s.GetBalance(ctx, userID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(got))

	ms, _ := s.ListMovements(ctx, userID, 0)
	require.Len(t, ms, 1)
	assert.Equal(t, store.MovementDepositCredit, ms[0].Kind)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	svc, s, n := newService(t, &fakeVerifier{exists: true})
	res, err := svc.Check(ctx, userID, "check_abc")
	require.NoError(t, err)

	tx, err := svc.Reject(ctx, adminID, res.Tx.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TxRejected, tx.Status)
	assert.Equal(t, 1, n.rejected)

	_, _, err = svc.Confirm(ctx, adminID, res.Tx.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrInvalidState)
	_, err = svc.Reject(ctx, adminID, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, _ := s.GetBalance(ctx, userID)
	assert.True(t, got.IsZero())
}

func TestListPending(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, &fakeVerifier{exists: true})
	_, err := svc.Check(ctx, userID, "check_a")
	require.NoError(t, err)
	_, err = svc.Check(ctx, userID, "check_b")
	require.NoError(t, err)

	list, err := svc.ListPending(ctx, adminID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListPending(ctx, userID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
