package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/db/memory"
)

const adminID = int64(100)

func TestCreateRequiresAdmin(t *testing.T) {
	svc := NewService(memory.New(), adminID)
	_, err := svc.Create(context.Background(), 1, "x", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), adminID)

	_, err := svc.Create(ctx, adminID, "   ", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Create(ctx, adminID, strings.Repeat("я", MaxNameLength+1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Create(ctx, adminID, "x", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	id, err := svc.Create(ctx, adminID, "  +7 999  ", decimal.Zero)
	require.NoError(t, err)
	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "+7 999", p.Name)
}

func TestEditAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), adminID)
	id, err := svc.Create(ctx, adminID, "x", decimal.NewFromInt(1))
	require.NoError(t, err)

	price := decimal.RequireFromString("2.5")
	require.NoError(t, svc.Edit(ctx, adminID, id, nil, &price))
	p, _ := svc.Get(ctx, id)
	assert.True(t, price.Equal(p.Price))

	assert.ErrorIs(t, svc.Edit(ctx, adminID, id, nil, nil), common.ErrInvalidInput)
	assert.ErrorIs(t, svc.Edit(ctx, adminID, 999, nil, &price), common.ErrNotFound)
	assert.ErrorIs(t, svc.Edit(ctx, 1, id, nil, &price), common.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, adminID, id))
	assert.ErrorIs(t, svc.Delete(ctx, adminID, id), common.ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
