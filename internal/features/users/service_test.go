package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/db/memory"
)

func TestEnsureKeepsFirstUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())

	u, err := svc.Ensure(ctx, 7, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.Balance.IsZero())

	u, err = svc.Ensure(ctx, 7, "alice_new")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestGetUnknown(t *testing.T) {
	_, err := NewService(memory.New()).Get(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
