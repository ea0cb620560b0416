package api

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLimit_NoCashouts(t *testing.T) {
	env := newTestEnv(t)

	status, err := env.svc.CheckLimit(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, status.Used.IsZero())
	assert.True(t, status.Remaining.Equal(decimal.NewFromInt(300)))
	assert.True(t, status.Limit.Equal(decimal.NewFromInt(300)))
	assert.Nil(t, status.WindowResetsAt)
}

func TestCheckLimit_RollingWindow(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	env.store.seedCashout("alice", 200, now.Add(-1*time.Hour))
	env.store.seedCashout("Alice", 120, now.Add(-23*time.Hour))

	status, err := env.svc.CheckLimit(context.Background(), "ALICE")
	require.NoError(t, err)
	assert.True(t, status.Used.Equal(decimal.NewFromInt(320)))
	assert.True(t, status.Remaining.IsZero(), "remaining is clamped at zero")
	require.NotNil(t, status.WindowResetsAt)
	assert.Equal(t, now.Add(time.Hour), *status.WindowResetsAt)

	env.clock.Set(now.Add(2 * time.Hour))

	status, err = env.svc.CheckLimit(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, status.Used.Equal(decimal.NewFromInt(200)), "got %s", status.Used)
	assert.True(t, status.Remaining.Equal(decimal.NewFromInt(100)), "got %s", status.Remaining)
	require.NotNil(t, status.WindowResetsAt)
	assert.Equal(t, now.Add(23*time.Hour), *status.WindowResetsAt)
}

func TestCheckLimit_ExpiredWindowResets(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	env.store.seedCashout("alice", 300, now.Add(-24*time.Hour))

	status, err := env.svc.CheckLimit(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, status.Used.IsZero())
	assert.True(t, status.Remaining.Equal(decimal.NewFromInt(300)))
	assert.Nil(t, status.WindowResetsAt)
}

func TestCheckLimit_ConfiguredCeiling(t *testing.T) {
	env := newTestEnv(t)
	svc := NewLedgerService(env.store, env.store, env.provider, env.rates, Options{
		CashoutLimit: decimal.NewFromInt(500),
		Now:          env.clock.Now,
	})
	env.store.seedCashout("alice", 120, env.clock.Now().Add(-time.Hour))

	status, err := svc.CheckLimit(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, status.Remaining.Equal(decimal.NewFromInt(380)))
}

func TestCheckLimit_RequiresUsername(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CheckLimit(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrValidation)
}
