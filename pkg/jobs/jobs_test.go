package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubExpirer struct {
	age   time.Duration
	calls int
	panic bool
}

func (e *stubExpirer) ExpireStale(_ context.Context, age time.Duration) (int, error) {
	e.calls++
	e.age = age
	if e.panic {
		panic("boom")
	}
	return 2, nil
}

func testConfig() config.JobsConfig {
	return config.JobsConfig{
		StaleOrderAge:      24 * time.Hour,
		StaleOrderSchedule: "@every 30m",
		ResetPurgeSchedule: "@hourly",
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.StaleOrderSchedule = "every now and then"

	_, err := New(cfg, &stubExpirer{}, memstore.New(), zap.NewNop())
	require.Error(t, err)
}

func TestExpireStaleOrders(t *testing.T) {
	expirer := &stubExpirer{}
	s, err := New(testConfig(), expirer, memstore.New(), zap.NewNop())
	require.NoError(t, err)

	s.ExpireStaleOrders()
	assert.Equal(t, 1, expirer.calls)
	assert.Equal(t, 24*time.Hour, expirer.age)

	expirer.panic = true
	assert.NotPanics(t, s.ExpireStaleOrders)
}

func TestPurgeResetTokens(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	expired := &models.User{Email: "old@example.com", ResetTokenHash: "a", ResetTokenExpiry: &past}
	live := &models.User{Email: "new@example.com", ResetTokenHash: "b", ResetTokenExpiry: &future}
	require.NoError(t, store.CreateUser(ctx, expired))
	require.NoError(t, store.CreateUser(ctx, live))

	s, err := New(testConfig(), &stubExpirer{}, store, zap.NewNop())
	require.NoError(t, err)
	s.PurgeResetTokens()

	got, err := store.GetUserByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ResetTokenHash)
	assert.Nil(t, got.ResetTokenExpiry)

	got, err = store.GetUserByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ResetTokenHash)
}

func TestStartStop(t *testing.T) {
	s, err := New(testConfig(), &stubExpirer{}, memstore.New(), zap.NewNop())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
