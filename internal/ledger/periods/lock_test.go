package periods

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

func newTestLock(t *testing.T) (*PeriodLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPeriodLock(client, 2*time.Minute), mr
}

func TestPeriodLockIsExclusive(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "ACME", 42)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "ACME", 42)
	assert.ErrorIs(t, err, shared.ErrPeriodLockHeld)

	release()
	release2, err := lock.Acquire(ctx, "ACME", 42)
	require.NoError(t, err)
	release2()
}

func TestPeriodLockScopedPerPeriod(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "ACME", 42)
	require.NoError(t, err)
	defer release()

	// Other periods and organizations lock independently.
	r2, err := lock.Acquire(ctx, "ACME", 43)
	require.NoError(t, err)
	defer r2()

	r3, err := lock.Acquire(ctx, "OTHER", 42)
	require.NoError(t, err)
	defer r3()
}

func TestPeriodLockExpiresWithTTL(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	_, err := lock.Acquire(ctx, "ACME", 42)
	require.NoError(t, err)

	// A crashed holder never releases; the TTL reclaims the lock.
	mr.FastForward(3 * time.Minute)

	release, err := lock.Acquire(ctx, "ACME", 42)
	require.NoError(t, err)
	release()
}
