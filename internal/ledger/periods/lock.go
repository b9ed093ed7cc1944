package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// PeriodLock serializes period close against posting into the same period.
type PeriodLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPeriodLock(client *redis.Client, ttl time.Duration) *PeriodLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PeriodLock{client: client, ttl: ttl}
}

// Acquire takes the exclusive lock or fails with ErrPeriodLockHeld.
func (l *PeriodLock) Acquire(ctx context.Context, organizationID string, periodID int64) (func(), error) {
	key := internalshared.PeriodCloseLockKey(organizationID, periodID)
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("periods: acquire lock: %w", err)
	}
	if !ok {
		return nil, shared.ErrPeriodLockHeld
	}
	release := func() {
		_ = l.client.Del(context.WithoutCancel(ctx), key).Err()
	}
	return release, nil
}
