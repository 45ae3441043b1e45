package invoices

import (
	"context"
	"time"

	"github.com/netbill/isp-billing/pkg/redis"
	"github.com/netbill/isp-billing/pkg/types"
)

// PeriodLocker serializes generation runs for the same period.
type PeriodLocker interface {
	// Lock returns a release func when the period was acquired, or ok=false
	// when another run holds it.
	Lock(ctx context.Context, p types.Period) (release func(context.Context) error, ok bool, err error)
}

// RedisPeriodLocker implements PeriodLocker with a Redis SETNX lease.
type RedisPeriodLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPeriodLocker builds a locker keyed by lock:invoices:<YYYY-MM>.
func NewRedisPeriodLocker(client *redis.Client, ttl time.Duration) *RedisPeriodLocker {
	return &RedisPeriodLocker{client: client, ttl: ttl}
}

func (l *RedisPeriodLocker) Lock(ctx context.Context, p types.Period) (func(context.Context) error, bool, error) {
	lock, err := redis.NewLock(l.client, l.client.LockKey("invoices", p.String()), l.ttl)
	if err != nil {
		return nil, false, err
	}
	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return lock.Release, true, nil
}
