package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken with DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of one session across replicas sharing a store.
// Without it, two replicas could both load a session, run a turn and overwrite each other.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock expires after ttl
	// if its holder dies, so ttl must exceed the longest turn including model calls.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
