package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock stays held past MaxWait.
var ErrNotAcquired = errors.New("lock: not acquired")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`

var release = redis.NewScript(releaseScript)

// Locker serialises work on a key across API replicas using SET NX with a
// random owner token.
type Locker struct {
	R            redis.UniversalClient
	Prefix       string
	RetryBackoff time.Duration
	// MaxWait bounds how long WithLock polls for a held lock. Zero waits until
	// ctx is done.
	MaxWait time.Duration
}

// DraftOrderKey names the lock guarding mutations of one Shopify draft order.
func DraftOrderKey(id int64) string {
	return fmt.Sprintf("draft_order:%d", id)
}

// WithLock runs fn while holding key. The lock is released when fn returns,
// and expires after ttl if the process dies first.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	full := l.Prefix + key
	token := uuid.NewString()

	waitCtx := ctx
	if l.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.MaxWait)
		defer cancel()
	}

	for {
		ok, err := l.R.SetNX(waitCtx, full, token, ttl).Result()
		if err != nil {
			if ctx.Err() == nil && waitCtx.Err() != nil {
				return fmt.Errorf("%w: %s", ErrNotAcquired, key)
			}
			return err
		}
		if ok {
			defer func() {
				_ = release.Run(context.WithoutCancel(ctx), l.R, []string{full}, token).Err()
			}()
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-timer.C:
		}
	}
}
