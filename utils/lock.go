package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when the lock stays held for the whole
// acquisition window.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lock key only if it still holds our token,
// so an expired lock re-acquired by someone else is never released by us.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// SessionLock serializes mutations against a single session across all
// server instances. One lock per session id; sessions never contend with
// each other.
type SessionLock struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionLock(redisClient *redis.Client, ttl time.Duration) *SessionLock {
	return &SessionLock{redis: redisClient, ttl: ttl}
}

func lockKey(sessionID string) string {
	return fmt.Sprintf("lock:session:%s", sessionID)
}

// Acquire blocks until the session lock is held, ctx is done, or the
// retry budget runs out. The returned token must be passed to Release.
func (l *SessionLock) Acquire(ctx context.Context, sessionID string) (string, error) {
	token, err := GenerateSessionCode(16)
	if err != nil {
		return "", err
	}

	key := lockKey(sessionID)
	backoff := 20 * time.Millisecond

	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", ErrLockNotAcquired
		case <-time.After(backoff):
		}

		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// Release is safe to call even after the lock TTL expired.
func (l *SessionLock) Release(ctx context.Context, sessionID, token string) error {
	return l.redis.Eval(ctx, releaseScript, []string{lockKey(sessionID)}, token).Err()
}

// WithLock runs fn while holding the session lock.
func (l *SessionLock) WithLock(ctx context.Context, sessionID string, fn func() error) error {
	token, err := l.Acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer l.Release(ctx, sessionID, token)

	return fn()
}
