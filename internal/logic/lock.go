package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// releaseScript deletes the lock only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// renewScript extends the lock TTL only if it still holds our token.
const renewScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`

// RedisLocker is a SET NX lock with a TTL so a crashed holder cannot block
// forever. A held lock is renewed every third of its TTL until released.
type RedisLocker struct {
	client RedisClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

func NewRedisLocker(client RedisClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		prefix: "osuchan:lock:",
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return l.hold(k, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for lock %s: %w", key, ctx.Err())
		case <-time.After(l.retry):
		}
	}
}

// hold keeps k alive until the returned release func is called.
func (l *RedisLocker) hold(k, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
				n, err := l.client.Eval(ctx, renewScript, []string{k}, token, l.ttl.Milliseconds()).Int64()
				cancel()
				if err == nil && n == 0 {
					// Lost to expiry, nothing left to renew
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.client.Eval(context.Background(), releaseScript, []string{k}, token)
		})
	}
}
