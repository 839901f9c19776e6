package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL    = 10 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
	defaultMaxDelay   = 250 * time.Millisecond
)

var errLockHeld = errors.New("lock held")

// Compare-and-delete so a holder whose lease expired never releases a
// lock that now belongs to somebody else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Extends the lease only while the caller still owns the key.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// RedisLocker shares the exclusion boundary between API replicas. Held
// leases are renewed every third of the TTL until unlock, so a slow
// transaction keeps its keys; the TTL only matters for a crashed holder.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisLocker)

// WithLeaseTTL bounds how long a crashed holder can block a key.
func WithLeaseTTL(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.ttl = d
		}
	}
}

func NewRedisLocker(client *redis.Client, prefix string, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    defaultLockTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewRedisClient mirrors how the rest of the service dials Redis.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (l *RedisLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquire(ctx, l.key(k), token); err != nil {
			l.releaseAll(held, token)
			return nil, err
		}
		held = append(held, l.key(k))
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(held, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.releaseAll(held, token)
		})
	}, nil
}

func (l *RedisLocker) renew(keys []string, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	ttlMillis := l.ttl.Milliseconds()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			for _, k := range keys {
				_ = extendScript.Run(ctx, l.client, []string{k}, token, ttlMillis).Err()
			}
			cancel()
		}
	}
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryDelay
	b.MaxInterval = defaultMaxDelay
	b.MaxElapsedTime = 0

	op := func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("acquire %s: %w", key, err))
		}
		if !ok {
			return errLockHeld
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, errLockHeld) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
		}
		return err
	}
	return nil
}

func (l *RedisLocker) releaseAll(keys []string, token string) {
	// Release must happen even when the request context is already gone.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		_ = releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Err()
	}
}

func (l *RedisLocker) key(k string) string {
	if l.prefix == "" {
		return k
	}
	return l.prefix + ":" + k
}
