package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/admin-portal/internal/domain"
)

// Locker is a non-blocking per-key lock: SET NX PX with a random owner token.
// Release only deletes the key if the token still matches, so an expired
// lock taken over by another holder is left alone.
type Locker struct {
	rdb    *goredis.Client
	prefix string
}

func NewLocker(c *Client) *Locker {
	return &Locker{rdb: rdbOf(c), prefix: "lock:"}
}

const releaseLua = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l.rdb == nil {
		return nil, errors.New("redis locker not configured")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, domain.ErrRandomFailed(err)
	}
	owner := base64.RawURLEncoding.EncodeToString(b)
	k := l.prefix + key

	ok, err := l.rdb.SetNX(ctx, k, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock acquire: %w", err)
	}
	if !ok {
		return nil, domain.ErrTransitionInFlight()
	}

	return func() {
		// detached: the request context may already be cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.rdb.Eval(rctx, releaseLua, []string{k}, owner).Err()
	}, nil
}
