package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter_RedisNil_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, err := l.AllowFixedWindow(context.Background(), "k", 10, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected allowed when redis disabled")
	}
	if d.Remaining != 10 {
		t.Fatalf("unexpected remaining: %d", d.Remaining)
	}
}

func TestFixedWindowLimiter_LimitZero_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, _ := l.AllowFixedWindow(context.Background(), "k", 0, time.Minute)
	if !d.Allowed {
		t.Fatalf("limit=0 should allow")
	}
}

func TestFixedWindowLimiter_BlocksAfterLimit(t *testing.T) {
	t.Parallel()

	c, mr := newTestClient(t)
	l := NewFixedWindowLimiter(c)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.AllowFixedWindow(ctx, "rl:verify:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}

	d, err := l.AllowFixedWindow(ctx, "rl:verify:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	mr.FastForward(61 * time.Second)
	d, err = l.AllowFixedWindow(ctx, "rl:verify:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
