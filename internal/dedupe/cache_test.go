// ABOUTME: Tests for the idempotency key cache
// ABOUTME: Validates window expiry, release, eviction order, nil-cache behavior, and claim atomicity

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T, window time.Duration, maxSize int) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(window, maxSize)
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

func TestCache_ClaimNewKey(t *testing.T) {
	c, _ := newTestCache(t, 10*time.Second, 100)

	assert.True(t, c.Claim("1:abc"), "first claim should succeed")
	assert.False(t, c.Claim("1:abc"), "second claim inside window should fail")
	assert.True(t, c.Claim("2:abc"), "same key in another session is distinct")
}

func TestCache_ClaimAfterWindow(t *testing.T) {
	c, clock := newTestCache(t, 10*time.Second, 100)

	assert.True(t, c.Claim("k"))
	clock.Advance(9 * time.Second)
	assert.False(t, c.Claim("k"))
	clock.Advance(time.Second)
	assert.True(t, c.Claim("k"), "claim at exactly the window boundary succeeds")
	assert.False(t, c.Claim("k"), "reclaim restarts the window")
}

func TestCache_Release(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 100)

	assert.True(t, c.Claim("k"))
	c.Release("k")
	assert.True(t, c.Claim("k"), "released key can be claimed again")

	c.Release("never-claimed")
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictionOrder(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 3)

	for _, k := range []string{"first", "second", "third"} {
		assert.True(t, c.Claim(k))
		clock.Advance(time.Millisecond)
	}

	// A fourth key evicts the oldest.
	assert.True(t, c.Claim("fourth"))
	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Claim("first"), "evicted key is claimable again")
	assert.False(t, c.Claim("third"), "newer keys survive eviction")
}

func TestCache_RemoveExpired(t *testing.T) {
	c, clock := newTestCache(t, 10*time.Second, 100)

	c.Claim("old-1")
	c.Claim("old-2")
	clock.Advance(6 * time.Second)
	c.Claim("fresh")
	clock.Advance(5 * time.Second)

	c.removeExpired()

	assert.Equal(t, 1, c.Len())
	assert.False(t, c.Claim("fresh"))
	assert.True(t, c.Claim("old-1"))
}

func TestCache_DisabledWindow(t *testing.T) {
	c := New(0, 100)
	assert.Nil(t, c)

	// A nil cache accepts every claim and tolerates every call.
	assert.True(t, c.Claim("k"))
	assert.True(t, c.Claim("k"))
	c.Release("k")
	assert.Zero(t, c.Len())
	c.Close()
}

func TestCache_DefaultMaxKeys(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()
	assert.Equal(t, DefaultMaxKeys, c.maxSize)
}

func TestCache_Close(t *testing.T) {
	c := New(time.Minute, 100)

	c.Claim("before-close")

	// Multiple closes should not panic
	c.Close()
	c.Close()
}

func TestCache_ClaimIsAtomic(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 100)

	const numGoroutines = 100
	var winners int32
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			if c.Claim("contested-key") {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners, "exactly one goroutine should win the claim")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "42:retry-1", Key(42, "retry-1"))
	assert.NotEqual(t, Key(1, "23:x"), Key(12, "3:x"))
}
