// ABOUTME: Thread-safe TTL cache of recently claimed idempotency keys
// ABOUTME: Stops a retried send from running the same prompt twice within the window

package dedupe

import (
	"container/list"
	"strconv"
	"sync"
	"time"
)

// DefaultMaxKeys bounds memory when callers pass a non-positive size.
const DefaultMaxKeys = 10_000

// cacheEntry stores the claim time and list element for a key.
type cacheEntry struct {
	claimed time.Time
	element *list.Element
}

// Cache tracks keys claimed within the last window. Oldest keys are evicted
// first once maxSize is reached. A nil *Cache accepts every claim.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*cacheEntry
	order   *list.List // keys in claim order, oldest at front
	window  time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache that remembers keys for window. It returns nil when
// window is not positive, which disables deduplication.
func New(window time.Duration, maxSize int) *Cache {
	if window <= 0 {
		return nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxKeys
	}
	c := &Cache{
		seen:    make(map[string]*cacheEntry),
		order:   list.New(),
		window:  window,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Key scopes an idempotency key to a session.
func Key(sessionID int64, idempotencyKey string) string {
	return strconv.FormatInt(sessionID, 10) + ":" + idempotencyKey
}

// Claim atomically records key and reports whether the caller owns it.
// It returns false when key was claimed less than window ago.
func (c *Cache) Claim(key string) bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.seen[key]; ok {
		if now.Sub(entry.claimed) < c.window {
			return false
		}
		entry.claimed = now
		c.order.MoveToBack(entry.element)
		return true
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.seen[key] = &cacheEntry{claimed: now, element: elem}
	return true
}

// Release forgets key so it can be claimed again immediately. Used when the
// claimed work was rejected before it started.
func (c *Cache) Release(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.seen[key]; ok {
		c.order.Remove(entry.element)
		delete(c.seen, key)
	}
}

// Len returns the number of tracked keys, expired or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// evictOldest removes the front of the order list. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, key)
}

// cleanup periodically drops expired keys until Close.
func (c *Cache) cleanup() {
	interval := c.window
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

// removeExpired walks from the oldest claim and stops at the first live one.
func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for e := c.order.Front(); e != nil; {
		key, _ := e.Value.(string)
		entry := c.seen[key]
		if now.Sub(entry.claimed) < c.window {
			return
		}
		next := e.Next()
		c.order.Remove(e)
		delete(c.seen, key)
		e = next
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
