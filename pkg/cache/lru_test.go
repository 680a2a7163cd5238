package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLRUCache(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)

		_, ok := c.Get("a") // a becomes most recent
		require.True(t, ok)

		c.Put("c", 3)

		_, ok = c.Get("b")
		assert.False(t, ok, "b should have been evicted")
		v, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("expires entries after ttl", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
		c := cache.NewLRUCache[string, string](10).WithClock(clock.Now)
		c.PutWithTTL("k", "v", time.Minute)

		v, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v", v)

		clock.Advance(time.Minute)
		_, ok = c.Get("k")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: time.Now()}
		c := cache.NewLRUCache[string, string](10).WithClock(clock.Now)
		c.PutWithTTL("k", "v", 0)
		clock.Advance(24 * time.Hour)

		_, ok := c.Get("k")
		assert.True(t, ok)
	})

	t.Run("purge expired", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: time.Now()}
		c := cache.NewLRUCache[string, int](10).WithClock(clock.Now)
		c.PutWithTTL("short", 1, time.Second)
		c.PutWithTTL("long", 2, time.Hour)
		c.Put("forever", 3)

		clock.Advance(time.Minute)
		assert.Equal(t, 1, c.PurgeExpired())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("remove and clear", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRUCache[string, int](10)
		c.Put("a", 1)
		c.Put("b", 2)

		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))

		c.Clear()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("panics on non-positive capacity", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRUCache[string, int](50)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := range 100 {
					key := fmt.Sprintf("k%d", (i+j)%80)
					c.PutWithTTL(key, j, time.Minute)
					c.Get(key)
				}
			}(i)
		}
		wg.Wait()
		assert.LessOrEqual(t, c.Len(), 50)
	})
}
