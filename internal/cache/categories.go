package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/session"
)

// CategoryLoader fetches the category list from the API.
type CategoryLoader func(ctx context.Context) ([]core.Category, error)

// Categories caches each user's category list. The dashboard's expense
// form, the budgets page and the CLI all need it, and it changes only
// through the categories page, which invalidates it.
type Categories struct {
	lru *LRUCache[[]core.Category]

	// epoch counts invalidations. A load that started before one is not
	// stored.
	mu    sync.Mutex
	epoch uint64
}

func NewCategories(maxUsers int, ttl time.Duration) *Categories {
	if maxUsers < 1 {
		maxUsers = 1
	}
	return &Categories{lru: NewLRUCache[[]core.Category](maxUsers, ttl)}
}

// Get returns the cached list for userID, calling load on a miss. Errors
// are not cached. An empty userID bypasses the cache.
func (c *Categories) Get(ctx context.Context, userID string, load CategoryLoader) ([]core.Category, error) {
	if userID == "" {
		return load(ctx)
	}
	if cats, ok := c.lru.Get(userID); ok {
		return cats, nil
	}

	c.mu.Lock()
	started := c.epoch
	c.mu.Unlock()

	cats, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.epoch == started {
		c.lru.Set(userID, cats)
	}
	c.mu.Unlock()
	return cats, nil
}

// Invalidate drops userID's entry after a category mutation.
func (c *Categories) Invalidate(userID string) {
	c.mu.Lock()
	c.epoch++
	c.lru.Delete(userID)
	c.mu.Unlock()
}

// CleanExpired implements Cleaner.
func (c *Categories) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *Categories) Size() int {
	return c.lru.Size()
}

// OnSessionChange empties the cache whenever someone logs in or out, so no
// list outlives the session it was loaded under.
func (c *Categories) OnSessionChange(sess session.Session) {
	c.mu.Lock()
	c.epoch++
	c.lru.Clear()
	c.mu.Unlock()
	slog.Debug("Category cache cleared on session change",
		applog.FieldComponent, applog.ComponentCache,
		applog.FieldGeneration, sess.Generation)
}
