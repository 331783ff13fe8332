package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rsned/craftimizer-server/internal/craftimizer/metrics"
	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// CachedCatalog is a read-through LRU cache in front of an ItemStore.
// Definitions are immutable between syncs, so entries only need to be
// purged when a sync rewrites the catalog. Only hits are cached; misses
// always go back to the store and count against the lookup-miss metric.
type CachedCatalog struct {
	store  *ItemStore
	byID   *expirable.LRU[int64, *craftimizer.ItemDefinition]
	byName *expirable.LRU[string, []craftimizer.ItemDefinition]
}

// NewCachedCatalog creates a cache over the store with the given capacity
// and TTL. A TTL of 0 disables time-based expiry.
func NewCachedCatalog(store *ItemStore, size int, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		store:  store,
		byID:   expirable.NewLRU[int64, *craftimizer.ItemDefinition](size, nil, ttl),
		byName: expirable.NewLRU[string, []craftimizer.ItemDefinition](size, nil, ttl),
	}
}

// FindByID returns the item definition for an ankama id, or (nil, nil)
// when the catalog has no such item.
func (c *CachedCatalog) FindByID(ctx context.Context, ankamaID int64) (*craftimizer.ItemDefinition, error) {
	if item, ok := c.byID.Get(ankamaID); ok {
		return item, nil
	}

	item, err := c.store.FindByID(ctx, ankamaID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		metrics.CatalogLookupMisses.Inc()
		return nil, nil
	}

	c.byID.Add(ankamaID, item)
	return item, nil
}

// SearchByName searches items by case-insensitive name substring.
func (c *CachedCatalog) SearchByName(ctx context.Context, term string, limit int) ([]craftimizer.ItemDefinition, error) {
	key := fmt.Sprintf("%s|%d", strings.ToLower(term), limit)
	if hits, ok := c.byName.Get(key); ok {
		return hits, nil
	}

	hits, err := c.store.SearchByName(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		c.byName.Add(key, hits)
	}

	return hits, nil
}

// Purge drops all cached entries. Call after a catalog sync.
func (c *CachedCatalog) Purge() {
	c.byID.Purge()
	c.byName.Purge()
}
