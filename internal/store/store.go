package store

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

const (
	KindCategory = "category"
	KindProduct  = "product"

	loadedKey = "\x00loaded"
)

// Collection is the cached global view of one entity kind. Items never expire
// on their own; the collection as a whole goes cold after the TTL so callers
// know to reload it.
type Collection[T any] struct {
	kind    string
	idOf    func(T) string
	ttl     time.Duration
	items   *cache.Cache
	order   []string
	mu      sync.RWMutex
	metrics *metrics.Metrics
}

func newCollection[T any](kind string, ttl time.Duration, m *metrics.Metrics, idOf func(T) string) *Collection[T] {
	return &Collection[T]{
		kind:    kind,
		idOf:    idOf,
		ttl:     ttl,
		items:   cache.New(cache.NoExpiration, time.Minute),
		metrics: m,
	}
}

// Replace swaps the whole collection for a fresh backend listing.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Flush()
	c.order = make([]string, 0, len(items))
	for _, it := range items {
		id := c.idOf(it)
		if id == "" {
			continue
		}
		if _, dup := c.items.Get(id); !dup {
			c.order = append(c.order, id)
		}
		c.items.Set(id, it, cache.NoExpiration)
	}
	c.items.Set(loadedKey, true, c.ttl)
	c.report()
}

// Put inserts or replaces one entity with the backend's latest copy.
func (c *Collection[T]) Put(item T) {
	id := c.idOf(item)
	if id == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items.Get(id); !ok {
		c.order = append(c.order, id)
	}
	c.items.Set(id, item, cache.NoExpiration)
	c.report()
}

func (c *Collection[T]) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Delete(id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.report()
}

func (c *Collection[T]) Get(id string) (T, bool) {
	var zero T
	if id == loadedKey {
		return zero, false
	}
	v, ok := c.items.Get(id)
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// All returns every entity in load order. ok is false while the collection is
// cold and should be reloaded from the backend.
func (c *Collection[T]) All() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		if v, ok := c.items.Get(id); ok {
			out = append(out, v.(T))
		}
	}
	return out, c.fresh()
}

func (c *Collection[T]) Fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fresh()
}

func (c *Collection[T]) fresh() bool {
	_, ok := c.items.Get(loadedKey)
	return ok
}

// Invalidate marks the collection cold without dropping its contents, so a
// failed reload can still serve the last good listing.
func (c *Collection[T]) Invalidate() {
	c.items.Delete(loadedKey)
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *Collection[T]) report() {
	if c.metrics != nil {
		c.metrics.StoreSize.WithLabelValues(c.kind).Set(float64(len(c.order)))
	}
}

// Store is the explicit entity store shared by services and workers.
type Store struct {
	Categories *Collection[model.Category]
	Products   *Collection[model.Product]
}

func New(ttl time.Duration, m *metrics.Metrics) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{
		Categories: newCollection(KindCategory, ttl, m, func(c model.Category) string { return c.ID }),
		Products:   newCollection(KindProduct, ttl, m, func(p model.Product) string { return p.ID }),
	}
}

// Invalidate marks the collection of the given kind cold.
func (s *Store) Invalidate(kind string) {
	switch kind {
	case KindCategory:
		s.Categories.Invalidate()
	case KindProduct:
		s.Products.Invalidate()
	}
}
