package annotate

import (
	"context"
	"sync"

	"github.com/quakescope/globe-data-service/internal/domain"
	"github.com/quakescope/globe-data-service/internal/observability"
)

// CachedAnnotator wraps an Annotator with an in-memory LRU cache keyed by
// event ID. Feeds overlap heavily between refreshes, so most events only
// ever hit the annotation service once.
type CachedAnnotator struct {
	inner   domain.Annotator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedAnnotator creates a cache decorator around an annotator.
func NewCachedAnnotator(inner domain.Annotator, maxEntries int, metrics *observability.Metrics) *CachedAnnotator {
	return &CachedAnnotator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedAnnotator) Annotate(ctx context.Context, event domain.GeoEvent) (domain.AnnotationResult, error) {
	if result, ok := c.cache.get(event.ID); ok {
		c.metrics.AnnotateCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.AnnotateCache.WithLabelValues("miss").Inc()

	result, err := c.inner.Annotate(ctx, event)
	if err != nil {
		return result, err
	}
	// Only cache non-empty summaries so transient empties can be retried.
	if result.Summary != "" {
		c.cache.put(event.ID, result)
	}
	return result, nil
}

// lruCache is a simple thread-safe LRU cache for AnnotationResults.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.AnnotationResult
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.AnnotationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.AnnotationResult{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.AnnotationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
