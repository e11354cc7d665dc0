package extract

import (
	"slices"
	"sync"

	"github.com/RobertIonutF/rmusico/track"
)

const (
	DefaultCacheCap  = 50
	DefaultCacheKeep = 25
	DefaultFailedCap = 100
)

// Cache maps input URLs to their last successful record in insertion order.
// It is size-bounded only: Trim drops the oldest entries once the cap is
// exceeded. There is no expiry.
type Cache struct {
	mu    sync.Mutex
	cap   int
	keep  int
	items map[string]track.Record
	order []string
}

func NewCache(capacity, keep int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCap
	}
	if keep <= 0 || keep > capacity {
		keep = capacity / 2
	}
	return &Cache{cap: capacity, keep: keep, items: make(map[string]track.Record)}
}

func (c *Cache) Get(url string) (track.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[url]
	return r, ok
}

// Put inserts or refreshes url as the newest entry.
func (c *Cache) Put(url string, rec track.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[url]; ok {
		c.order = slices.DeleteFunc(c.order, func(u string) bool { return u == url })
	}
	c.items[url] = rec
	c.order = append(c.order, url)
}

func (c *Cache) Delete(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[url]; !ok {
		return
	}
	delete(c.items, url)
	c.order = slices.DeleteFunc(c.order, func(u string) bool { return u == url })
}

// Trim keeps only the newest entries when the cache is over its cap and
// reports how many were evicted.
func (c *Cache) Trim() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.order) <= c.cap {
		return 0
	}
	drop := len(c.order) - c.keep
	for _, u := range c.order[:drop] {
		delete(c.items, u)
	}
	c.order = slices.Clone(c.order[drop:])
	return drop
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Keys returns the cached URLs, oldest first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

// FailedSet is a short-lived circuit breaker of URLs that exhausted every
// strategy. It is cleared wholesale once it grows past its cap.
type FailedSet struct {
	mu   sync.Mutex
	cap  int
	urls map[string]struct{}
}

func NewFailedSet(capacity int) *FailedSet {
	if capacity <= 0 {
		capacity = DefaultFailedCap
	}
	return &FailedSet{cap: capacity, urls: make(map[string]struct{})}
}

func (f *FailedSet) Add(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls[url] = struct{}{}
}

func (f *FailedSet) Remove(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.urls, url)
}

func (f *FailedSet) Contains(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.urls[url]
	return ok
}

// Trim clears the whole set when it is over its cap.
func (f *FailedSet) Trim() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.urls) <= f.cap {
		return false
	}
	clear(f.urls)
	return true
}

func (f *FailedSet) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}
