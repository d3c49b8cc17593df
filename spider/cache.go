package spider

import (
	"context"
	"sync"
)

// cacheEntry holds in-flight or completed resolution of a single stylesheet.
// Fields other than done are written once before done is closed.
type cacheEntry struct {
	done    chan struct{}
	records []Record
	err     error
}

func (e *cacheEntry) completed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// wait blocks until entry is completed and returns independent copy of its
// result.
func (e *cacheEntry) wait(ctx context.Context) ([]Record, error) {
	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return CloneRecords(e.records), nil
}

// cache is session scoped stylesheet cache keyed by normalized path. It also
// tracks which stylesheet requested which, so a request which would end up
// waiting on itself is detected.
type cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	deps    map[string]map[string]struct{}
}

func newCache() *cache {
	return &cache{
		entries: make(map[string]*cacheEntry),
		deps:    make(map[string]map[string]struct{}),
	}
}

// acquire looks up key on behalf of parent stylesheet (empty for entry
// stylesheet). When owner is true the caller must resolve the stylesheet and
// complete the entry. When cyclic is true the entry is in-flight and depends
// on parent, waiting for it would never finish and caller has to resolve the
// stylesheet without cache.
func (c *cache) acquire(key, parent string) (e *cacheEntry, owner, cyclic bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if parent != "" {
		children, ok := c.deps[parent]
		if !ok {
			children = make(map[string]struct{})
			c.deps[parent] = children
		}
		children[key] = struct{}{}
	}

	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.entries[key] = e
		return e, true, false
	}
	if parent != "" && !e.completed() && c.reaches(key, parent) {
		return e, false, true
	}
	return e, false, false
}

// reaches reports if "to" is reachable from "from" following requests.
// Must be called with mutex held.
func (c *cache) reaches(from, to string) bool {
	seen := make(map[string]struct{})
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		for next := range c.deps[cur] {
			stack = append(stack, next)
		}
	}
	return false
}

// complete stores result and releases waiters. Cache keeps its own copy.
func (c *cache) complete(e *cacheEntry, records []Record, err error) {
	if err == nil {
		e.records = CloneRecords(records)
	}
	e.err = err
	close(e.done)
}

// len returns number of cached stylesheets.
func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
