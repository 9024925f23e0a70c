package parser

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/psilLang/brainfuck/pkg/types"
)

// DefaultCacheSize is used when NewCache is given a non-positive size
const DefaultCacheSize = 128

// Cache memoizes successful parses by source text. Returned sequences are
// shared between callers and must not be modified.
type Cache struct {
	entries *lru.Cache
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewCache creates a cache holding up to size parsed programs
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Parse returns the cached sequence for source, parsing it on a miss.
// Parse errors are returned as-is and not cached.
func (c *Cache) Parse(source string) (types.Sequence, error) {
	if v, ok := c.entries.Get(source); ok {
		c.hits.Add(1)
		return v.(types.Sequence), nil
	}
	c.misses.Add(1)
	seq, err := Parse(source)
	if err != nil {
		return nil, err
	}
	c.entries.Add(source, seq)
	return seq, nil
}

// Len returns the number of cached programs
func (c *Cache) Len() int {
	return c.entries.Len()
}

// HitRate returns hits and misses since creation or the last Purge
func (c *Cache) HitRate() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every cached program
func (c *Cache) Purge() {
	c.entries.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}
