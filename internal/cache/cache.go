// Package cache holds ranked results for recently asked questions.
package cache

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"

	"github.com/agrisense/advisor/internal/knowledge"
)

// DefaultSize is the number of rankings kept when no size is configured.
const DefaultSize = 100

// Key identifies a cached ranking.
type Key uint64

// NewKey hashes the normalized question, language and top_k together with
// the generation of the tuning and snapshot the ranking was computed from.
// Rankings from an older generation can never be looked up again.
func NewKey(question, language string, topK int, generation uint64) Key {
	h := xxhash.New()
	_, _ = h.WriteString(NormalizeQuestion(question))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(language)))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.Itoa(topK))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatUint(generation, 10))
	return Key(h.Sum64())
}

// NormalizeQuestion folds case and collapses whitespace so trivially
// different spellings of the same question share a cache slot.
func NormalizeQuestion(q string) string {
	return strings.Join(strings.Fields(cases.Fold().String(q)), " ")
}

// Entry is a cached ranking.
type Entry struct {
	Key       Key
	Ranking   knowledge.Ranking
	CreatedAt time.Time
}

// Stats reports cache activity since construction.
type Stats struct {
	Size          int    `json:"size"`
	Capacity      int    `json:"capacity"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Invalidations uint64 `json:"invalidations"`
}

// ResultCache is a bounded LRU of rankings. It is safe for concurrent use;
// lookups refresh recency, so they are serialized with writes.
type ResultCache struct {
	entries  *lru.Cache[Key, Entry]
	capacity int

	hits          atomic.Uint64
	misses        atomic.Uint64
	invalidations atomic.Uint64
}

// New creates a cache holding at most size rankings.
func New(size int) (*ResultCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[Key, Entry](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{entries: entries, capacity: size}, nil
}

// Get returns the ranking cached under key and marks it most recently used.
func (c *ResultCache) Get(key Key) (Entry, bool) {
	e, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Put stores a ranking, evicting the least recently used one when full.
func (c *ResultCache) Put(key Key, ranking knowledge.Ranking) {
	c.entries.Add(key, Entry{Key: key, Ranking: ranking, CreatedAt: time.Now()})
}

// InvalidateAll drops every cached ranking.
func (c *ResultCache) InvalidateAll() {
	c.entries.Purge()
	c.invalidations.Add(1)
}

// Len returns the number of cached rankings.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Stats returns a point-in-time view of the counters.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Size:          c.entries.Len(),
		Capacity:      c.capacity,
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
	}
}
