package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

const (
	DefaultSize = 512
	DefaultTTL  = 300 * time.Second
)

// RetrievalCache memoizes filtered ranked result sets keyed by the full
// retrieval input. Entries expire after the TTL and the oldest entries are
// evicted once the size bound is hit.
type RetrievalCache struct {
	lru *expirable.LRU[domain.RetrievalKey, []domain.Candidate]
}

func NewRetrievalCache(size int, ttl time.Duration) *RetrievalCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RetrievalCache{
		lru: expirable.NewLRU[domain.RetrievalKey, []domain.Candidate](size, nil, ttl),
	}
}

func (c *RetrievalCache) Get(key domain.RetrievalKey) ([]domain.Candidate, bool) {
	results, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	// Callers never mutate candidates after fusion, but hand out a copy of
	// the slice header area so appends cannot alias the cached entry.
	out := make([]domain.Candidate, len(results))
	copy(out, results)
	return out, true
}

func (c *RetrievalCache) Set(key domain.RetrievalKey, results []domain.Candidate) {
	stored := make([]domain.Candidate, len(results))
	copy(stored, results)
	c.lru.Add(key, stored)
}
