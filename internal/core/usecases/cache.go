package usecases

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultCacheSize = 1024

// newLRU builds a per-service cache keyed by bounds. size <= 0 falls back to
// defaultCacheSize; ttl <= 0 keeps entries until evicted.
func newLRU[V any](size int, ttl time.Duration) *expirable.LRU[string, V] {
	if size <= 0 {
		size = defaultCacheSize
	}
	return expirable.NewLRU[string, V](size, nil, ttl)
}
