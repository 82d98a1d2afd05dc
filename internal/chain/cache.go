package chain

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mtlprog/lendstat/internal/domain"
)

// maxCachedReads bounds the cache; accounts come from request paths.
const maxCachedReads = 4096

// readCache keeps fully resolved market reads for a short time. A non-positive ttl disables it.
type readCache struct {
	lru *expirable.LRU[string, domain.MarketReads]
}

func newReadCache(ttl time.Duration, size int) *readCache {
	if ttl <= 0 || size <= 0 {
		return &readCache{}
	}
	return &readCache{lru: expirable.NewLRU[string, domain.MarketReads](size, nil, ttl)}
}

// cacheKey formats: "{account}@{market}", both lowercased.
func cacheKey(account, market string) string {
	return strings.ToLower(account) + "@" + strings.ToLower(market)
}

func (c *readCache) get(key string) (domain.MarketReads, bool) {
	if c.lru == nil {
		return domain.MarketReads{}, false
	}
	return c.lru.Get(key)
}

func (c *readCache) set(key string, reads domain.MarketReads) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, reads)
}

