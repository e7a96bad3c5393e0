package middleware

import (
	"sync"
	"time"

	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// TokenCache memoizes bearer-token identity lookups so every request does
// not cost a GitHub API round trip. Entries expire after a fixed TTL.
type TokenCache struct {
	cache sync.Map
	ttl   time.Duration
}

type cacheEntry struct {
	identity   string
	expiration time.Time
}

// NewTokenCache creates a cache with the given entry TTL.
func NewTokenCache(ttl time.Duration) *TokenCache {
	return &TokenCache{ttl: ttl}
}

// Get retrieves a cached identity for a token.
func (tc *TokenCache) Get(token string) (string, bool) {
	if value, ok := tc.cache.Load(token); ok {
		entry := value.(cacheEntry)
		if time.Now().Before(entry.expiration) {
			logger.Debug("token cache hit", "expires_in", time.Until(entry.expiration))
			return entry.identity, true
		}
		tc.cache.Delete(token)
	}
	return "", false
}

// Set stores a token's resolved identity.
func (tc *TokenCache) Set(token, identity string) {
	tc.cache.Store(token, cacheEntry{
		identity:   identity,
		expiration: time.Now().Add(tc.ttl),
	})
	logger.Debug("token cached", "identity", identity, "ttl", tc.ttl)
}
