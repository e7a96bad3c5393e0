package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCache(t *testing.T) {
	cache := NewTokenCache(time.Minute)

	_, ok := cache.Get("gho_secret")
	assert.False(t, ok)

	cache.Set("gho_secret", "octocat")
	identity, ok := cache.Get("gho_secret")
	assert.True(t, ok)
	assert.Equal(t, "octocat", identity)
}

func TestTokenCacheExpiry(t *testing.T) {
	cache := NewTokenCache(-time.Second)
	cache.Set("gho_secret", "octocat")

	_, ok := cache.Get("gho_secret")
	assert.False(t, ok, "expired entries must not be served")

	// An expired entry is evicted on read.
	_, loaded := cache.cache.Load("gho_secret")
	assert.False(t, loaded)
}
