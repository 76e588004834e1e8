package utils

import (
	"sync"
	"time"
)

var (
	blacklistCache TagCache = NewMemoryTagCache()
	blacklistMu    sync.RWMutex
)

// SetBlacklistCache routes token revocation through the given cache so that
// logout survives process restarts when Redis is configured.
func SetBlacklistCache(c TagCache) {
	blacklistMu.Lock()
	blacklistCache = c
	blacklistMu.Unlock()
}

// BlacklistToken stores a token until its natural expiration to support logout semantics.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	blacklistMu.RLock()
	c := blacklistCache
	blacklistMu.RUnlock()
	c.Set("jwt:blacklist:"+token, []byte("1"), ttl)
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
func IsTokenBlacklisted(token string) bool {
	blacklistMu.RLock()
	c := blacklistCache
	blacklistMu.RUnlock()
	_, revoked := c.Get("jwt:blacklist:" + token)
	return revoked
}
