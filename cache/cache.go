// Package cache holds completed scan ids keyed by normalized target URL so
// a repeat request can reuse a recent report instead of re-scanning.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"sync"
	"time"
)

// entry holds a completed scan id with its creation timestamp.
type entry struct {
	scanID    string
	createdAt time.Time
}

// Cache is a simple in-memory report cache. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache with the given maximum number of entries. A background
// goroutine runs every 5 minutes to evict entries older than 1 hour.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}
	go c.cleanupLoop()
	return c
}

// Key normalizes a target URL (lowercased scheme and host, no fragment, no
// trailing slash) and hashes it with the profile.
func Key(target, profile string) string {
	normalized := target
	if u, err := url.Parse(target); err == nil {
		u.Fragment = ""
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		u.Path = strings.TrimRight(u.Path, "/")
		normalized = u.String()
	}

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte("|"))
	h.Write([]byte(profile))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached scan id if it exists and is younger than maxAge.
// maxAge is in milliseconds; if it is <= 0, no lookup is performed.
func (c *Cache) Get(key string, maxAgeMs int) (string, bool) {
	if maxAgeMs <= 0 {
		return "", false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if time.Since(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return "", false
	}
	return e.scanID, true
}

// Set records a completed scan for a key. If the cache is at capacity, a
// random entry is evicted to make room.
func (c *Cache) Set(key, scanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration is random in Go.
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{scanID: scanID, createdAt: time.Now()}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
