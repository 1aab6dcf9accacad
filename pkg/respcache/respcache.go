// Package respcache is a TTL-bounded in-memory cache for serialized
// analysis responses. The engine is deterministic, so a response is fully
// determined by its request body; entries are keyed by a SHA-256 of the
// raw body.
package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/maypok86/otter/v2"
)

type entry struct {
	expiresAt time.Time
	data      []byte
}

// Cache wraps an otter cache of serialized responses.
type Cache struct {
	cache  *otter.Cache[string, entry]
	logger *slog.Logger
	ttl    time.Duration
}

// New builds a memory-only cache holding up to 10k responses for ttl.
func New(ttl time.Duration, logger *slog.Logger) *Cache {
	cache := otter.Must(&otter.Options[string, entry]{
		MaximumSize:      10_000,
		InitialCapacity:  1_000,
		ExpiryCalculator: otter.ExpiryWriting[string, entry](ttl),
	})

	return &Cache{
		cache:  cache,
		logger: logger,
		ttl:    ttl,
	}
}

func key(endpoint string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for an endpoint and raw request body.
func (c *Cache) Get(endpoint string, body []byte) ([]byte, bool) {
	k := key(endpoint, body)

	e, found := c.cache.GetIfPresent(k)
	if !found {
		c.logger.Debug("cache miss", "endpoint", endpoint, "reason", "not_found")
		return nil, false
	}

	// Otter expires on write TTL, but double-check for safety.
	if time.Now().After(e.expiresAt) {
		c.logger.Debug("cache miss", "endpoint", endpoint, "reason", "expired")
		c.cache.Invalidate(k)
		return nil, false
	}

	return e.data, true
}

// Set stores a serialized response.
func (c *Cache) Set(endpoint string, body, data []byte) {
	c.cache.Set(key(endpoint, body), entry{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.logger.Debug("cache set", "endpoint", endpoint, "size", len(data))
}

// Len reports the estimated number of live entries.
func (c *Cache) Len() int {
	return int(c.cache.EstimatedSize())
}
