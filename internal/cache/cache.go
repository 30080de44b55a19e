// Package cache provides an in-memory, TTL-bound cache for read-mostly data.
package cache

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is the error returned when a key is not found in the cache.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache stores JSON-encoded values under "prefix:key". A nil *Cache or one
// built with a zero TTL stores nothing, so every read misses.
type Cache struct {
	store *cache.Cache
	ttl   time.Duration
	log   logrus.FieldLogger
}

// New creates a cache whose entries expire after ttl. ttl <= 0 disables it.
func New(ttl time.Duration, logger logrus.FieldLogger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Cache{ttl: ttl, log: logger.WithField("component", "cache")}
	if ttl > 0 {
		c.store = cache.New(ttl, 2*ttl)
	}
	return c
}

// Enabled reports whether values are retained
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// Set stores value under prefix and key
func (c *Cache) Set(prefix, key string, value any) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).WithField("key", fullKey(prefix, key)).Error("failed to marshal value for key")
		return err
	}
	c.store.Set(fullKey(prefix, key), data, cache.DefaultExpiration)
	return nil
}

// Get decodes the value under prefix and key into dest. It returns
// ErrCacheMiss when nothing usable is stored.
func (c *Cache) Get(prefix, key string, dest any) error {
	if !c.Enabled() {
		return ErrCacheMiss
	}
	val, found := c.store.Get(fullKey(prefix, key))
	if !found {
		return ErrCacheMiss
	}

	data, ok := val.([]byte)
	if !ok {
		c.log.WithField("key", fullKey(prefix, key)).Error("failed to assert type of cached value")
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.WithError(err).WithField("key", fullKey(prefix, key)).Error("failed to unmarshal cached value")
		return ErrCacheMiss
	}
	return nil
}

// Remember fills dest from the cache, or from load on a miss and stores the
// loaded value. Load errors are returned and nothing is cached.
func (c *Cache) Remember(prefix, key string, dest any, load func() (any, error)) error {
	if err := c.Get(prefix, key, dest); err == nil {
		return nil
	}

	value, err := load()
	if err != nil {
		return err
	}
	if err := c.Set(prefix, key, value); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// DeletePrefix drops every entry stored under prefix
func (c *Cache) DeletePrefix(prefix string) int {
	if !c.Enabled() {
		return 0
	}
	removed := 0
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix+":") {
			c.store.Delete(k)
			removed++
		}
	}
	return removed
}

func fullKey(prefix, key string) string {
	return prefix + ":" + key
}
