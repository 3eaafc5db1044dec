package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration = 30 * time.Minute
	cleanupInterval   = 32 * time.Minute
)

// CacheRepository defines a minimal interface for a key/value cache.
// The values are stored as raw []byte, which callers marshal/unmarshal
// from JSON as needed. An expiration <= 0 stores the value without expiry.
type CacheRepository interface {
	Get(key string) (value []byte, found bool)
	Set(key string, value []byte, expiration time.Duration)
	Delete(key string)
}

var _ CacheRepository = (*cacheStore)(nil)

type cacheStore struct {
	cache *cache.Cache
}

// NewCacheStore returns an in-memory CacheRepository. Entries vanish with the process.
func NewCacheStore() CacheRepository {
	return &cacheStore{
		cache: cache.New(DefaultExpiration, cleanupInterval),
	}
}

func (c *cacheStore) Get(key string) ([]byte, bool) {
	value, found := c.cache.Get(key)
	if found {
		return value.([]byte), true
	}
	return nil, false
}

func (c *cacheStore) Delete(key string) {
	c.cache.Delete(key)
}

func (c *cacheStore) Set(key string, value []byte, expiration time.Duration) {
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	c.cache.Set(key, value, expiration)
}

// Clear drops every entry.
func (c *cacheStore) Clear() error {
	c.cache.Flush()
	return nil
}
