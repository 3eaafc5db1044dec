package common

import (
	"time"
)

// tieredStore keeps hot entries in memory in front of a persistent DiskStore.
type tieredStore struct {
	memory CacheRepository
	disk   *DiskStore
}

var _ CacheRepository = (*tieredStore)(nil)

// NewTieredStore layers memory over disk. Disk hits are copied into memory
// for the remainder of their lifetime.
func NewTieredStore(memory CacheRepository, disk *DiskStore) CacheRepository {
	return &tieredStore{memory: memory, disk: disk}
}

func (t *tieredStore) Get(key string) ([]byte, bool) {
	if value, found := t.memory.Get(key); found {
		return value, true
	}
	value, expiresAt, found := t.disk.GetWithExpiration(key)
	if !found {
		return nil, false
	}
	var remaining time.Duration
	if !expiresAt.IsZero() {
		remaining = time.Until(expiresAt)
		if remaining <= 0 {
			return nil, false
		}
	}
	t.memory.Set(key, value, remaining)
	return value, true
}

func (t *tieredStore) Set(key string, value []byte, expiration time.Duration) {
	t.memory.Set(key, value, expiration)
	t.disk.Set(key, value, expiration)
}

func (t *tieredStore) Delete(key string) {
	t.memory.Delete(key)
	t.disk.Delete(key)
}

// Clear empties both tiers.
func (t *tieredStore) Clear() error {
	if c, ok := t.memory.(interface{ Clear() error }); ok {
		if err := c.Clear(); err != nil {
			return err
		}
	}
	return t.disk.Clear()
}
