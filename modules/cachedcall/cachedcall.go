// Package cachedcall memoises the results of API calls in a CacheRepository.
//
// A result is stored under a key derived from the operation name and its
// arguments, together with the time it was produced and its TTL. A stored
// result is never returned once its TTL has elapsed, and failed calls are
// never stored.
package cachedcall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/sWski/plugin.audio.play.cz/common"
)

// Common TTLs.
const (
	DefaultTTL = 1440 * time.Minute
	TTLWeek    = 7 * 24 * time.Hour
)

const defaultNamespace = "playcz"

// Caller holds the store and settings shared by every cached call.
type Caller struct {
	store     common.CacheRepository
	namespace string
	now       func() time.Time
	logger    *log.Logger
	group     singleflight.Group
}

// Option configures a Caller.
type Option func(*Caller)

// WithNamespace prefixes every key, so several callers can share one store.
func WithNamespace(ns string) Option {
	return func(c *Caller) { c.namespace = ns }
}

// WithClock replaces time.Now when stamping and checking entries.
func WithClock(now func() time.Time) Option {
	return func(c *Caller) { c.now = now }
}

// WithLogger sets the logger used for hit/miss diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(c *Caller) { c.logger = logger }
}

// New returns a Caller backed by store.
func New(store common.CacheRepository, opts ...Option) *Caller {
	c := &Caller{
		store:     store,
		namespace: defaultNamespace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// entry is the envelope stored for each result.
type entry struct {
	CreatedAt time.Time       `json:"created_at"`
	TTL       time.Duration   `json:"ttl"`
	Value     json.RawMessage `json:"value"`
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.CreatedAt.Add(e.TTL))
}

// Key derives the cache key for name called with args. It depends only on
// its inputs and the order of args, so it is stable across processes.
func Key(name string, args ...any) string {
	if args == nil {
		args = []any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		// not JSON-representable; fall back to Go syntax
		return fmt.Sprintf("%s:%#v", name, args)
	}
	return name + ":" + string(encoded)
}

func (c *Caller) key(name string, args ...any) string {
	return c.namespace + ":" + Key(name, args...)
}

// Call returns the cached result of fn for (name, args), invoking fn on a miss
// or after expiry. A ttl <= 0 selects DefaultTTL. Errors from fn are returned
// as-is and nothing is stored. Concurrent calls for the same key share one
// invocation of fn.
func Call[T any](ctx context.Context, c *Caller, name string, fn func(context.Context) (T, error), ttl time.Duration, args ...any) (T, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := c.key(name, args...)

	if v, ok := lookup[T](c, key); ok {
		return v, nil
	}

	// the flight outlives any single caller; each caller waits on its own ctx
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// a flight that finished just before this one may have filled the entry
		if v, ok := lookup[T](c, key); ok {
			return v, nil
		}
		c.logger.Debug("Cache miss", "key", key)
		v, err := fn(flightCtx)
		if err != nil {
			return nil, err
		}
		c.save(key, v, ttl)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.logger.Debug("Cached call failed", "key", key, "shared", res.Shared, "error", res.Err)
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// Invalidate drops the stored result for (name, args), if any.
func (c *Caller) Invalidate(name string, args ...any) {
	c.store.Delete(c.key(name, args...))
}

func lookup[T any](c *Caller, key string) (T, bool) {
	var zero T
	raw, found := c.store.Get(key)
	if !found {
		return zero, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("Ignoring unreadable cache entry", "key", key, "error", err)
		return zero, false
	}
	if e.expired(c.now()) {
		c.logger.Debug("Cache entry expired", "key", key, "created", e.CreatedAt, "ttl", e.TTL)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(e.Value, &v); err != nil {
		c.logger.Warn("Ignoring cache entry of unexpected shape", "key", key, "error", err)
		return zero, false
	}
	c.logger.Debug("Cache hit", "key", key)
	return v, true
}

func (c *Caller) save(key string, v any, ttl time.Duration) {
	value, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Result not cacheable", "key", key, "error", err)
		return
	}
	raw, err := json.Marshal(entry{CreatedAt: c.now(), TTL: ttl, Value: value})
	if err != nil {
		c.logger.Warn("Result not cacheable", "key", key, "error", err)
		return
	}
	c.store.Set(key, raw, ttl)
}
