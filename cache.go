package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/smallnest/safemap"
	"golang.org/x/exp/maps"
)

// ErrInvalidConfiguration is returned by New when the cache cannot be created.
var ErrInvalidConfiguration = errors.New("invalid configuration")

type Cache[K comparable, V any] interface {
	// Returns the value of key and restarts its expiration timer.
	//
	// Returns false when key is not in cache, nothing happens in that case.
	Get(key K) (V, bool)

	// Stores value under key and (re)starts its expiration timer.
	//
	// The onExpire callbacks run once, in order, when the entry expires.
	// They replace any callbacks bound by a previous Set of the same key and
	// never run when the entry is deleted or overwritten.
	Set(key K, value V, onExpire ...func())

	// Removes key without running its callbacks.
	//
	// Returns false when key is not in cache.
	Delete(key K) bool

	// Restarts the expiration timer of key without reading the value.
	//
	// Returns false when key is not in cache.
	Touch(key K) bool

	// Reports whether key is in cache, without restarting its timer.
	Has(key K) bool

	// Number of entries in cache.
	Count() int

	// Keys of all entries, in no particular order.
	Keys() []K

	// Values of all entries, in no particular order.
	Values() []V

	// Calls fn for every entry. Does not restart any timer.
	ForEach(fn func(K, V))

	// Copy of all entries.
	ToMap() map[K]V

	// Time an entry stays in cache after its last Set, Get or Touch.
	Duration() time.Duration

	// Removes all entries without running any callback.
	Clear()

	// Clears the cache and stops the scheduler owned by it.
	Close()
}

type timedCache[K comparable, V any] struct {
	duration  time.Duration
	data      *safemap.SafeMap[K, V]
	timers    *csmap.CsMap[K, *cacheEntry]
	mu        keyedMutex[K]
	scheduler Scheduler
	stop      func()
	onExpired func(K, V)
	logger    *slog.Logger
}

// New creates a cache in which every entry expires duration after it was last
// set or read.
//
// Returns an error wrapping ErrInvalidConfiguration when duration is not positive.
func New[K comparable, V any](
	duration time.Duration,
	options ...Option[K, V],
) (Cache[K, V], error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidConfiguration, duration)
	}

	c := &timedCache[K, V]{
		duration: duration,
		data:     safemap.New[K, V](),
		timers:   csmap.Create[K, *cacheEntry](),
	}

	for _, option := range options {
		option(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.scheduler == nil {
		s := NewScheduler()
		c.scheduler = s
		c.stop = s.Stop
	}

	return c, nil
}

func (c *timedCache[K, V]) Get(key K) (V, bool) {
	unlock := c.mu.lock(key)
	defer unlock()

	value, found := c.data.Get(key)
	if !found {
		return value, false
	}

	c.refresh(key, nil, false)

	return value, true
}

func (c *timedCache[K, V]) Set(key K, value V, onExpire ...func()) {
	unlock := c.mu.lock(key)
	defer unlock()

	c.data.Set(key, value)
	c.refresh(key, onExpire, true)
}

func (c *timedCache[K, V]) Delete(key K) bool {
	unlock := c.mu.lock(key)
	defer unlock()

	if !c.data.Has(key) {
		return false
	}

	c.data.Remove(key)
	if entry, found := c.timers.Load(key); found {
		c.scheduler.Cancel(entry.handle)
		c.timers.Delete(key)
	}

	return true
}

func (c *timedCache[K, V]) Touch(key K) bool {
	unlock := c.mu.lock(key)
	defer unlock()

	if !c.data.Has(key) {
		return false
	}

	c.refresh(key, nil, false)

	return true
}

func (c *timedCache[K, V]) Has(key K) bool {
	return c.data.Has(key)
}

func (c *timedCache[K, V]) Count() int {
	return c.data.Count()
}

func (c *timedCache[K, V]) Keys() []K {
	return c.data.Keys()
}

func (c *timedCache[K, V]) Values() []V {
	return maps.Values(c.data.Items())
}

func (c *timedCache[K, V]) ForEach(fn func(K, V)) {
	for key, value := range c.data.Items() {
		fn(key, value)
	}
}

func (c *timedCache[K, V]) ToMap() map[K]V {
	return c.data.Items()
}

func (c *timedCache[K, V]) Duration() time.Duration {
	return c.duration
}

func (c *timedCache[K, V]) Clear() {
	for _, key := range c.data.Keys() {
		c.Delete(key)
	}
}

func (c *timedCache[K, V]) Close() {
	c.Clear()
	if c.stop != nil {
		c.stop()
	}
}

// refresh replaces the pending expiration of key with one that fires after
// the full duration. Callbacks of the previous expiration are kept unless
// rebind is set. The caller must hold the lock of key.
func (c *timedCache[K, V]) refresh(key K, onExpire []func(), rebind bool) {
	if current, found := c.timers.Load(key); found {
		c.scheduler.Cancel(current.handle)
		if !rebind {
			onExpire = current.onExpire
		}
	}

	entry := &cacheEntry{onExpire: onExpire}
	entry.handle = c.scheduler.ScheduleAfter(c.duration, func() {
		c.expire(key, entry)
	})

	c.timers.Store(key, entry)
}

func (c *timedCache[K, V]) expire(key K, entry *cacheEntry) {
	unlock := c.mu.lock(key)

	// a Get, Set or Delete may have won the race against this firing
	current, found := c.timers.Load(key)
	if !found || current != entry {
		unlock()
		return
	}

	value, _ := c.data.Get(key)
	c.data.Remove(key)
	c.timers.Delete(key)

	unlock()

	c.logger.Debug("cache entry expired", "key", key)

	if c.onExpired != nil {
		c.call(key, func() { c.onExpired(key, value) })
	}
	for _, fn := range entry.onExpire {
		c.call(key, fn)
	}
}

func (c *timedCache[K, V]) call(key K, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("expiration callback panicked", "key", key, "panic", r)
		}
	}()
	fn()
}
