package cache

import "log/slog"

type Option[K comparable, V any] func(c *timedCache[K, V])

// Schedules expirations on s instead of on a scheduler owned by the cache.
//
// The cache does not stop s on Close.
func WithScheduler[K comparable, V any](s Scheduler) Option[K, V] {
	return func(c *timedCache[K, V]) {
		c.scheduler = s
	}
}

// Function that gets executed for every expired entry, before the callback
// that was passed to Set.
func WithOnExpired[K comparable, V any](onExpired func(K, V)) Option[K, V] {
	return func(c *timedCache[K, V]) {
		c.onExpired = onExpired
	}
}

func WithLogger[K comparable, V any](logger *slog.Logger) Option[K, V] {
	return func(c *timedCache[K, V]) {
		c.logger = logger
	}
}
