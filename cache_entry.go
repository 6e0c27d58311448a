package cache

// cacheEntry is the pending expiration of a single key.
type cacheEntry struct {
	handle   TimerHandle
	onExpire []func()
}
