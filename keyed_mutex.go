package cache

import "sync"

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key. A mutex lives for as long as
// somebody holds or waits for it.
type keyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*refMutex
}

func (m *keyedMutex[K]) lock(key K) func() {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[K]*refMutex)
	}
	rm, found := m.locks[key]
	if !found {
		rm = &refMutex{}
		m.locks[key] = rm
	}
	rm.refs++
	m.mu.Unlock()

	rm.Lock()

	return func() {
		rm.Unlock()

		m.mu.Lock()
		rm.refs--
		if rm.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}
