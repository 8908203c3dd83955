package usecase

import "sync"

// keyedMutex serializes mutation per key (account ID, product|branch
// pair). The backing store's per-statement durability gives no cross-
// statement isolation, so concurrent cascade recomputes on the same
// chain must be prevented in-process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key, creating it on first use.
func (km *keyedMutex) Lock(key string) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &keyLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the mutex for key, dropping it when unreferenced.
func (km *keyedMutex) Unlock(key string) {
	km.mu.Lock()
	l := km.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(km.locks, key)
	}
	km.mu.Unlock()

	l.mu.Unlock()
}

// LockAll acquires keys in sorted order to avoid lock-order inversion
// between callers locking overlapping sets.
func (km *keyedMutex) LockAll(keys []string) {
	for _, k := range keys {
		km.Lock(k)
	}
}

// UnlockAll releases keys in reverse order.
func (km *keyedMutex) UnlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		km.Unlock(keys[i])
	}
}
