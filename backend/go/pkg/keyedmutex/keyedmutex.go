// Package keyedmutex provides mutual exclusion scoped to a string key.
// The memory service uses it to serialize read-modify-write cycles per
// (user, entity), which closes the lost-update race between concurrent
// messages touching the same category.
package keyedmutex

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex hands out one mutex per key. Entries are reference counted
// and removed once the last holder unlocks, so the key space can grow
// without leaking memory.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// New creates a KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that is not held
// panics, matching sync.Mutex semantics.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keyedmutex: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
