package services

import "sync"

// KeyLock serializes work per conversation key. Two webhook deliveries for
// the same patient otherwise race on read-state-then-append and can commit a
// stale state.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyLockEntry)}
}

// Lock acquires the per-key mutex and returns its unlock func.
func (kl *KeyLock) Lock(key string) func() {
	kl.mu.Lock()
	entry, ok := kl.locks[key]
	if !ok {
		entry = &keyLockEntry{}
		kl.locks[key] = entry
	}
	entry.refs++
	kl.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		kl.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(kl.locks, key)
		}
		kl.mu.Unlock()
	}
}
