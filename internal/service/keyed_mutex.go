package service

import "sync"

// keyedMutex provides one mutex per key. Lock entries are reference-counted
// and removed once the last holder releases, so the table does not grow with
// the number of users ever seen.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()
}

// Unlock releases the mutex for key.
func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keyedMutex: unlock of unheld key " + key)
	}
	lock.refs--
	if lock.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	lock.mu.Unlock()
}
