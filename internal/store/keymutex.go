package store

import "sync"

// KeyMutex serializes all mutating operations on a single session code.
// The store's read-modify-write is not atomic on its own; every caller that
// mutates a record must hold the code's lock around get+mutate+save.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: map[string]*keyLock{}}
}

// Lock acquires the mutex for key and returns the matching unlock func.
// Lock entries are dropped once the last holder releases, so the map does
// not grow with the number of codes ever seen.
func (k *KeyMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
