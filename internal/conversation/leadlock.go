package conversation

import "sync"

// leadLocker serializes message handling per lead so concurrent inbound
// texts from one customer cannot interleave slot reads and writes. Entries
// are refcounted and removed once the last holder unlocks.
type leadLocker struct {
	mu    sync.Mutex
	locks map[string]*leadLockEntry
}

type leadLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLeadLocker() *leadLocker {
	return &leadLocker{locks: make(map[string]*leadLockEntry)}
}

// Lock acquires the lock for the key and returns the matching unlock func.
func (l *leadLocker) Lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &leadLockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
