// services/locks.go
package services

import "sync"

// lockMap hands out one mutex per key, so operations on different
// facilities (or tickets, or payments) proceed fully in parallel while
// operations on the same entity serialize.
type lockMap struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns its unlock function.
func (m *lockMap) lock(key string) func() {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*sync.Mutex)
	}
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
