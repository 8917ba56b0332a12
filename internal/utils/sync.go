package utils

import (
	"sync"
)

// OptionalMutex is a sync.Mutex that can be switched off at construction time. Heaps are
// single-threaded unless asked otherwise, in which case one OptionalMutex guards all of
// their state.
type OptionalMutex struct {
	Mutex    sync.Mutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}
