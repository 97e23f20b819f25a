package scope

import "sync"

// MutexInstance is the runtime state of one named `mutex "N" ... xetum`
// block. The first worker to enter locks the mutex's direction; every
// worker must then enter in thread-index order (0..N-1 forward, reversed
// backward), giving forward execution followed by a full backward
// execution the same critical-section interleaving run in reverse.
type MutexInstance struct {
	mu        sync.Mutex
	turns     []*event
	direction *bool // nil until the first worker locks it
}

func newMutexInstance(numThreads int) *MutexInstance {
	turns := make([]*event, numThreads)
	for i := range turns {
		turns[i] = newEvent()
	}
	return &MutexInstance{turns: turns}
}

// unlockDirection clears the mutex's locked direction once the last
// worker in the current critical section has released it, so the mutex
// may later lock in either direction again.
func (m *MutexInstance) unlockDirection() {
	m.mu.Lock()
	m.direction = nil
	m.mu.Unlock()
}
