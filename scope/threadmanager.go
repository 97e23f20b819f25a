package scope

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jndean/railway/railerr"
)

// ThreadManager is the per-parallel-call object holding every named
// barrier and mutex the call site's workers share, plus the sticky panic
// flag that aborts them all.
type ThreadManager struct {
	numThreads int
	mu         sync.Mutex
	barriers   map[string]*cyclicBarrier
	mutexes    map[string]*MutexInstance
	panicked   atomic.Bool
}

// NewThreadManager creates the manager for a parallel call over n threads.
func NewThreadManager(n int) *ThreadManager {
	return &ThreadManager{
		numThreads: n,
		barriers:   make(map[string]*cyclicBarrier),
		mutexes:    make(map[string]*MutexInstance),
	}
}

func (tm *ThreadManager) NumThreads() int { return tm.numThreads }

func (tm *ThreadManager) Panicked() bool { return tm.panicked.Load() }

func (tm *ThreadManager) barrier(name string) *cyclicBarrier {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	b, ok := tm.barriers[name]
	if !ok {
		b = newCyclicBarrier(tm.numThreads)
		tm.barriers[name] = b
	}
	return b
}

func (tm *ThreadManager) mutex(name string) *MutexInstance {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	m, ok := tm.mutexes[name]
	if !ok {
		m = newMutexInstance(tm.numThreads)
		tm.mutexes[name] = m
	}
	return m
}

// acquireMutexSlot implements the direction-locking, counter-flow-checked
// entry protocol: the first worker to enter a fresh mutex locks its
// direction; every subsequent worker (in either direction) must agree
// with the locked direction or raise MutexError.
func (tm *ThreadManager) acquireMutexSlot(name string, backward bool, threadNum int64, scopeInfo railerr.ScopeInfo) (*event, *event, *MutexInstance, error) {
	m := tm.mutex(name)
	m.mu.Lock()
	if m.direction == nil {
		m.direction = &backward
		if backward {
			m.turns[tm.numThreads-1].set()
		} else {
			m.turns[0].set()
		}
	} else if *m.direction != backward {
		m.mu.Unlock()
		dir := "forwards"
		if backward {
			dir = "backwards"
		}
		return nil, nil, nil, railerr.New(railerr.MutexError,
			fmt.Sprintf(`Thread %d entered mutex "%s" %s, counter flow`, threadNum, name, dir), scopeInfo)
	}
	m.mu.Unlock()

	myTurn := m.turns[threadNum]
	var nextTid int64
	if backward {
		nextTid = threadNum - 1
	} else {
		nextTid = threadNum + 1
	}
	var nextTurn *event
	if nextTid >= 0 && nextTid < int64(tm.numThreads) {
		nextTurn = m.turns[nextTid]
	}
	return myTurn, nextTurn, m, nil
}

// Panic aborts every barrier and releases every mutex turn, waking every
// blocked worker so it can observe the panic flag and unwind with a
// SympatheticError.
func (tm *ThreadManager) Panic() {
	tm.panicked.Store(true)
	tm.mu.Lock()
	barriers := make([]*cyclicBarrier, 0, len(tm.barriers))
	for _, b := range tm.barriers {
		barriers = append(barriers, b)
	}
	mutexes := make([]*MutexInstance, 0, len(tm.mutexes))
	for _, m := range tm.mutexes {
		mutexes = append(mutexes, m)
	}
	tm.mu.Unlock()
	for _, b := range barriers {
		b.abort()
	}
	for _, m := range mutexes {
		for _, turn := range m.turns {
			turn.set()
		}
	}
}
