package scope

import "sync"

// event is a level-triggered signal matching Python's threading.Event:
// set()/clear() are idempotent, and wait() blocks until the flag is set,
// woken by whichever goroutine last called set(). Go's stdlib has nothing
// equivalent to a re-settable broadcast flag (sync.Cond is the closest
// primitive), so this is built directly on sync.Cond the way
// gitrdm-gokando's internal/parallel package builds its own coordination
// types on top of sync.Mutex-guarded state.
type event struct {
	mu    sync.Mutex
	cond  *sync.Cond
	isSet bool
}

func newEvent() *event {
	e := &event{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *event) set() {
	e.mu.Lock()
	e.isSet = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *event) clear() {
	e.mu.Lock()
	e.isSet = false
	e.mu.Unlock()
}

func (e *event) wait() {
	e.mu.Lock()
	for !e.isSet {
		e.cond.Wait()
	}
	e.mu.Unlock()
}
