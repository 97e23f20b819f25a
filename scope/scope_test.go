package scope

import (
	"sync"
	"testing"
	"time"

	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/value"
)

func TestLookupOrderMonosLocalsGlobals(t *testing.T) {
	s := NewRoot("main")
	_ = s.AssignGlobal("x", value.NewScalar(value.NewRational(1)))
	_ = s.Assign("x", value.NewScalar(value.NewRational(2))) // local shadows global
	v, err := s.Lookup("x")
	if err != nil || v.Scalar().Int64() != 2 {
		t.Fatalf("expected local to shadow global, got %v err %v", v, err)
	}

	mono := value.NewScalar(value.NewRational(3))
	mono.IsMono = true
	_ = s.Assign("x", mono) // mono overwrites silently, doesn't collide with local
	v, err = s.Lookup("x")
	if err != nil || v.Scalar().Int64() != 3 {
		t.Fatalf("expected mono to shadow local, got %v err %v", v, err)
	}
}

func TestAssignLocalNameClash(t *testing.T) {
	s := NewRoot("main")
	_ = s.Assign("x", value.NewScalar(value.NewRational(1)))
	err := s.Assign("x", value.NewScalar(value.NewRational(2)))
	if !railerr.Is(err, railerr.NameClash) {
		t.Fatalf("expected NameClash, got %v", err)
	}
}

func TestMonoAssignSilentlyOverwrites(t *testing.T) {
	s := NewRoot("main")
	a := value.NewScalar(value.NewRational(1))
	a.IsMono = true
	b := value.NewScalar(value.NewRational(2))
	b.IsMono = true
	if err := s.Assign("m", a); err != nil {
		t.Fatal(err)
	}
	if err := s.Assign("m", b); err != nil {
		t.Fatalf("mono re-assign should not error, got %v", err)
	}
	v, _ := s.Lookup("m")
	if v.Scalar().Int64() != 2 {
		t.Fatalf("expected overwritten mono value 2, got %v", v.Scalar())
	}
}

func TestUndefinedVariable(t *testing.T) {
	s := NewRoot("main")
	_, err := s.Lookup("nope")
	if !railerr.Is(err, railerr.UndefinedVariable) {
		t.Fatalf("expected UndefinedVariable, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	s := NewRoot("main")
	_ = s.Assign("x", value.NewScalar(value.NewRational(5)))
	v, err := s.Remove("x")
	if err != nil || v.Scalar().Int64() != 5 {
		t.Fatalf("unexpected remove result %v %v", v, err)
	}
	if _, err := s.Remove("x"); !railerr.Is(err, railerr.UndefinedVariable) {
		t.Fatalf("expected UndefinedVariable on double remove, got %v", err)
	}
}

func TestScopeInfoParentChainTerminates(t *testing.T) {
	root := NewRoot("main")
	call := root.NewCall("f")
	var frames int
	for si := railerr.ScopeInfo(call); si != nil; si = si.Parent() {
		frames++
		if frames > 10 {
			t.Fatal("Parent() chain failed to terminate")
		}
	}
	if frames != 2 {
		t.Fatalf("expected 2 frames, got %d", frames)
	}
}

func TestBarrierRendezvous(t *testing.T) {
	const n = 4
	mgr := NewThreadManager(n)
	root := NewRoot("main")
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			worker := root.NewParallelCall("w", int64(i), mgr)
			errs[i] = worker.WaitBarrier("bar")
		}(i)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("barrier rendezvous deadlocked")
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
}

func TestBarrierAbortOnPanic(t *testing.T) {
	const n = 3
	mgr := NewThreadManager(n)
	root := NewRoot("main")
	var wg sync.WaitGroup
	errs := make([]error, n-1)
	for i := 0; i < n-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			worker := root.NewParallelCall("w", int64(i), mgr)
			errs[i] = worker.WaitBarrier("bar")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	mgr.Panic()
	wg.Wait()
	for i, err := range errs {
		if !railerr.Is(err, railerr.SympatheticError) {
			t.Fatalf("worker %d: expected SympatheticError, got %v", i, err)
		}
	}
}

func TestMutexDirectionLockAndCounterFlow(t *testing.T) {
	const n = 3
	mgr := NewThreadManager(n)
	root := NewRoot("main")
	w0 := root.NewParallelCall("w", 0, mgr)
	if _, err := w0.AcquireMutex("m", false); err != nil {
		t.Fatalf("first entry should lock forward direction: %v", err)
	}
	w1 := root.NewParallelCall("w", 1, mgr)
	if _, err := w1.AcquireMutex("m", true); !railerr.Is(err, railerr.MutexError) {
		t.Fatalf("expected MutexError on counter flow, got %v", err)
	}
}

func TestMutexForwardHandoffOrder(t *testing.T) {
	const n = 3
	mgr := NewThreadManager(n)
	root := NewRoot("main")

	order := make(chan int64, n)
	var wg sync.WaitGroup
	for i := int64(0); i < n; i++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			w := root.NewParallelCall("w", i, mgr)
			ticket, err := w.AcquireMutex("crit", false)
			if err != nil {
				t.Errorf("thread %d acquire: %v", i, err)
				return
			}
			order <- i
			if err := w.ReleaseMutex(ticket); err != nil {
				t.Errorf("thread %d release: %v", i, err)
			}
		}(i)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mutex handoff deadlocked")
	}
	close(order)
	var got []int64
	for v := range order {
		got = append(got, v)
	}
	for i, v := range got {
		if v != int64(i) {
			t.Fatalf("expected thread-index order 0..n-1, got %v", got)
		}
	}
}
