// Package scope implements the interpreter's stack-frame/name-resolution
// model and the parallel-call thread manager, built on a map-backed
// lookup chain generalized to a three-table (locals/monos/globals)
// shape.
package scope

import (
	"fmt"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/value"
)

// Scope is one stack frame. Lookup consults monos, then locals, then
// globals.
type Scope struct {
	parent    *Scope
	name      string
	functions map[string]*ast.Function
	locals    map[string]*value.Variable
	monos     map[string]*value.Variable
	globals   map[string]*value.Variable
	threadNum int64
	manager   *ThreadManager
}

// NewRoot builds the outermost scope a Module runs in: no parent, no
// thread manager, thread number -1.
func NewRoot(name string) *Scope {
	return &Scope{
		name:      name,
		functions: make(map[string]*ast.Function),
		locals:    make(map[string]*value.Variable),
		monos:     make(map[string]*value.Variable),
		globals:   make(map[string]*value.Variable),
		threadNum: -1,
	}
}

// NewCall builds a callee scope: fresh locals/monos, the caller's function
// table and globals shared by reference, same thread number and manager
// as the caller.
func (s *Scope) NewCall(name string) *Scope {
	return &Scope{
		parent:    s,
		name:      name,
		functions: s.functions,
		globals:   s.globals,
		locals:    make(map[string]*value.Variable),
		monos:     make(map[string]*value.Variable),
		threadNum: s.threadNum,
		manager:   s.manager,
	}
}

// NewParallelCall builds one worker's callee scope for a parallel call
// site: its own thread number and a freshly-created ThreadManager shared
// by every sibling worker.
func (s *Scope) NewParallelCall(name string, threadNum int64, manager *ThreadManager) *Scope {
	return &Scope{
		parent:    s,
		name:      name,
		functions: s.functions,
		globals:   s.globals,
		locals:    make(map[string]*value.Variable),
		monos:     make(map[string]*value.Variable),
		threadNum: threadNum,
		manager:   manager,
	}
}

// NewImportScope builds the isolated scope an imported module's global
// lines run in before its globals/functions are merged into the
// importer.
func (s *Scope) NewImportScope(name string) *Scope {
	return &Scope{
		parent:    s,
		name:      name,
		functions: make(map[string]*ast.Function),
		locals:    make(map[string]*value.Variable),
		monos:     make(map[string]*value.Variable),
		globals:   make(map[string]*value.Variable),
		threadNum: s.threadNum,
		manager:   s.manager,
	}
}

// railerr.ScopeInfo implementation, used to build error call stacks.

func (s *Scope) FrameName() string      { return s.name }
func (s *Scope) FrameThreadNum() int64  { return s.threadNum }
func (s *Scope) Parent() railerr.ScopeInfo {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *Scope) Name() string                    { return s.name }
func (s *Scope) ThreadNum() int64                { return s.threadNum }
func (s *Scope) ThreadManager() *ThreadManager    { return s.manager }
func (s *Scope) Locals() map[string]*value.Variable  { return s.locals }
func (s *Scope) Monos() map[string]*value.Variable   { return s.monos }
func (s *Scope) Globals() map[string]*value.Variable { return s.globals }
func (s *Scope) Functions() map[string]*ast.Function { return s.functions }

// Lookup resolves name against monos, then locals, then globals.
func (s *Scope) Lookup(name string) (*value.Variable, error) {
	return s.lookup(name, true, true, true)
}

// LookupLocal resolves name against monos and locals only, used when a
// caller must confirm a variable is local to this frame (e.g. a
// function's return-value check).
func (s *Scope) LookupLocal(name string) (*value.Variable, error) {
	return s.lookup(name, true, false, true)
}

func (s *Scope) lookup(name string, locals, globals, monos bool) (*value.Variable, error) {
	if monos {
		if v, ok := s.monos[name]; ok {
			return v, nil
		}
	}
	if locals {
		if v, ok := s.locals[name]; ok {
			return v, nil
		}
	}
	if globals {
		if v, ok := s.globals[name]; ok {
			return v, nil
		}
	}
	msg := fmt.Sprintf(`Variable "%s" is undefined`, name)
	if !globals {
		msg = fmt.Sprintf(`Local variable "%s" is undefined`, name)
	}
	return nil, railerr.New(railerr.UndefinedVariable, msg, s)
}

// Assign writes to monos iff the variable is mono (overwriting silently),
// else to locals, where a name collision raises NameClash.
func (s *Scope) Assign(name string, v *value.Variable) error {
	if v.IsMono {
		s.monos[name] = v
		return nil
	}
	if _, exists := s.locals[name]; exists {
		return railerr.New(railerr.NameClash, fmt.Sprintf(`Variable "%s" already exists`, name), s)
	}
	s.locals[name] = v
	return nil
}

// Remove deletes and returns a local binding by name.
func (s *Scope) Remove(name string) (*value.Variable, error) {
	if v, ok := s.monos[name]; ok {
		delete(s.monos, name)
		return v, nil
	}
	if v, ok := s.locals[name]; ok {
		delete(s.locals, name)
		return v, nil
	}
	return nil, railerr.New(railerr.UndefinedVariable,
		fmt.Sprintf(`Local variable "%s" does not exist`, name), s)
}

// LookupFunc resolves a function by name against this frame's function
// table.
func (s *Scope) LookupFunc(name string) (*ast.Function, error) {
	fn, ok := s.functions[name]
	if !ok {
		return nil, railerr.New(railerr.UndefinedFunction,
			fmt.Sprintf(`Function "%s" does not exist`, name), s)
	}
	return fn, nil
}

// AssignFunc registers a function, used when a module's root scope is
// built and while merging an import.
func (s *Scope) AssignFunc(name string, fn *ast.Function) error {
	if _, exists := s.functions[name]; exists {
		return railerr.New(railerr.NameClash,
			fmt.Sprintf(`Function "%s" already exists in scope "%s"`, name, s.name), s)
	}
	s.functions[name] = fn
	return nil
}

// AssignGlobal registers a module-level global, used by Global statements
// and import merging.
func (s *Scope) AssignGlobal(name string, v *value.Variable) error {
	if _, exists := s.globals[name]; exists {
		return railerr.New(railerr.NameClash,
			fmt.Sprintf(`Global "%s" already exists in scope "%s"`, name, s.name), s)
	}
	s.globals[name] = v
	return nil
}

// WaitBarrier blocks until every worker sharing this scope's thread
// manager reaches the same named barrier, or returns SympatheticError if
// a peer has panicked.
func (s *Scope) WaitBarrier(name string) error {
	if s.manager == nil {
		return nil
	}
	if err := s.manager.barrier(name).wait(); err != nil {
		return railerr.New(railerr.SympatheticError, "", s)
	}
	return nil
}

// MutexTicket is the handle AcquireMutex hands back for the matching
// ReleaseMutex call: the turn token this thread is waiting on, the turn
// token to hand off to next, and the mutex instance itself.
type MutexTicket struct {
	mutex            *MutexInstance
	myTurn, nextTurn *event
}

// AcquireMutex waits for this thread's turn in the named direction-aware
// mutex. Outside a parallel scope it is a no-op.
func (s *Scope) AcquireMutex(name string, backward bool) (*MutexTicket, error) {
	if s.manager == nil {
		return nil, nil
	}
	myTurn, nextTurn, mutex, err := s.manager.acquireMutexSlot(name, backward, s.threadNum, s)
	if err != nil {
		return nil, err
	}
	myTurn.wait()
	if s.manager.Panicked() {
		return nil, railerr.New(railerr.SympatheticError, "", s)
	}
	return &MutexTicket{mutex: mutex, myTurn: myTurn, nextTurn: nextTurn}, nil
}

// ReleaseMutex hands the turn to the next thread in the locked direction,
// or unlocks the mutex's direction if this was the last thread out.
func (s *Scope) ReleaseMutex(ticket *MutexTicket) error {
	if ticket == nil {
		return nil
	}
	if s.manager.Panicked() {
		return railerr.New(railerr.SympatheticError, "", s)
	}
	if ticket.myTurn != nil {
		ticket.myTurn.clear()
	}
	if ticket.nextTurn != nil {
		ticket.nextTurn.set()
	} else {
		ticket.mutex.unlockDirection()
	}
	return nil
}
