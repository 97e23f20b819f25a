// Package railerr implements the interpreter's typed error taxonomy. Every
// failure in the interpreter core is fatal to the current function and
// carries a stack of (scope name, thread id) frames built at the raise
// site, walking each scope's parent chain the way a language runtime
// builds a traceback — reworked here as an idiomatic Go `error` rather
// than an exception class hierarchy.
package railerr

import (
	"fmt"
	"strings"
)

// Kind names one of the interpreter's failure categories.
type Kind string

const (
	LeakedInformation Kind = "LeakedInformation"
	UndefinedVariable  Kind = "UndefinedVariable"
	UndefinedFunction  Kind = "UndefinedFunction"
	NameClash          Kind = "NameClash"
	IndexError         Kind = "IndexError"
	TypeError          Kind = "TypeError"
	ValueError         Kind = "ValueError"
	FailedAssertion    Kind = "FailedAssertion"
	DirectionChange    Kind = "DirectionChange"
	ReferenceOwnership Kind = "ReferenceOwnership"
	ZeroError          Kind = "ZeroError"
	CallError          Kind = "CallError"
	IllegalMono        Kind = "IllegalMono"
	ExpectedMono       Kind = "ExpectedMono"
	ExhaustedTry       Kind = "ExhaustedTry"
	TryReverseError    Kind = "TryReverseError"
	ImportError        Kind = "ImportError"
	MutexError         Kind = "MutexError"
	SympatheticError   Kind = "SympatheticError"
)

// Frame names one stack level at the point an error was raised.
type Frame struct {
	Name       string
	ThreadNum  int64 // -1 outside a parallel call
	IsParallel bool
}

func (f Frame) String() string {
	if f.IsParallel {
		return fmt.Sprintf("%s (TID:%d)", f.Name, f.ThreadNum)
	}
	return f.Name
}

// ScopeInfo is the minimal view of a scope an Error needs to build its
// stack; package scope's Scope type satisfies it without railerr needing
// to import scope (which in turn needs to return railerr errors).
type ScopeInfo interface {
	FrameName() string
	FrameThreadNum() int64
	Parent() ScopeInfo
}

// Error is the single concrete error type every railway failure uses.
type Error struct {
	Kind    Kind
	Message string
	Stack   []Frame
}

func (e *Error) Error() string {
	var b strings.Builder
	if len(e.Stack) > 0 {
		b.WriteString("Error Call Stack:\n")
		for _, f := range e.Stack {
			fmt.Fprintf(&b, "-> %s\n", f)
		}
	}
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	return b.String()
}

// New builds an Error, walking scope.Parent() to accumulate the call
// stack exactly like the original's RailwayException constructor. scope
// may be nil for errors raised before any scope exists.
func New(kind Kind, message string, scope ScopeInfo) *Error {
	e := &Error{Kind: kind, Message: message}
	for s := scope; s != nil; s = s.Parent() {
		e.Stack = append(e.Stack, Frame{
			Name:       s.FrameName(),
			ThreadNum:  s.FrameThreadNum(),
			IsParallel: s.FrameThreadNum() != -1,
		})
	}
	return e
}

// Is reports whether err is a railerr.Error of the given kind, the
// idiomatic Go stand-in for `isinstance(e, RailwaySomeError)`.
func Is(err error, kind Kind) bool {
	re, ok := err.(*Error)
	return ok && re.Kind == kind
}

// Sympathetic reports whether err is the null-message sentinel a worker
// raises after observing a peer's panic; callers discard it at the
// surface rather than reporting it as the program's real failure.
func Sympathetic(err error) bool { return Is(err, SympatheticError) }
