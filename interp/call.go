package interp

import (
	"fmt"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

// execCallChain threads a sequence of (un)calls: each call's output
// variables become the next call's input variables, mirroring
// CallChain.eval. Parallel call blocks (num_threads set) dispatch through
// call_parallel.go instead of evalCall.
func execCallChain(stmt *ast.CallChain, s *scope.Scope, backwards bool) (bool, error) {
	if backwards && stmt.Mono {
		return backwards, nil
	}
	params := stmt.InParams
	if backwards {
		params = stmt.OutParams
	}
	variables := make([]*value.Variable, len(params))
	for i, p := range params {
		v, err := s.LookupLocal(p.Name)
		if err != nil {
			return backwards, err
		}
		if v.IsBorrowed {
			return backwards, railerr.New(railerr.ReferenceOwnership,
				fmt.Sprintf("Variable %q is a borrowed reference and so may not be stolen by function %q",
					p.Name, stmt.Calls[0].Name), s)
		}
		variables[i] = v
	}
	for _, p := range params {
		if _, err := s.Remove(p.Name); err != nil {
			return backwards, err
		}
	}

	calls := stmt.Calls
	var lastCall *ast.CallBlock
	run := func(call *ast.CallBlock) error {
		lastCall = call
		var err error
		if call.NumThreads == nil {
			variables, err = evalCall(call, backwards, variables, s)
		} else {
			variables, err = evalCallParallel(call, backwards, variables, s)
		}
		return err
	}
	if backwards {
		for i := len(calls) - 1; i >= 0; i-- {
			if err := run(calls[i]); err != nil {
				return backwards, err
			}
		}
	} else {
		for _, call := range calls {
			if err := run(call); err != nil {
				return backwards, err
			}
		}
	}

	outParams := stmt.OutParams
	if backwards {
		outParams = stmt.InParams
	}
	if len(outParams) != len(variables) {
		return backwards, railerr.New(railerr.LeakedInformation,
			fmt.Sprintf("Function %q returned %d variables but the result is assigned to %d variables",
				lastCall.Name, len(variables), len(outParams)), s)
	}
	for i, v := range variables {
		if err := checkMonoMatch(v, outParams[i].MonoName, lastCall.IsUncall != backwards, lastCall.Name, s); err != nil {
			return backwards, err
		}
		if err := s.Assign(outParams[i].Name, v); err != nil {
			return backwards, err
		}
	}
	return backwards, nil
}

func checkMonoMatch(v *value.Variable, paramMono bool, isUncall bool, fname string, s *scope.Scope) error {
	verb := "Calling"
	if isUncall {
		verb = "Uncalling"
	}
	if v.IsMono && !paramMono {
		return railerr.New(railerr.IllegalMono,
			fmt.Sprintf("%s function %q using mono argument for non-mono parameter", verb, fname), s)
	}
	if paramMono && !v.IsMono {
		return railerr.New(railerr.IllegalMono,
			fmt.Sprintf("%s function %q using non-mono argument for mono parameter", verb, fname), s)
	}
	return nil
}

// evalCall runs one serial (un)call: builds the callee's subscope, binds
// stolen and borrowed parameters, and runs the function body.
func evalCall(call *ast.CallBlock, backwards bool, variables []*value.Variable, s *scope.Scope) ([]*value.Variable, error) {
	fn, err := s.LookupFunc(call.Name)
	if err != nil {
		return nil, err
	}
	uncall := call.IsUncall != backwards
	params := fn.InParams
	if uncall {
		params = fn.OutParams
	}
	if len(variables) != len(params) {
		return nil, railerr.New(railerr.CallError,
			fmt.Sprintf("%s function %q with %d stolen references when it expects %d",
				callVerb(uncall), call.Name, len(variables), len(params)), s)
	}
	if len(call.BorrowedParams) != len(fn.BorrowedParams) {
		return nil, railerr.New(railerr.CallError,
			fmt.Sprintf("%s function %q with %d borrowed references when it expects %d",
				callVerb(uncall), call.Name, len(call.BorrowedParams), len(fn.BorrowedParams)), s)
	}
	subscope := s.NewCall(call.Name)
	for i, v := range variables {
		if err := checkMonoMatch(v, params[i].MonoName, uncall, call.Name, s); err != nil {
			return nil, err
		}
		if err := subscope.Assign(params[i].Name, v); err != nil {
			return nil, err
		}
	}
	for i, callParam := range call.BorrowedParams {
		funcParam := fn.BorrowedParams[i]
		v, err := s.Lookup(callParam.Name)
		if err != nil {
			return nil, err
		}
		if err := checkMonoMatch(v, funcParam.MonoName, uncall, call.Name, s); err != nil {
			return nil, err
		}
		if err := subscope.Assign(funcParam.Name, v.Borrow(v.IsMono)); err != nil {
			return nil, err
		}
	}
	return runFunction(fn, subscope, uncall)
}

func callVerb(uncall bool) string {
	if uncall {
		return "Uncalling"
	}
	return "Calling"
}

// runFunction executes a function body. Unlike the direction-propagating
// runLines used inside control-flow blocks, a function body always runs
// its lines in one fixed direction (forwards, or fully reversed) without
// threading each line's own returned direction into the next.
func runFunction(fn *ast.Function, s *scope.Scope, backwards bool) ([]*value.Variable, error) {
	lines := fn.Lines
	outNames := fn.OutNames()
	outParams := fn.OutParams
	if backwards {
		outNames = fn.InNames()
		outParams = fn.InParams
	}
	if backwards {
		for i := len(lines) - 1; i >= 0; i-- {
			if _, err := ExecStatement(lines[i], s, backwards); err != nil {
				return nil, err
			}
		}
	} else {
		for _, line := range lines {
			if _, err := ExecStatement(line, s, backwards); err != nil {
				return nil, err
			}
		}
	}
	for name := range s.Locals() {
		if !outNames[name] {
			return nil, railerr.New(railerr.LeakedInformation,
				fmt.Sprintf("Variable %q is still in scope of function %q at the end of a (un)call", name, fn.Name), s)
		}
	}
	results := make([]*value.Variable, len(outParams))
	for i, param := range outParams {
		v, err := s.LookupLocal(param.Name)
		if err != nil {
			return nil, err
		}
		if v.IsBorrowed {
			return nil, railerr.New(railerr.ReferenceOwnership,
				fmt.Sprintf("Function %q returns a borrowed reference to %q", fn.Name, param.Name), s)
		}
		results[i] = v
	}
	return results, nil
}
