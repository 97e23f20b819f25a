package interp

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

// evalCallParallel runs one parallel (un)call: each of numThreads workers
// gets its own slice of the stolen arrays and its own thread number, and
// the results are re-stacked into arrays once every worker has joined.
// errgroup only fans the goroutines out; error selection is done by
// scanning per-thread results in thread order afterwards, exactly as the
// reference interpreter's `for thread, result in zip(threads, results)`
// loop does, rather than trusting whichever goroutine errgroup saw first.
func evalCallParallel(call *ast.CallBlock, backwards bool, variables []*value.Variable, s *scope.Scope) ([]*value.Variable, error) {
	fn, err := s.LookupFunc(call.Name)
	if err != nil {
		return nil, err
	}
	uncall := call.IsUncall != backwards
	params := fn.InParams
	if uncall {
		params = fn.OutParams
	}
	numThreads, err := evalNumThreadsArg(call.NumThreads, call.Name, s)
	if err != nil {
		return nil, err
	}
	splitVars, err := splitVariables(variables, params, numThreads, uncall, call, s)
	if err != nil {
		return nil, err
	}
	if len(call.BorrowedParams) != len(fn.BorrowedParams) {
		return nil, railerr.New(railerr.CallError,
			fmt.Sprintf("%s function %q with %d borrowed references when it expects %d",
				callVerb(uncall), call.Name, len(call.BorrowedParams), len(fn.BorrowedParams)), s)
	}

	manager := scope.NewThreadManager(numThreads)
	subscopes := make([]*scope.Scope, numThreads)
	for t := 0; t < numThreads; t++ {
		subscope := s.NewParallelCall(call.Name, int64(t), manager)
		for i, v := range splitVars[t] {
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
		subscopes[t] = subscope
	}

	results := make([][]*value.Variable, numThreads)
	errs := make([]error, numThreads)
	var g errgroup.Group
	for t := 0; t < numThreads; t++ {
		t := t
		g.Go(func() error {
			vars, err := runFunction(fn, subscopes[t], uncall)
			if err != nil {
				errs[t] = err
				manager.Panic()
				return nil
			}
			results[t] = vars
			return nil
		})
	}
	_ = g.Wait()

	for t := 0; t < numThreads; t++ {
		if errs[t] != nil && !railerr.Sympathetic(errs[t]) {
			return nil, errs[t]
		}
	}
	return stackResults(results), nil
}

// splitVariables distributes each stolen array variable's num_threads
// top-level elements one per worker, mirroring _split_variables.
func splitVariables(variables []*value.Variable, params []*ast.Parameter, numThreads int, isuncall bool, call *ast.CallBlock, s *scope.Scope) ([][]*value.Variable, error) {
	if len(variables) != len(params) {
		return nil, railerr.New(railerr.CallError,
			fmt.Sprintf("%s function %q with %d stolen references when it expects %d",
				callVerb(isuncall), call.Name, len(variables), len(params)), s)
	}
	for i, v := range variables {
		if len(v.Elements()) != numThreads {
			return nil, railerr.New(railerr.ValueError,
				fmt.Sprintf("Function %q called with %d threads, meaning all stolen references should be arrays of length %d. Input %d is length %d",
					call.Name, numThreads, numThreads, i+1, len(v.Elements())), s)
		}
	}
	output := make([][]*value.Variable, numThreads)
	for t := 0; t < numThreads; t++ {
		row := make([]*value.Variable, len(variables))
		for j, v := range variables {
			elem := v.Elements()[t]
			isArray := elem.IsArray()
			mem := elem
			if !isArray {
				mem = value.NewArrayCell([]*value.Cell{elem})
			}
			row[j] = &value.Variable{Memory: mem, IsMono: v.IsMono, IsArray: isArray}
		}
		output[t] = row
	}
	return output, nil
}

func evalNumThreadsArg(expr ast.Expression, name string, s *scope.Scope) (int, error) {
	c, err := EvalExpr(expr, s)
	if err != nil {
		return 0, err
	}
	if c.IsArray() {
		return 0, railerr.New(railerr.TypeError,
			fmt.Sprintf("Got an array in place of numthreads for call to %q", name), s)
	}
	n := int(c.Scalar().Int64())
	if n <= 0 {
		return 0, railerr.New(railerr.ValueError,
			fmt.Sprintf("Calling %q with %d threads", name, n), s)
	}
	return n, nil
}

// stackResults re-assembles each per-thread result list into one array
// variable per output position, mirroring the zip(*results) comprehension
// at the end of _eval_call_parallel.
func stackResults(results [][]*value.Variable) []*value.Variable {
	numOutputs := len(results[0])
	out := make([]*value.Variable, numOutputs)
	for j := 0; j < numOutputs; j++ {
		elems := make([]*value.Cell, len(results))
		for t, vars := range results {
			v := vars[j]
			if v.IsArray {
				elems[t] = v.Memory
			} else {
				elems[t] = v.Elements()[0]
			}
		}
		out[j] = &value.Variable{
			Memory:  value.NewArrayCell(elems),
			IsMono:  results[0][j].IsMono,
			IsArray: true,
		}
	}
	return out
}
