package interp

import (
	"fmt"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

// runLines is the direction-propagating sequencer used inside control
// constructs (if/loop/for/do-undo/try/mutex): each statement's own
// returned direction carries forward into the next one, and a mono
// variable still in scope when that direction flips is a DirectionChange.
// Function bodies deliberately do NOT use this: see runFunction.
func runLines(lines []ast.Statement, s *scope.Scope, backwards bool) (bool, error) {
	i := 0
	if backwards {
		i = len(lines) - 1
	}
	for i >= 0 && i < len(lines) {
		newBackwards, err := ExecStatement(lines[i], s, backwards)
		if err != nil {
			return backwards, err
		}
		if newBackwards != backwards && len(s.Monos()) > 0 {
			return backwards, railerr.New(railerr.DirectionChange,
				fmt.Sprintf("Direction of time changes with mono variable %q in scope", anyMonoName(s)), s)
		}
		backwards = newBackwards
		if backwards {
			i--
		} else {
			i++
		}
	}
	return backwards, nil
}

func anyMonoName(s *scope.Scope) string {
	for k := range s.Monos() {
		return k
	}
	return ""
}

// ---------------------------------------------------------------------- If

func execIf(stmt *ast.If, s *scope.Scope, backwards bool) (bool, error) {
	if backwards && !stmt.ModReverse {
		return backwards, nil
	}
	enterExpr := stmt.EnterExpr
	if backwards {
		enterExpr = stmt.ExitExpr
	}
	enterCell, err := EvalExpr(enterExpr, s)
	if err != nil {
		return backwards, err
	}
	enterResult := truthy(enterCell)
	lines := stmt.Lines
	if !enterResult {
		lines = stmt.ElseLines
	}
	newBackwards, err := runLines(lines, s, backwards)
	if err != nil {
		return newBackwards, err
	}
	if !stmt.Mono {
		exitExpr := stmt.ExitExpr
		if newBackwards {
			exitExpr = stmt.EnterExpr
		}
		exitCell, err := EvalExpr(exitExpr, s)
		if err != nil {
			return newBackwards, err
		}
		if truthy(exitCell) != enterResult {
			return newBackwards, railerr.New(railerr.FailedAssertion,
				"The exit assertion in an if statement gave a different result to the entrance condition", s)
		}
	}
	return newBackwards, nil
}

// -------------------------------------------------------------------- Loop

func execLoop(stmt *ast.Loop, s *scope.Scope, backwards bool) (bool, error) {
	if backwards && !stmt.ModReverse {
		return backwards, nil
	}
	condition, assertion := stmt.ForwardCondition, stmt.BackwardCondition
	if backwards {
		condition, assertion = stmt.BackwardCondition, stmt.ForwardCondition
	}
	if !stmt.Mono {
		aCell, err := EvalExpr(assertion, s)
		if err != nil {
			return backwards, err
		}
		if truthy(aCell) {
			return backwards, railerr.New(railerr.FailedAssertion,
				"Loop reverse condition is true before loop start", s)
		}
	}
	for {
		cCell, err := EvalExpr(condition, s)
		if err != nil {
			return backwards, err
		}
		if !truthy(cCell) {
			break
		}
		backwards, err = runLines(stmt.Lines, s, backwards)
		if err != nil {
			return backwards, err
		}
		if backwards {
			condition, assertion = stmt.BackwardCondition, stmt.ForwardCondition
		} else {
			condition, assertion = stmt.ForwardCondition, stmt.BackwardCondition
		}
		if !stmt.Mono {
			aCell, err := EvalExpr(assertion, s)
			if err != nil {
				return backwards, err
			}
			if !truthy(aCell) {
				return backwards, railerr.New(railerr.FailedAssertion,
					"Foward loop condition holds when reverse condition does not", s)
			}
		}
	}
	return backwards, nil
}

// --------------------------------------------------------------------- For

// iteratorElements evaluates a for/try iterator, taking the lazy-range fast
// path for a literal ArrayRange so huge ranges needn't be materialised.
func iteratorElements(iter ast.Expression, s *scope.Scope) (elements []*value.Cell, length int, lazy *value.LazyRange, err error) {
	if ar, ok := iter.(*ast.ArrayRange); ok {
		lr, rerr := lazyEvalRange(ar, s)
		if rerr != nil {
			return nil, 0, nil, rerr
		}
		return nil, lr.Len(), lr, nil
	}
	c, cerr := EvalExpr(iter, s)
	if cerr != nil {
		return nil, 0, nil, cerr
	}
	if !c.IsArray() {
		return nil, 0, nil, railerr.New(railerr.TypeError,
			fmt.Sprintf("For loop must iterate over array, recieved number %s", c.Scalar()), s)
	}
	return c.Elements(), len(c.Elements()), nil, nil
}

func wrapIfScalar(c *value.Cell) *value.Cell {
	if c.IsArray() {
		return c
	}
	return value.NewArrayCell([]*value.Cell{c})
}

func execFor(stmt *ast.For, s *scope.Scope, backwards bool) (bool, error) {
	elements, length, lazy, err := iteratorElements(stmt.Iterator, s)
	if err != nil {
		return backwards, err
	}
	name := stmt.Lookup.Name
	i := 0
	if backwards {
		i = length - 1
	}
	for i >= 0 && i < length {
		var orig *value.Cell
		if lazy != nil {
			orig = value.NewScalarCell(lazy.At(i))
		} else {
			orig = elements[i]
		}
		elemCopy := orig.DeepCopy()
		v := &value.Variable{
			Memory:     wrapIfScalar(elemCopy),
			IsMono:     stmt.Lookup.MonoName,
			IsBorrowed: true,
			IsArray:    elemCopy.IsArray(),
		}
		if err := s.Assign(name, v); err != nil {
			return backwards, err
		}
		backwards, err = runLines(stmt.Lines, s, backwards)
		if err != nil {
			return backwards, err
		}
		if !elemCopy.StructurallyEqual(orig) {
			if elemCopy.IsArray() {
				return backwards, railerr.New(railerr.ValueError,
					fmt.Sprintf("For loop variable %q has a different value to the corresponding iterator element after the code block has run", name), s)
			}
			return backwards, railerr.New(railerr.ValueError,
				fmt.Sprintf("For loop variable %q has value %s after an iteration, but the iterator array has corresponding value %s", name, elemCopy.Scalar(), orig.Scalar()), s)
		}
		if _, err := s.Remove(name); err != nil {
			return backwards, err
		}
		if backwards {
			i--
		} else {
			i++
		}
	}
	return backwards, nil
}

// ------------------------------------------------------------------ DoUndo

func execDoUndo(stmt *ast.DoUndo, s *scope.Scope, backwards bool) (bool, error) {
	doBackwards, err := runLines(stmt.DoLines, s, false)
	if err != nil {
		return backwards, err
	}
	if doBackwards {
		return true, nil
	}
	if backwards && len(s.Monos()) > 0 {
		return backwards, railerr.New(railerr.DirectionChange,
			fmt.Sprintf("Changing direction of time at the end of a do block whilst mono-directional variable %q is in scope", anyMonoName(s)), s)
	}
	yieldBackwards, err := runLines(stmt.YieldLines, s, backwards)
	if err != nil {
		return backwards, err
	}
	if yieldBackwards != backwards {
		if _, err := runLines(stmt.DoLines, s, true); err != nil {
			return backwards, err
		}
		return true, nil
	}
	if !backwards && len(s.Monos()) > 0 {
		return backwards, railerr.New(railerr.DirectionChange,
			fmt.Sprintf("Changing direction of time using an undo block whilst mono-directional variable %q is in scope", anyMonoName(s)), s)
	}
	if _, err := runLines(stmt.DoLines, s, true); err != nil {
		return backwards, err
	}
	return backwards, nil
}

// --------------------------------------------------------------- Try/Catch

func execTry(stmt *ast.Try, s *scope.Scope, backwards bool) (bool, error) {
	elements, length, lazy, err := iteratorElements(stmt.Iterator, s)
	if err != nil {
		return backwards, err
	}
	name := stmt.Lookup.Name

	var exitValue *value.Cell
	if backwards {
		exitValue, err = EvalExpr(stmt.Lookup, s)
		if err != nil {
			return backwards, err
		}
		if _, err := runLines(stmt.Lines, s, backwards); err != nil {
			return backwards, err
		}
		if _, err := s.Remove(name); err != nil {
			return backwards, err
		}
	}

	for i := 0; i < length; i++ {
		var orig *value.Cell
		if lazy != nil {
			orig = value.NewScalarCell(lazy.At(i))
		} else {
			orig = elements[i]
		}
		isArray := orig.IsArray()
		mem := orig
		if !isArray {
			mem = value.NewArrayCell([]*value.Cell{orig})
		}
		v := &value.Variable{Memory: mem, IsArray: isArray}
		if err := s.Assign(name, v); err != nil {
			return backwards, err
		}
		caught, err := runLines(stmt.Lines, s, false)
		if err != nil {
			return backwards, err
		}
		if caught {
			if backwards && orig.StructurallyEqual(exitValue) {
				return backwards, railerr.New(railerr.TryReverseError,
					fmt.Sprintf("Reverse Try block catches the value it should pass: %s", stringify(exitValue)), s)
			}
			if _, err := s.Remove(name); err != nil {
				return backwards, err
			}
			continue
		}
		if backwards {
			if !orig.StructurallyEqual(exitValue) {
				return backwards, railerr.New(railerr.TryReverseError,
					fmt.Sprintf("Try block passes the wrong value: %s", stringify(orig)), s)
			}
			if _, err := runLines(stmt.Lines, s, backwards); err != nil {
				return backwards, err
			}
			if _, err := s.Remove(name); err != nil {
				return backwards, err
			}
		}
		return backwards, nil
	}
	return backwards, railerr.New(railerr.ExhaustedTry,
		fmt.Sprintf("No value of %q was uncaught", name), s)
}

func execCatch(stmt *ast.Catch, s *scope.Scope, backwards bool) (bool, error) {
	if backwards {
		return backwards, nil
	}
	c, err := EvalExpr(stmt.Expr, s)
	if err != nil {
		return backwards, err
	}
	return truthy(c), nil
}
