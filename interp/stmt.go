package interp

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

// Stdout is where print/println write; swappable in tests.
var Stdout io.Writer = os.Stdout

// ExecStatement is the central statement dispatcher: a tree-walker's
// type-switch Exec in place of the original's per-node eval method. It
// returns the direction of time after the statement has run, mirroring
// every node's `eval(scope, backwards) -> backwards` contract.
func ExecStatement(stmt ast.Statement, s *scope.Scope, backwards bool) (bool, error) {
	switch st := stmt.(type) {
	case *ast.Let:
		return backwards, letExec(st, s, backwards)
	case *ast.Unlet:
		return backwards, unletExec(st, s, backwards)
	case *ast.Global:
		return backwards, execGlobal(st, s)
	case *ast.Modop:
		return backwards, execModop(st, s, backwards)
	case *ast.Swap:
		return backwards, execSwap(st, s)
	case *ast.Push:
		return backwards, execPush(st, s, backwards)
	case *ast.Pop:
		return backwards, execPop(st, s, backwards)
	case *ast.Promote:
		return backwards, execPromote(st, s, backwards)
	case *ast.Print:
		if !backwards {
			return backwards, execPrint(st.Args, s, false)
		}
		return backwards, nil
	case *ast.PrintLn:
		if !backwards {
			return backwards, execPrint(st.Args, s, true)
		}
		return backwards, nil
	case *ast.Barrier:
		return backwards, s.WaitBarrier(st.Name)
	case *ast.Mutex:
		return execMutex(st, s, backwards)
	case *ast.If:
		return execIf(st, s, backwards)
	case *ast.Loop:
		return execLoop(st, s, backwards)
	case *ast.For:
		return execFor(st, s, backwards)
	case *ast.DoUndo:
		return execDoUndo(st, s, backwards)
	case *ast.Try:
		return execTry(st, s, backwards)
	case *ast.Catch:
		return execCatch(st, s, backwards)
	case *ast.CallChain:
		return execCallChain(st, s, backwards)
	}
	return backwards, fmt.Errorf("interp: unhandled statement type %T", stmt)
}

// -------------------------------------------------------------- Let/Unlet

func letExec(stmt *ast.Let, s *scope.Scope, backwards bool) error {
	if backwards {
		if stmt.Mono {
			return nil
		}
		return unletEval(stmt.Lookup, stmt.RHS, true, s)
	}
	return letEval(stmt.Lookup, stmt.RHS, s)
}

func unletExec(stmt *ast.Unlet, s *scope.Scope, backwards bool) error {
	if backwards {
		if stmt.Mono {
			return nil
		}
		return letEval(stmt.Lookup, stmt.RHS, s)
	}
	return unletEval(stmt.Lookup, stmt.RHS, !stmt.Mono, s)
}

func letEval(lookup *ast.Lookup, rhs ast.Expression, s *scope.Scope) error {
	c, err := EvalExpr(rhs, s)
	if err != nil {
		return err
	}
	var mem *value.Cell
	if c.IsArray() {
		if isUnowned(rhs) {
			mem = c
		} else {
			mem = c.DeepCopy()
		}
	} else {
		mem = value.NewArrayCell([]*value.Cell{c})
	}
	v := &value.Variable{Memory: mem, IsArray: c.IsArray(), IsMono: lookup.MonoName}
	return s.Assign(lookup.Name, v)
}

func unletEval(lookup *ast.Lookup, rhs ast.Expression, checkValue bool, s *scope.Scope) error {
	v, err := s.LookupLocal(lookup.Name)
	if err != nil {
		return err
	}
	if v.IsBorrowed {
		return railerr.New(railerr.ReferenceOwnership,
			fmt.Sprintf("Unletting borrowed reference %q", lookup.Name), s)
	}
	if checkValue {
		c, err := EvalExpr(rhs, s)
		if err != nil {
			return err
		}
		if v.IsArray != c.IsArray() {
			return railerr.New(railerr.TypeError,
				fmt.Sprintf("Trying to unlet %s %q using %s", typeWord(v.IsArray), lookup.Name, typeWord(!v.IsArray)), s)
		}
		var mem *value.Cell
		if c.IsArray() {
			mem = c
		} else {
			mem = value.NewArrayCell([]*value.Cell{c})
		}
		if !v.Memory.StructurallyEqual(mem) {
			return railerr.New(railerr.ValueError,
				fmt.Sprintf("Variable %q does not match RHS during uninitialisation", lookup.Name), s)
		}
	}
	_, err = s.Remove(lookup.Name)
	return err
}

func typeWord(isArray bool) string {
	if isArray {
		return "array"
	}
	return "number"
}

// ------------------------------------------------------------------ Global

func execGlobal(stmt *ast.Global, s *scope.Scope) error {
	c, err := EvalExpr(stmt.RHS, s)
	if err != nil {
		return err
	}
	var mem *value.Cell
	if c.IsArray() {
		if isUnowned(stmt.RHS) {
			mem = c
		} else {
			mem = c.DeepCopy()
		}
	} else {
		mem = value.NewArrayCell([]*value.Cell{c})
	}
	v := &value.Variable{Memory: mem, IsArray: c.IsArray()}
	return s.AssignGlobal(stmt.Lookup.Name, v)
}

// ------------------------------------------------------------------- Modop

func execModop(stmt *ast.Modop, s *scope.Scope, backwards bool) error {
	if backwards && stmt.Mono {
		return nil
	}
	op := stmt.Op
	if backwards {
		op = stmt.InverseOp
	}
	lhsCell, err := EvalExpr(stmt.Lookup, s)
	if err != nil {
		return err
	}
	rhsCell, err := EvalExpr(stmt.Expr, s)
	if err != nil {
		return err
	}
	if lhsCell.IsArray() || rhsCell.IsArray() {
		return railerr.New(railerr.ValueError,
			fmt.Sprintf("Modification operation %q does not support arrays", stmt.Name), s)
	}
	result, err := applyModop(op, lhsCell.Scalar(), rhsCell.Scalar(), stmt.Name, stmt.Lookup.Name, s)
	if err != nil {
		return err
	}
	return setLookupScalar(stmt.Lookup, result, s)
}

func setLookupScalar(lk *ast.Lookup, val value.Rational, s *scope.Scope) error {
	v, err := s.Lookup(lk.Name)
	if err != nil {
		return err
	}
	if !v.IsArray {
		if len(lk.Index) > 0 {
			return railerr.New(railerr.IndexError,
				fmt.Sprintf("Indexing into %s which is a number", lk.Name), s)
		}
		v.SetScalar(val)
		return nil
	}
	if len(lk.Index) == 0 {
		return railerr.New(railerr.TypeError,
			fmt.Sprintf("Trying to modify array %q with a number", lk.Name), s)
	}
	cur := v.Memory
	indices := make([]int, 0, len(lk.Index))
	for n, idxExpr := range lk.Index {
		idx, err := evalIndex(idxExpr, s, lk.Name)
		if err != nil {
			return err
		}
		indices = append(indices, idx)
		if !cur.IsArray() {
			return railerr.New(railerr.IndexError,
				"Indexing into number during lookup "+lookupIndexRepr(lk.Name, indices), s)
		}
		wrapped, ok := wrapIndex(idx, len(cur.Elements()))
		if !ok {
			return railerr.New(railerr.IndexError,
				"Out of bounds error accessing "+lookupIndexRepr(lk.Name, indices), s)
		}
		if n == len(lk.Index)-1 {
			target := cur.Elements()[wrapped]
			if target.IsArray() {
				return railerr.New(railerr.TypeError,
					fmt.Sprintf("Trying to modify array %q with a number", lookupIndexRepr(lk.Name, indices)), s)
			}
			target.SetScalar(val)
			return nil
		}
		cur = cur.Elements()[wrapped]
	}
	return nil
}

// -------------------------------------------------------------------- Swap

func execSwap(stmt *ast.Swap, s *scope.Scope) error {
	lhsMem, lhsIdx, err := swapTarget(stmt.LHS, stmt.LHSIndex, stmt.RHS.Name, s)
	if err != nil {
		return err
	}
	rhsMem, rhsIdx, err := swapTarget(stmt.RHS, stmt.RHSIndex, stmt.LHS.Name, s)
	if err != nil {
		return err
	}
	lhsMem.Elements()[lhsIdx], rhsMem.Elements()[rhsIdx] = rhsMem.Elements()[rhsIdx], lhsMem.Elements()[lhsIdx]
	return nil
}

func swapTarget(lk *ast.Lookup, finalIdx ast.Expression, otherName string, s *scope.Scope) (*value.Cell, int, error) {
	if finalIdx == nil {
		v, err := s.Lookup(lk.Name)
		if err != nil {
			return nil, 0, err
		}
		return v.Memory, 0, nil
	}
	mem, err := evalLookup(lk, s)
	if err != nil {
		return nil, 0, err
	}
	if !mem.IsArray() {
		return nil, 0, railerr.New(railerr.TypeError,
			fmt.Sprintf("Indexing into Fraction in %q during swap with %q", lk.Name, otherName), s)
	}
	idxCell, err := EvalExpr(finalIdx, s)
	if err != nil {
		return nil, 0, err
	}
	if idxCell.IsArray() {
		return nil, 0, railerr.New(railerr.TypeError,
			fmt.Sprintf("Using array as index during swap of %q and %q", lk.Name, otherName), s)
	}
	idx := int(idxCell.Scalar().Int64())
	wrapped, ok := wrapIndex(idx, len(mem.Elements()))
	if !ok {
		return nil, 0, railerr.New(railerr.IndexError,
			fmt.Sprintf("Out of bounds access %q[?][%d]", lk.Name, idx), s)
	}
	return mem, wrapped, nil
}

// --------------------------------------------------------------- Push/Pop

func execPush(stmt *ast.Push, s *scope.Scope, backwards bool) error {
	if backwards {
		if stmt.Mono {
			return nil
		}
		return popEval(stmt.Dst, stmt.Src, s)
	}
	return pushEval(stmt.Src, stmt.Dst, s)
}

func execPop(stmt *ast.Pop, s *scope.Scope, backwards bool) error {
	if backwards {
		if stmt.Mono {
			return nil
		}
		return pushEval(stmt.Dst, stmt.Src, s)
	}
	return popEval(stmt.Src, stmt.Dst, s)
}

func pushEval(srcLookup, dstLookup *ast.Lookup, s *scope.Scope) error {
	dstVar, err := s.Lookup(dstLookup.Name)
	if err != nil {
		return err
	}
	srcVar, err := s.Lookup(srcLookup.Name)
	if err != nil {
		return err
	}
	dstMem, err := evalLookup(dstLookup, s)
	if err != nil {
		return err
	}
	srcMem, err := evalLookup(srcLookup, s)
	if err != nil {
		return err
	}
	if !dstVar.IsArray {
		return railerr.New(railerr.TypeError,
			fmt.Sprintf("PUSHing onto %q which is a number, not an array", dstLookup.Name), s)
	}
	if !dstMem.IsArray() {
		return railerr.New(railerr.TypeError,
			fmt.Sprintf("Pushing onto a loction in %q which is a number, not an array", dstLookup.Name), s)
	}
	if srcVar.IsBorrowed {
		return railerr.New(railerr.ReferenceOwnership,
			fmt.Sprintf("Pushing borrowed reference %q", srcLookup.Name), s)
	}
	dstMem.SetElements(append(dstMem.Elements(), srcMem))
	_, err = s.Remove(srcLookup.Name)
	return err
}

func popEval(srcLookup, dstLookup *ast.Lookup, s *scope.Scope) error {
	srcVar, err := s.Lookup(srcLookup.Name)
	if err != nil {
		return err
	}
	if !srcVar.IsArray {
		return railerr.New(railerr.TypeError,
			fmt.Sprintf("Trying to pop from %q which is a number, not an array", srcLookup.Name), s)
	}
	srcMem, err := evalLookup(srcLookup, s)
	if err != nil {
		return err
	}
	elems := srcMem.Elements()
	if len(elems) == 0 {
		return railerr.New(railerr.IndexError,
			fmt.Sprintf("Popping from empty array %q (or an element therein)", srcLookup.Name), s)
	}
	popped := elems[len(elems)-1]
	srcMem.SetElements(elems[:len(elems)-1])
	var mem *value.Cell
	if popped.IsArray() {
		mem = popped
	} else {
		mem = value.NewArrayCell([]*value.Cell{popped})
	}
	v := &value.Variable{Memory: mem, IsArray: popped.IsArray(), IsMono: dstLookup.MonoName}
	return s.Assign(dstLookup.Name, v)
}

// ------------------------------------------------------------------ Promote

func execPromote(stmt *ast.Promote, s *scope.Scope, backwards bool) error {
	if backwards {
		v, err := s.Lookup(stmt.DstName)
		if err != nil {
			return err
		}
		if v.IsBorrowed {
			return railerr.New(railerr.ReferenceOwnership,
				fmt.Sprintf("Unpromoting a borrowed reference to %q", stmt.DstName), s)
		}
		_, err = s.Remove(stmt.DstName)
		return err
	}
	v, err := s.LookupLocal(stmt.SrcName)
	if err != nil {
		return err
	}
	if v.IsBorrowed {
		return railerr.New(railerr.ReferenceOwnership,
			fmt.Sprintf("Promoting borrowed reference to %q", stmt.SrcName), s)
	}
	if _, err := s.Remove(stmt.SrcName); err != nil {
		return err
	}
	v.IsMono = false
	return s.Assign(stmt.DstName, v)
}

// -------------------------------------------------------------------- Print

func execPrint(args []ast.PrintArg, s *scope.Scope, newline bool) error {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Expr != nil {
			c, err := EvalExpr(a.Expr, s)
			if err != nil {
				return err
			}
			parts[i] = stringify(c)
		} else {
			parts[i] = a.Literal
		}
	}
	text := strings.Join(parts, " ")
	if newline {
		fmt.Fprintln(Stdout, text)
	} else {
		fmt.Fprint(Stdout, text)
	}
	return nil
}

// ------------------------------------------------------------------- Mutex

func execMutex(stmt *ast.Mutex, s *scope.Scope, backwards bool) (bool, error) {
	ticket, err := s.AcquireMutex(stmt.Name, backwards)
	if err != nil {
		return backwards, err
	}
	// No cleanup-on-error here: a failure inside the critical section
	// propagates without releasing the mutex, matching the reference
	// interpreter's lack of a try/finally around it.
	newBackwards, err := runLines(stmt.Lines, s, backwards)
	if err != nil {
		return newBackwards, err
	}
	if err := s.ReleaseMutex(ticket); err != nil {
		return newBackwards, err
	}
	return newBackwards, nil
}
