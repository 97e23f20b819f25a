package interp

import (
	"fmt"
	"strings"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

// EvalExpr is the central expression dispatcher, the tree-walker's
// type-switch Eval in place of the original's per-node eval method.
// Evaluating a scalar always yields a freshly detached *value.Cell (the
// underlying Rational is immutable, so this is cheap); evaluating an array
// may alias a variable's own storage, and callers that take ownership of
// the result must DeepCopy it unless the expression is marked Unowned.
func EvalExpr(expr ast.Expression, s *scope.Scope) (*value.Cell, error) {
	switch e := expr.(type) {
	case *ast.Fraction:
		return value.NewScalarCell(value.FromBigRat(e.Value)), nil
	case *ast.Lookup:
		return evalLookup(e, s)
	case *ast.Length:
		return evalLength(e, s)
	case *ast.Binop:
		return evalBinop(e, s)
	case *ast.Uniop:
		return evalUniop(e, s)
	case *ast.ArrayLiteral:
		return evalArrayLiteral(e, s)
	case *ast.ArrayRange:
		return evalArrayRange(e, s)
	case *ast.ArrayTensor:
		return evalArrayTensor(e, s)
	case *ast.ThreadID:
		return value.NewScalarCell(value.NewRational(s.ThreadNum())), nil
	case *ast.NumThreads:
		return evalNumThreads(s), nil
	}
	return nil, fmt.Errorf("interp: unhandled expression type %T", expr)
}

// isUnowned reports whether an expression synthesises fresh memory, so the
// statement that consumes its result (let/unlet/global) may skip the deep
// copy it would otherwise need before taking ownership.
func isUnowned(e ast.Expression) bool {
	switch v := e.(type) {
	case *ast.ArrayLiteral:
		return v.Unowned
	case *ast.ArrayRange:
		return v.Unowned
	case *ast.ArrayTensor:
		return v.Unowned
	}
	return false
}

func evalLookup(lk *ast.Lookup, s *scope.Scope) (*value.Cell, error) {
	v, err := s.Lookup(lk.Name)
	if err != nil {
		return nil, err
	}
	if !v.IsArray {
		if len(lk.Index) > 0 {
			return nil, railerr.New(railerr.IndexError,
				fmt.Sprintf("Indexing into %s which is a number", lk.Name), s)
		}
		return value.NewScalarCell(v.Scalar()), nil
	}
	cur := v.Memory
	indices := make([]int, 0, len(lk.Index))
	for _, idxExpr := range lk.Index {
		idx, err := evalIndex(idxExpr, s, lk.Name)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
		if !cur.IsArray() {
			return nil, railerr.New(railerr.IndexError,
				"Indexing into number during lookup "+lookupIndexRepr(lk.Name, indices), s)
		}
		wrapped, ok := wrapIndex(idx, len(cur.Elements()))
		if !ok {
			return nil, railerr.New(railerr.IndexError,
				"Out of bounds error accessing "+lookupIndexRepr(lk.Name, indices), s)
		}
		cur = cur.Elements()[wrapped]
	}
	if cur.IsArray() {
		return cur, nil
	}
	return value.NewScalarCell(cur.Scalar()), nil
}

func evalIndex(idxExpr ast.Expression, s *scope.Scope, name string) (int, error) {
	c, err := EvalExpr(idxExpr, s)
	if err != nil {
		return 0, err
	}
	if c.IsArray() {
		return 0, railerr.New(railerr.TypeError,
			fmt.Sprintf("Using array as index into %q", name), s)
	}
	return int(c.Scalar().Int64()), nil
}

func wrapIndex(i, length int) (int, bool) {
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

func lookupIndexRepr(name string, indices []int) string {
	var b strings.Builder
	b.WriteString(name)
	for _, i := range indices {
		fmt.Fprintf(&b, "[%d]", i)
	}
	return b.String()
}

func evalLength(l *ast.Length, s *scope.Scope) (*value.Cell, error) {
	c, err := evalLookup(l.Lookup, s)
	if err != nil {
		return nil, err
	}
	if !c.IsArray() {
		return nil, railerr.New(railerr.TypeError,
			fmt.Sprintf("Taking the length of non-array in %q", l.Lookup.Name), s)
	}
	return value.NewScalarCell(value.NewRational(int64(len(c.Elements())))), nil
}

func evalBinop(b *ast.Binop, s *scope.Scope) (*value.Cell, error) {
	switch b.Name {
	case "&":
		lhs, err := EvalExpr(b.Left, s)
		if err != nil {
			return nil, err
		}
		if lhs.IsArray() {
			return nil, binopArrayError(b.Name, s)
		}
		if !lhs.Scalar().Bool() {
			return value.NewScalarCell(value.NewRational(0)), nil
		}
		rhs, err := EvalExpr(b.Right, s)
		if err != nil {
			return nil, err
		}
		if rhs.IsArray() {
			return nil, binopArrayError(b.Name, s)
		}
		return value.NewScalarCell(value.BoolToRational(rhs.Scalar().Bool())), nil
	case "|":
		lhs, err := EvalExpr(b.Left, s)
		if err != nil {
			return nil, err
		}
		if lhs.IsArray() {
			return nil, binopArrayError(b.Name, s)
		}
		if lhs.Scalar().Bool() {
			return value.NewScalarCell(value.NewRational(1)), nil
		}
		rhs, err := EvalExpr(b.Right, s)
		if err != nil {
			return nil, err
		}
		if rhs.IsArray() {
			return nil, binopArrayError(b.Name, s)
		}
		return value.NewScalarCell(value.BoolToRational(rhs.Scalar().Bool())), nil
	default:
		lhs, err := EvalExpr(b.Left, s)
		if err != nil {
			return nil, err
		}
		rhs, err := EvalExpr(b.Right, s)
		if err != nil {
			return nil, err
		}
		if lhs.IsArray() || rhs.IsArray() {
			return nil, binopArrayError(b.Name, s)
		}
		r, err := applyBinop(b.Name, lhs.Scalar(), rhs.Scalar(), s)
		if err != nil {
			return nil, err
		}
		return value.NewScalarCell(r), nil
	}
}

func binopArrayError(name string, s *scope.Scope) error {
	return railerr.New(railerr.TypeError,
		fmt.Sprintf("Binary operation %s does not accept arrays", name), s)
}

func evalUniop(u *ast.Uniop, s *scope.Scope) (*value.Cell, error) {
	c, err := EvalExpr(u.Expr, s)
	if err != nil {
		return nil, err
	}
	if c.IsArray() {
		return nil, railerr.New(railerr.TypeError,
			fmt.Sprintf("Unary operation %s does not accept arrays", u.Name), s)
	}
	return value.NewScalarCell(applyUniop(u.Name, c.Scalar())), nil
}

func evalArrayLiteral(a *ast.ArrayLiteral, s *scope.Scope) (*value.Cell, error) {
	elems := make([]*value.Cell, len(a.Items))
	for i, it := range a.Items {
		c, err := EvalExpr(it, s)
		if err != nil {
			return nil, err
		}
		elems[i] = c
	}
	return value.NewArrayCell(elems), nil
}

func rangeOperands(a *ast.ArrayRange, s *scope.Scope) (start, stop, step value.Rational, err error) {
	startC, err := EvalExpr(a.Start, s)
	if err != nil {
		return
	}
	stepC, err := EvalExpr(a.Step, s)
	if err != nil {
		return
	}
	stopC, err := EvalExpr(a.Stop, s)
	if err != nil {
		return
	}
	if startC.IsArray() || stepC.IsArray() || stopC.IsArray() {
		err = railerr.New(railerr.ValueError, "An argument to an array range was a list", s)
		return
	}
	start, stop, step = startC.Scalar(), stopC.Scalar(), stepC.Scalar()
	if step.IsZero() {
		err = railerr.New(railerr.ValueError, "Step value for array range must be non-zero", s)
	}
	return
}

func evalArrayRange(a *ast.ArrayRange, s *scope.Scope) (*value.Cell, error) {
	start, stop, step, err := rangeOperands(a, s)
	if err != nil {
		return nil, err
	}
	var out []*value.Cell
	if step.Cmp(value.NewRational(0)) > 0 {
		for v := start; v.Cmp(stop) < 0; v = v.Add(step) {
			out = append(out, value.NewScalarCell(v))
		}
	} else {
		for v := start; v.Cmp(stop) > 0; v = v.Add(step) {
			out = append(out, value.NewScalarCell(v))
		}
	}
	return value.NewArrayCell(out), nil
}

// lazyEvalRange is the fast path For/Try take to avoid materialising a huge
// arithmetic range, mirroring _LazyRange.
func lazyEvalRange(a *ast.ArrayRange, s *scope.Scope) (*value.LazyRange, error) {
	start, stop, step, err := rangeOperands(a, s)
	if err != nil {
		return nil, err
	}
	// The element count is ceil((stop-start)/step), the number of values
	// evalArrayRange produces for the same operands.
	negCount, _ := start.Sub(stop).FloorDiv(step)
	n := -negCount.Int64()
	if n < 0 {
		n = 0
	}
	return value.NewLazyRange(start, step, int(n)), nil
}

func evalArrayTensor(a *ast.ArrayTensor, s *scope.Scope) (*value.Cell, error) {
	dimsCell, err := EvalExpr(a.Dims, s)
	if err != nil {
		return nil, err
	}
	if !dimsCell.IsArray() {
		return nil, railerr.New(railerr.IndexError, "Tensor dimensions should be an array, got a number", s)
	}
	rawDims := dimsCell.Elements()
	if len(rawDims) == 0 {
		return nil, railerr.New(railerr.IndexError, "Empty array given as tensor dimensions", s)
	}
	dims := make([]int, len(rawDims))
	for i, d := range rawDims {
		if d.IsArray() {
			return nil, railerr.New(railerr.IndexError, "Tensor dimensions should be an array of numbers only", s)
		}
		dims[i] = int(d.Scalar().Int64())
	}
	for _, d := range dims[:len(dims)-1] {
		if d == 0 {
			return nil, railerr.New(railerr.IndexError, "Only the final dimension of a tensor may be zero", s)
		}
	}
	for _, d := range dims {
		if d < 0 {
			return nil, railerr.New(railerr.IndexError, "Tensor dimensions must be non-negative", s)
		}
	}
	fill, err := EvalExpr(a.Fill, s)
	if err != nil {
		return nil, err
	}
	return buildTensor(dims, 0, fill), nil
}

func buildTensor(dims []int, depth int, fill *value.Cell) *value.Cell {
	if depth < len(dims)-1 {
		elems := make([]*value.Cell, dims[depth])
		for i := range elems {
			elems[i] = buildTensor(dims, depth+1, fill)
		}
		return value.NewArrayCell(elems)
	}
	elems := make([]*value.Cell, dims[len(dims)-1])
	if fill.IsArray() {
		for i := range elems {
			elems[i] = fill.DeepCopy()
		}
	} else {
		scalar := fill.Scalar()
		for i := range elems {
			elems[i] = value.NewScalarCell(scalar)
		}
	}
	return value.NewArrayCell(elems)
}

func evalNumThreads(s *scope.Scope) *value.Cell {
	if s.ThreadNum() == -1 {
		return value.NewScalarCell(value.NewRational(-1))
	}
	return value.NewScalarCell(value.NewRational(int64(s.ThreadManager().NumThreads())))
}
