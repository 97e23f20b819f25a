package interp

import (
	"testing"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/value"
)

func TestEvalArithmetic(t *testing.T) {
	s := newScope()
	c, err := EvalExpr(binop("+", frac(2), binop("*", frac(3), frac(4))), s)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Scalar().Equal(scalarOf(14)) {
		t.Fatalf("got %s, want 14", c.Scalar())
	}
}

func TestEvalDivByZeroRejected(t *testing.T) {
	s := newScope()
	_, err := EvalExpr(binop("/", frac(1), frac(0)), s)
	if err == nil {
		t.Fatal("expected zero-division error")
	}
}

func TestEvalAndShortCircuits(t *testing.T) {
	s := newScope()
	// 0 & (1/0) must not evaluate the RHS.
	c, err := EvalExpr(binop("&", frac(0), binop("/", frac(1), frac(0))), s)
	if err != nil {
		t.Fatalf("short circuit should have skipped the RHS error: %v", err)
	}
	if c.Scalar().Bool() {
		t.Fatal("expected falsy result")
	}
}

func TestEvalOrShortCircuits(t *testing.T) {
	s := newScope()
	c, err := EvalExpr(binop("|", frac(1), binop("/", frac(1), frac(0))), s)
	if err != nil {
		t.Fatalf("short circuit should have skipped the RHS error: %v", err)
	}
	if !c.Scalar().Bool() {
		t.Fatal("expected truthy result")
	}
}

func TestEvalLookupScalarResultIsDetached(t *testing.T) {
	s := newScope()
	v := value.NewScalar(scalarOf(1))
	_ = s.Assign("x", v)
	c, err := EvalExpr(lk("x"), s)
	if err != nil {
		t.Fatal(err)
	}
	c.SetScalar(scalarOf(99))
	if v.Scalar().Equal(scalarOf(99)) {
		t.Fatal("mutating the evaluated scalar leaked back into the variable's storage")
	}
}

func TestEvalLookupNegativeIndex(t *testing.T) {
	s := newScope()
	v := value.NewArray([]*value.Cell{
		value.NewScalarCell(scalarOf(10)),
		value.NewScalarCell(scalarOf(20)),
		value.NewScalarCell(scalarOf(30)),
	})
	_ = s.Assign("xs", v)
	c, err := EvalExpr(lkIdx("xs", frac(-1)), s)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Scalar().Equal(scalarOf(30)) {
		t.Fatalf("xs[-1] = %s, want 30", c.Scalar())
	}
}

func TestEvalLookupOutOfBounds(t *testing.T) {
	s := newScope()
	v := value.NewArray([]*value.Cell{value.NewScalarCell(scalarOf(1))})
	_ = s.Assign("xs", v)
	_, err := EvalExpr(lkIdx("xs", frac(5)), s)
	if err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestEvalArrayLiteralAndLength(t *testing.T) {
	s := newScope()
	c, err := EvalExpr(arrLit(true, frac(1), frac(2), frac(3)), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Elements()) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(c.Elements()))
	}
	_ = s.Assign("xs", &value.Variable{Memory: c, IsArray: true})
	lenCell, err := EvalExpr(&ast.Length{Lookup: lk("xs")}, s)
	if err != nil {
		t.Fatal(err)
	}
	if !lenCell.Scalar().Equal(scalarOf(3)) {
		t.Fatalf("#xs = %s, want 3", lenCell.Scalar())
	}
}

func TestEvalArrayRangeAscendingAndDescending(t *testing.T) {
	s := newScope()
	asc, err := EvalExpr(&ast.ArrayRange{Start: frac(0), Stop: frac(5), Step: frac(1)}, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(asc.Elements()) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(asc.Elements()))
	}
	desc, err := EvalExpr(&ast.ArrayRange{Start: frac(5), Stop: frac(0), Step: frac(-1)}, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(desc.Elements()) != 5 || !desc.Elements()[0].Scalar().Equal(scalarOf(5)) {
		t.Fatalf("unexpected descending range: %v", desc.Elements())
	}
}

func TestEvalArrayTensor(t *testing.T) {
	s := newScope()
	dims := arrLit(true, frac(2), frac(3))
	c, err := EvalExpr(&ast.ArrayTensor{Fill: frac(0), Dims: dims}, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Elements()) != 2 || len(c.Elements()[0].Elements()) != 3 {
		t.Fatalf("expected a 2x3 tensor, got shape %v", c)
	}
	// Every leaf must be an independently-settable cell, not a shared one.
	c.Elements()[0].Elements()[0].SetScalar(scalarOf(1))
	if c.Elements()[0].Elements()[1].Scalar().Equal(scalarOf(1)) {
		t.Fatal("tensor fill leaves are aliased")
	}
}
