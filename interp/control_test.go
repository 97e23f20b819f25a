package interp

import (
	"testing"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/value"
)

func TestIfForwardAndBackward(t *testing.T) {
	s := newScope()
	_ = s.Assign("x", value.NewScalar(scalarOf(1)))
	cond := binop("==", lk("x"), frac(1))
	stmt := &ast.If{EnterExpr: cond, Lines: []ast.Statement{letStmt(lk("y"), frac(10))}, ExitExpr: cond}
	stmt.ModReverse = true

	if _, err := ExecStatement(stmt, s, false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Lookup("y"); err != nil {
		t.Fatalf("expected y to be set after if: %v", err)
	}
	if _, err := ExecStatement(stmt, s, true); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Lookup("y"); !railerr.Is(err, railerr.UndefinedVariable) {
		t.Fatal("expected y removed after reversing the if")
	}
}

func TestIfExitAssertionMismatch(t *testing.T) {
	s := newScope()
	_ = s.Assign("x", value.NewScalar(scalarOf(1)))
	stmt := &ast.If{
		EnterExpr: binop("==", lk("x"), frac(1)),
		Lines:     []ast.Statement{&ast.Modop{Lookup: lk("x"), Op: "+=", InverseOp: "-=", Expr: frac(1), Name: "MODADD"}},
		ExitExpr:  binop("==", lk("x"), frac(1)), // now false: x became 2
	}
	_, err := ExecStatement(stmt, s, false)
	if !railerr.Is(err, railerr.FailedAssertion) {
		t.Fatalf("expected FailedAssertion, got %v", err)
	}
}

func TestLoopCountsUpWithAssertion(t *testing.T) {
	s := newScope()
	_ = s.Assign("i", value.NewScalar(scalarOf(0)))
	stmt := &ast.Loop{
		ForwardCondition:  binop("<", lk("i"), frac(3)),
		BackwardCondition: binop(">", lk("i"), frac(0)),
		Lines:             []ast.Statement{&ast.Modop{Lookup: lk("i"), Op: "+=", InverseOp: "-=", Expr: frac(1), Name: "MODADD"}},
	}
	if _, err := ExecStatement(stmt, s, false); err != nil {
		t.Fatal(err)
	}
	i, _ := s.Lookup("i")
	if !i.Scalar().Equal(scalarOf(3)) {
		t.Fatalf("expected i == 3, got %s", i.Scalar())
	}
}

func TestForSumsArrayAndRemovesLoopVar(t *testing.T) {
	s := newScope()
	_ = s.Assign("xs", value.NewArray([]*value.Cell{
		value.NewScalarCell(scalarOf(1)), value.NewScalarCell(scalarOf(2)), value.NewScalarCell(scalarOf(3)),
	}))
	_ = s.Assign("total", value.NewScalar(scalarOf(0)))
	stmt := &ast.For{
		Lookup:   lk("e"),
		Iterator: lk("xs"),
		Lines: []ast.Statement{
			&ast.Modop{Lookup: lk("total"), Op: "+=", InverseOp: "-=", Expr: lk("e"), Name: "MODADD"},
		},
	}
	if _, err := ExecStatement(stmt, s, false); err != nil {
		t.Fatal(err)
	}
	total, _ := s.Lookup("total")
	if !total.Scalar().Equal(scalarOf(6)) {
		t.Fatalf("expected sum 6, got %s", total.Scalar())
	}
	if _, err := s.Lookup("e"); !railerr.Is(err, railerr.UndefinedVariable) {
		t.Fatal("expected loop variable removed once the for loop finishes")
	}
}

func TestForRejectsMutatedIteratorElement(t *testing.T) {
	s := newScope()
	_ = s.Assign("xs", value.NewArray([]*value.Cell{value.NewScalarCell(scalarOf(1))}))
	stmt := &ast.For{
		Lookup:   lk("e"),
		Iterator: lk("xs"),
		Lines: []ast.Statement{
			&ast.Modop{Lookup: lk("e"), Op: "+=", InverseOp: "-=", Expr: frac(1), Name: "MODADD"},
		},
	}
	_, err := ExecStatement(stmt, s, false)
	if !railerr.Is(err, railerr.ValueError) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestTryYieldsFirstUncaughtValue(t *testing.T) {
	s := newScope()
	stmt := &ast.Try{
		Lookup:   lk("v"),
		Iterator: arrLit(true, frac(1), frac(2), frac(3)),
		Lines: []ast.Statement{
			&ast.Catch{Expr: binop("==", lk("v"), frac(2))},
		},
	}
	if _, err := ExecStatement(stmt, s, false); err != nil {
		t.Fatal(err)
	}
	v, err := s.Lookup("v")
	if err != nil || !v.Scalar().Equal(scalarOf(1)) {
		t.Fatalf("expected try to yield the first uncaught value 1, got %v %v", v, err)
	}
}

func TestTryExhaustedRaises(t *testing.T) {
	s := newScope()
	stmt := &ast.Try{
		Lookup:   lk("v"),
		Iterator: arrLit(true, frac(1), frac(2)),
		Lines: []ast.Statement{
			&ast.Catch{Expr: frac(1)}, // always catches
		},
	}
	_, err := ExecStatement(stmt, s, false)
	if !railerr.Is(err, railerr.ExhaustedTry) {
		t.Fatalf("expected ExhaustedTry, got %v", err)
	}
}

func TestDoUndoRunsThenUndoesDoBlock(t *testing.T) {
	s := newScope()
	stmt := &ast.DoUndo{
		DoLines: []ast.Statement{letStmt(lk("y"), frac(5))},
	}
	if _, err := ExecStatement(stmt, s, false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Lookup("y"); !railerr.Is(err, railerr.UndefinedVariable) {
		t.Fatal("expected the do block to be undone once yield/undo complete")
	}
}
