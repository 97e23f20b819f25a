package interp

import (
	"math/big"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

func frac(n int64) *ast.Fraction { return &ast.Fraction{Value: big.NewRat(n, 1)} }

func lk(name string) *ast.Lookup { return &ast.Lookup{Name: name} }

func lkIdx(name string, idx ...ast.Expression) *ast.Lookup {
	return &ast.Lookup{Name: name, Index: idx}
}

func binop(name string, l, r ast.Expression) *ast.Binop {
	return &ast.Binop{Left: l, Right: r, Name: name}
}

func arrLit(unowned bool, items ...ast.Expression) *ast.ArrayLiteral {
	return &ast.ArrayLiteral{Items: items, Unowned: unowned}
}

func letStmt(l *ast.Lookup, rhs ast.Expression) *ast.Let { return &ast.Let{Lookup: l, RHS: rhs} }

func unletStmt(l *ast.Lookup, rhs ast.Expression) *ast.Unlet { return &ast.Unlet{Lookup: l, RHS: rhs} }

func newScope() *scope.Scope { return scope.NewRoot("test") }

func scalarOf(n int64) value.Rational { return value.NewRational(n) }
