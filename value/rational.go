// Package value implements the runtime value and memory model: arbitrary
// precision rationals, the cell tree that backs every variable, and the
// Variable binding that names a cell tree with ownership/mono/borrow
// attributes (spec component A, and the storage half of component B).
package value

import (
	"fmt"
	"math/big"
)

// Rational is an exact arbitrary-precision rational number, the only
// scalar value Railway programs manipulate. It wraps math/big.Rat the way
// canonical-starlark's own Int wraps math/big.Int: there is no ecosystem
// rational-number package more idiomatic than the standard library's own
// arbitrary-precision type for this.
type Rational struct {
	r *big.Rat
}

// NewRational builds a Rational from an int64 value.
func NewRational(n int64) Rational {
	return Rational{r: new(big.Rat).SetInt64(n)}
}

// NewRationalFrac builds a Rational equal to num/den.
func NewRationalFrac(num, den int64) (Rational, error) {
	if den == 0 {
		return Rational{}, fmt.Errorf("zero denominator")
	}
	r := new(big.Rat).SetFrac(big.NewInt(num), big.NewInt(den))
	return Rational{r: r}, nil
}

// FromBigRat adopts an existing *big.Rat without copying.
func FromBigRat(r *big.Rat) Rational { return Rational{r: r} }

func (a Rational) BigRat() *big.Rat { return a.r }

func (a Rational) IsZero() bool { return a.r.Sign() == 0 }

// Bool reports the truthiness of a rational: zero is false, anything else
// true, matching `bool(fraction)` in the source language.
func (a Rational) Bool() bool { return a.r.Sign() != 0 }

func BoolToRational(b bool) Rational {
	if b {
		return NewRational(1)
	}
	return NewRational(0)
}

func (a Rational) String() string {
	if a.r.IsInt() {
		return a.r.Num().String()
	}
	return a.r.RatString()
}

func (a Rational) Equal(b Rational) bool { return a.r.Cmp(b.r) == 0 }

func (a Rational) Cmp(b Rational) int { return a.r.Cmp(b.r) }

func (a Rational) Add(b Rational) Rational { return Rational{r: new(big.Rat).Add(a.r, b.r)} }
func (a Rational) Sub(b Rational) Rational { return Rational{r: new(big.Rat).Sub(a.r, b.r)} }
func (a Rational) Mul(b Rational) Rational { return Rational{r: new(big.Rat).Mul(a.r, b.r)} }

func (a Rational) Neg() Rational { return Rational{r: new(big.Rat).Neg(a.r)} }

// Div returns a/b, reporting ok=false on division by zero rather than
// raising; callers turn that into a railerr.ZeroError with full context.
func (a Rational) Div(b Rational) (Rational, bool) {
	if b.IsZero() {
		return Rational{}, false
	}
	return Rational{r: new(big.Rat).Quo(a.r, b.r)}, true
}

// FloorDiv returns floor(a/b) as an exact rational integer, matching
// Python's Fraction.__floordiv__ (floor, not truncating, division).
func (a Rational) FloorDiv(b Rational) (Rational, bool) {
	if b.IsZero() {
		return Rational{}, false
	}
	q := new(big.Rat).Quo(a.r, b.r)
	num, den := q.Num(), q.Denom()
	floored := new(big.Int).Div(num, den) // Euclidean floor for big.Int.Div when den > 0 (big.Rat denom always positive)
	return Rational{r: new(big.Rat).SetInt(floored)}, true
}

// Mod returns a - b*floor(a/b), the sign-of-divisor modulo matching Python.
func (a Rational) Mod(b Rational) (Rational, bool) {
	if b.IsZero() {
		return Rational{}, false
	}
	q, _ := a.FloorDiv(b)
	return a.Sub(q.Mul(b)), true
}

// Pow raises a to an integer power exactly. A non-integer exponent has no
// exact rational result, so it is reported via expOK=false; negative
// exponents invert, and a zero base to a negative exponent is reported via
// ok=false (zero division).
func (a Rational) Pow(b Rational) (result Rational, expOK, ok bool) {
	if !b.r.IsInt() {
		return Rational{}, false, false
	}
	result, ok = a.powInt(b.r.Num())
	return result, true, ok
}

func (a Rational) powInt(exp *big.Int) (Rational, bool) {
	neg := exp.Sign() < 0
	e := new(big.Int).Abs(exp)
	num := new(big.Int).Exp(a.r.Num(), e, nil)
	den := new(big.Int).Exp(a.r.Denom(), e, nil)
	if neg {
		if num.Sign() == 0 {
			return Rational{}, false
		}
		num, den = den, num
		if num.Sign() < 0 {
			num.Neg(num)
			den.Neg(den)
		}
	}
	return Rational{r: new(big.Rat).SetFrac(num, den)}, true
}

func (a Rational) Int64() int64 {
	f, _ := new(big.Float).SetRat(a.r).Int64()
	return f
}
