package interp

import (
	"fmt"

	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

func truthy(c *value.Cell) bool {
	if c.IsArray() {
		return len(c.Elements()) > 0
	}
	return c.Scalar().Bool()
}

func stringify(c *value.Cell) string {
	if !c.IsArray() {
		return c.Scalar().String()
	}
	parts := make([]string, len(c.Elements()))
	for i, e := range c.Elements() {
		parts[i] = stringify(e)
	}
	out := "["
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + "]"
}

func applyBinop(name string, a, b value.Rational, s *scope.Scope) (value.Rational, error) {
	switch name {
	case "+":
		return a.Add(b), nil
	case "-":
		return a.Sub(b), nil
	case "*":
		return a.Mul(b), nil
	case "/":
		r, ok := a.Div(b)
		if !ok {
			return value.Rational{}, railerr.New(railerr.ZeroError,
				fmt.Sprintf("%s / %s", a, b), s)
		}
		return r, nil
	case "//":
		r, ok := a.FloorDiv(b)
		if !ok {
			return value.Rational{}, railerr.New(railerr.ZeroError,
				fmt.Sprintf("%s // %s", a, b), s)
		}
		return r, nil
	case "%":
		r, ok := a.Mod(b)
		if !ok {
			return value.Rational{}, railerr.New(railerr.ZeroError,
				fmt.Sprintf("%s %% %s", a, b), s)
		}
		return r, nil
	case "**":
		r, expOK, ok := a.Pow(b)
		if !expOK {
			return value.Rational{}, railerr.New(railerr.TypeError,
				fmt.Sprintf("%s ** %s requires an integer exponent", a, b), s)
		}
		if !ok {
			return value.Rational{}, railerr.New(railerr.ZeroError,
				fmt.Sprintf("%s ** %s", a, b), s)
		}
		return r, nil
	case "^":
		return value.BoolToRational(a.Bool() != b.Bool()), nil
	case "|":
		return value.BoolToRational(a.Bool() || b.Bool()), nil
	case "&":
		return value.BoolToRational(a.Bool() && b.Bool()), nil
	case "<":
		return value.BoolToRational(a.Cmp(b) < 0), nil
	case "<=":
		return value.BoolToRational(a.Cmp(b) <= 0), nil
	case ">":
		return value.BoolToRational(a.Cmp(b) > 0), nil
	case ">=":
		return value.BoolToRational(a.Cmp(b) >= 0), nil
	case "==":
		return value.BoolToRational(a.Equal(b)), nil
	case "!=":
		return value.BoolToRational(!a.Equal(b)), nil
	}
	return value.Rational{}, fmt.Errorf("interp: unknown binary operator %q", name)
}

func applyUniop(name string, a value.Rational) value.Rational {
	switch name {
	case "!":
		return value.BoolToRational(!a.Bool())
	case "-":
		return a.Neg()
	}
	return a
}

// applyModop mirrors applyBinop but reports a zero-division on the
// modified variable itself: a modifying-multiply by zero would destroy
// the information its inverse (divide) needs to undo it, so it is forbidden
// the same way an actual divide-by-zero is.
func applyModop(opSym string, a, b value.Rational, name, lookupName string, s *scope.Scope) (value.Rational, error) {
	zeroErr := func() error {
		verb := "Dividing"
		if name == "MODMUL" {
			verb = "Multiplying"
		}
		return railerr.New(railerr.ZeroError, fmt.Sprintf("%s variable %q by 0", verb, lookupName), s)
	}
	switch opSym {
	case "+=":
		return a.Add(b), nil
	case "-=":
		return a.Sub(b), nil
	case "*=":
		if b.IsZero() {
			return value.Rational{}, zeroErr()
		}
		return a.Mul(b), nil
	case "/=":
		r, ok := a.Div(b)
		if !ok {
			return value.Rational{}, zeroErr()
		}
		return r, nil
	case "//=":
		r, ok := a.FloorDiv(b)
		if !ok {
			return value.Rational{}, zeroErr()
		}
		return r, nil
	case "**=":
		r, expOK, ok := a.Pow(b)
		if !expOK {
			return value.Rational{}, railerr.New(railerr.TypeError,
				fmt.Sprintf("Raising variable %q to a non-integer power", lookupName), s)
		}
		if !ok {
			return value.Rational{}, zeroErr()
		}
		return r, nil
	case "%=":
		r, ok := a.Mod(b)
		if !ok {
			return value.Rational{}, zeroErr()
		}
		return r, nil
	case "^=":
		return value.BoolToRational(a.Bool() != b.Bool()), nil
	case "|=":
		return value.BoolToRational(a.Bool() || b.Bool()), nil
	case "&=":
		return value.BoolToRational(a.Bool() && b.Bool()), nil
	}
	return value.Rational{}, fmt.Errorf("interp: unknown modify operator %q", opSym)
}
