package value

// Variable is a named binding: a reference to a Cell tree plus the
// ownership/direction attributes a reversible binding needs to track.
type Variable struct {
	// Memory is always array-shaped: a scalar variable's memory is a
	// length-1 array wrapping its single Rational, so indexing code never
	// special-cases the scalar/array distinction at the cell level.
	Memory *Cell
	// IsMono marks a variable that must not be live when direction
	// reverses.
	IsMono bool
	// IsBorrowed marks a binding that does not own Memory: unletting,
	// promoting, or pushing it is forbidden.
	IsBorrowed bool
	// IsArray is the variable's own semantic type (vs a wrapped scalar);
	// it is independent of how Memory is physically represented.
	IsArray bool
}

// NewScalar builds an owned, non-mono scalar variable from a Rational.
func NewScalar(r Rational) *Variable {
	return &Variable{Memory: WrapScalar(r), IsArray: false}
}

// NewArray builds an owned, non-mono array variable from cell elements.
func NewArray(elements []*Cell) *Variable {
	return &Variable{Memory: NewArrayCell(elements), IsArray: true}
}

// Borrow produces a new binding that aliases the same memory, marked
// borrowed, used when a call site shares a reference into a callee.
func (v *Variable) Borrow(mono bool) *Variable {
	return &Variable{Memory: v.Memory, IsMono: mono, IsBorrowed: true, IsArray: v.IsArray}
}

// Scalar returns the variable's single Rational; callers must check
// IsArray first.
func (v *Variable) Scalar() Rational { return v.Memory.Elements()[0].Scalar() }

// SetScalar mutates the variable's single Rational in place.
func (v *Variable) SetScalar(r Rational) { v.Memory.Elements()[0].SetScalar(r) }

// Elements returns the variable's top-level array elements; callers must
// check IsArray first.
func (v *Variable) Elements() []*Cell { return v.Memory.Elements() }
