package value

// Cell is the atomic storage unit: either a Rational leaf or an ordered,
// mutable sequence of cells. Cells form a tree; a scalar variable's memory
// is always a length-1 array of cells so that assignment is a cell
// mutation rather than a name rebind.
type Cell struct {
	isArray  bool
	scalar   Rational
	elements []*Cell
}

// NewScalarCell wraps a Rational as a leaf cell.
func NewScalarCell(r Rational) *Cell { return &Cell{scalar: r} }

// NewArrayCell wraps a slice of cells as an array cell.
func NewArrayCell(elements []*Cell) *Cell { return &Cell{isArray: true, elements: elements} }

func (c *Cell) IsArray() bool { return c.isArray }

// Scalar returns the leaf value; callers must check IsArray first.
func (c *Cell) Scalar() Rational { return c.scalar }

// SetScalar mutates a leaf cell in place.
func (c *Cell) SetScalar(r Rational) { c.scalar = r }

// Elements returns the backing slice of an array cell. Callers may mutate
// through this slice (append/pop) because the tree is shared by reference
// among borrowers.
func (c *Cell) Elements() []*Cell { return c.elements }

func (c *Cell) SetElements(elements []*Cell) { c.elements = elements }

func (c *Cell) Len() int { return len(c.elements) }

// DeepCopy produces an independent copy of the cell tree, used whenever an
// expression's result is not `unowned` and a new variable takes ownership
// of it.
func (c *Cell) DeepCopy() *Cell {
	if !c.isArray {
		return NewScalarCell(c.scalar)
	}
	cp := make([]*Cell, len(c.elements))
	for i, e := range c.elements {
		cp[i] = e.DeepCopy()
	}
	return NewArrayCell(cp)
}

// StructurallyEqual compares two cell trees by value, the equality unlet
// and the for-loop iterator-coherence check both rely on.
func (c *Cell) StructurallyEqual(other *Cell) bool {
	if c.isArray != other.isArray {
		return false
	}
	if !c.isArray {
		return c.scalar.Equal(other.scalar)
	}
	if len(c.elements) != len(other.elements) {
		return false
	}
	for i := range c.elements {
		if !c.elements[i].StructurallyEqual(other.elements[i]) {
			return false
		}
	}
	return true
}

// WrapScalar builds the length-1 array every scalar variable's memory is
// stored as, so lookups can always index into "memory".
func WrapScalar(r Rational) *Cell { return NewArrayCell([]*Cell{NewScalarCell(r)}) }

// ArrayOfRationals builds a flat array cell from a slice of Rationals,
// e.g. materializing a range.
func ArrayOfRationals(rs []Rational) *Cell {
	elems := make([]*Cell, len(rs))
	for i, r := range rs {
		elems[i] = NewScalarCell(r)
	}
	return NewArrayCell(elems)
}
