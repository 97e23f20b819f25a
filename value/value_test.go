package value

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRationalArithmeticExact(t *testing.T) {
	a, _ := NewRationalFrac(1, 3)
	b, _ := NewRationalFrac(1, 6)
	got := a.Add(b)
	want, _ := NewRationalFrac(1, 2)
	if !got.Equal(want) {
		t.Fatalf("1/3 + 1/6 = %s, want %s", got, want)
	}
}

func TestRationalDivByZero(t *testing.T) {
	a := NewRational(5)
	_, ok := a.Div(NewRational(0))
	if ok {
		t.Fatal("expected division by zero to be rejected")
	}
}

func TestRationalFloorDivMatchesPythonFloor(t *testing.T) {
	// -7 // 2 == -4 in Python (floor division, not truncation).
	a := NewRational(-7)
	b := NewRational(2)
	got, ok := a.FloorDiv(b)
	if !ok {
		t.Fatal("unexpected zero-division rejection")
	}
	if want := NewRational(-4); !got.Equal(want) {
		t.Fatalf("-7 // 2 = %s, want %s", got, want)
	}
}

func TestRationalModSignMatchesDivisor(t *testing.T) {
	a := NewRational(-7)
	b := NewRational(2)
	got, ok := a.Mod(b)
	if !ok {
		t.Fatal("unexpected zero-division rejection")
	}
	if want := NewRational(1); !got.Equal(want) {
		t.Fatalf("-7 %% 2 = %s, want %s", got, want)
	}
}

func TestRationalPowRejectsNonIntegerExponent(t *testing.T) {
	a := NewRational(4)
	half, _ := NewRationalFrac(1, 2)
	_, expOK, _ := a.Pow(half)
	if expOK {
		t.Fatal("expected non-integer exponent to be rejected")
	}
}

func TestRationalPowNegativeExponent(t *testing.T) {
	a := NewRational(2)
	got, expOK, ok := a.Pow(NewRational(-2))
	if !expOK || !ok {
		t.Fatal("unexpected rejection")
	}
	want, _ := NewRationalFrac(1, 4)
	if !got.Equal(want) {
		t.Fatalf("2**-2 = %s, want %s", got, want)
	}
}

func TestCellDeepCopyIsIndependent(t *testing.T) {
	original := NewArrayCell([]*Cell{NewScalarCell(NewRational(1)), NewScalarCell(NewRational(2))})
	clone := original.DeepCopy()
	clone.Elements()[0].SetScalar(NewRational(99))
	if original.Elements()[0].Scalar().Equal(NewRational(99)) {
		t.Fatal("mutating the clone mutated the original: not a deep copy")
	}
}

func TestCellStructuralEquality(t *testing.T) {
	a := NewArrayCell([]*Cell{NewScalarCell(NewRational(1)), NewArrayCell([]*Cell{NewScalarCell(NewRational(2))})})
	b := a.DeepCopy()
	if !a.StructurallyEqual(b) {
		t.Fatal("deep copy should be structurally equal to original")
	}
	b.Elements()[1].Elements()[0].SetScalar(NewRational(3))
	if a.StructurallyEqual(b) {
		t.Fatal("mutated copy should no longer be structurally equal")
	}
}

func TestVariableBorrowSharesMemory(t *testing.T) {
	v := NewScalar(NewRational(7))
	b := v.Borrow(false)
	b.SetScalar(NewRational(8))
	if !v.Scalar().Equal(NewRational(8)) {
		t.Fatal("borrowed variable should share memory with its owner")
	}
	if !b.IsBorrowed {
		t.Fatal("Borrow() must mark the result as borrowed")
	}
}

func TestLazyRangeMatchesMaterializedRange(t *testing.T) {
	lazy := NewLazyRange(NewRational(10), NewRational(-2), 5)
	want := []Rational{NewRational(10), NewRational(8), NewRational(6), NewRational(4), NewRational(2)}
	for i, w := range want {
		if got := lazy.At(i); !got.Equal(w) {
			t.Fatalf("lazy[%d] = %s, want %s", i, got, w)
		}
	}
	if diff := cmp.Diff(len(want), lazy.Len()); diff != "" {
		t.Fatalf("length mismatch (-want +got):\n%s", diff)
	}
}
