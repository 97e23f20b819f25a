package value

// LazyRange is the lazy index-able view of an arithmetic range, used by
// `for` and `try` so that iterating `[0 to 1000000]` need not materialize
// a million-element array up front.
type LazyRange struct {
	start, step Rational
	length      int
}

// NewLazyRange builds a view of length `length` whose i'th element is
// start + step*i. The caller computes length from start/stop/step.
func NewLazyRange(start, step Rational, length int) *LazyRange {
	return &LazyRange{start: start, step: step, length: length}
}

func (l *LazyRange) Len() int { return l.length }

// At returns the i'th element as a fresh Rational.
func (l *LazyRange) At(i int) Rational {
	return l.start.Add(l.step.Mul(NewRational(int64(i))))
}

