package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what a Spec describes
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "action"
	case Observation:
		return "observation"
	case Discount:
		return "discount"
	}
	return fmt.Sprintf("SpecType(%d)", int(s))
}

// Spec describes a continuous box of vectors: actions, observations or
// discounts. Unbounded dimensions use infinite bounds.
type Spec struct {
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
}

// NewBoxSpec returns a specification of the given length with every
// dimension bounded by [low, high]
func NewBoxSpec(length int, t SpecType, low, high float64) Spec {
	if low > high {
		panic(fmt.Sprintf("newBoxSpec: lower bound %v above upper bound %v",
			low, high))
	}
	lower := mat.NewVecDense(length, nil)
	upper := mat.NewVecDense(length, nil)
	for i := 0; i < length; i++ {
		lower.SetVec(i, low)
		upper.SetVec(i, high)
	}
	return Spec{Type: t, LowerBound: lower, UpperBound: upper}
}

// Len returns the length of vectors described by the specification
func (s Spec) Len() int {
	if s.LowerBound == nil {
		return 0
	}
	return s.LowerBound.Len()
}

// Contains reports whether v has the specification's length and lies
// within its bounds
func (s Spec) Contains(v mat.Vector) bool {
	if v.Len() != s.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if x := v.AtVec(i); x < s.LowerBound.AtVec(i) ||
			x > s.UpperBound.AtVec(i) {
			return false
		}
	}
	return true
}

// Clip clips v into the specification's bounds in place and returns it
func (s Spec) Clip(v *mat.VecDense) *mat.VecDense {
	for i := 0; i < v.Len() && i < s.Len(); i++ {
		x := v.AtVec(i)
		if lo := s.LowerBound.AtVec(i); x < lo {
			x = lo
		} else if hi := s.UpperBound.AtVec(i); x > hi {
			x = hi
		}
		v.SetVec(i, x)
	}
	return v
}
