// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// VecClip performs an element-wise clipping of a vector's values such
// that each value is at least min and at most max
func VecClip(a *mat.VecDense, min, max float64) {
	for i := 0; i < a.Len(); i++ {
		value := a.AtVec(i)

		if value < min {
			a.SetVec(i, min)
		} else if value > max {
			a.SetVec(i, max)
		}
	}
}

// VecConcat concatenates float slices into a single vector
func VecConcat(parts ...[]float64) *mat.VecDense {
	length := 0
	for _, part := range parts {
		length += len(part)
	}

	backing := make([]float64, 0, length)
	for _, part := range parts {
		backing = append(backing, part...)
	}
	return mat.NewVecDense(length, backing)
}

// VecCopy returns a copy of the data backing a vector
func VecCopy(a mat.Vector) []float64 {
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = a.AtVec(i)
	}
	return out
}
