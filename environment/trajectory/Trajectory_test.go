package trajectory

import (
	"testing"

	"go.viam.com/test"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestGenerateSpansLimits(t *testing.T) {
	limitsY := r1.Interval{Min: -0.3, Max: 0.3}
	limitsZ := r1.Interval{Min: -0.2, Max: 0.4}

	for seed := uint64(1); seed <= 5; seed++ {
		path := Generate(rand.NewSource(seed), 0.01, limitsY, limitsZ,
			Components)

		test.That(t, path.Len(), test.ShouldEqual, Steps+1)
		test.That(t, len(path.Z), test.ShouldEqual, Steps+1)

		test.That(t, floats.Min(path.Y), test.ShouldAlmostEqual, limitsY.Min, 1e-12)
		test.That(t, floats.Max(path.Y), test.ShouldAlmostEqual, limitsY.Max, 1e-12)
		test.That(t, floats.Min(path.Z), test.ShouldAlmostEqual, limitsZ.Min, 1e-12)
		test.That(t, floats.Max(path.Z), test.ShouldAlmostEqual, limitsZ.Max, 1e-12)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	limits := r1.Interval{Min: 0, Max: 1}
	a := Generate(rand.NewSource(7), 0.01, limits, limits, Components)
	b := Generate(rand.NewSource(7), 0.01, limits, limits, Components)
	test.That(t, a, test.ShouldResemble, b)

	c := Generate(rand.NewSource(8), 0.01, limits, limits, Components)
	test.That(t, c.Y, test.ShouldNotResemble, a.Y)

	y, z := a.At(10)
	test.That(t, y, test.ShouldEqual, a.Y[10])
	test.That(t, z, test.ShouldEqual, a.Z[10])
}

func TestRescale(t *testing.T) {
	x := []float64{2, 4, 3}
	Rescale(x, r1.Interval{Min: -1, Max: 1})
	test.That(t, x, test.ShouldResemble, []float64{-1, 1, 0})

	constant := []float64{5, 5}
	Rescale(constant, r1.Interval{Min: 0.1, Max: 0.2})
	test.That(t, constant, test.ShouldResemble, []float64{0.1, 0.1})

	Rescale(nil, r1.Interval{})
}

func TestNoComponents(t *testing.T) {
	wave := SineWave(rand.NewSource(1), 0.01, r1.Interval{Min: 1, Max: 2},
		0, 10)
	for _, v := range wave {
		test.That(t, v, test.ShouldEqual, 1)
	}
}
