package kinematic

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAxisAngle(t *testing.T) {
	r := axisAngle(vec3{0, 0, 1}, math.Pi/2)
	v := r.apply(vec3{1, 0, 0})

	test.That(t, v[0], test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, v[1], test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, v[2], test.ShouldAlmostEqual, 0, 1e-12)

	back := r.applyT(v)
	test.That(t, back[0], test.ShouldAlmostEqual, 1, 1e-12)
}

func TestQuatToMatMatchesAxisAngle(t *testing.T) {
	angle := 0.7
	q := [4]float64{math.Cos(angle / 2), 0, math.Sin(angle / 2), 0}
	a := quatToMat(q)
	b := axisAngle(vec3{0, 1, 0}, angle)

	for i := range a {
		test.That(t, a[i], test.ShouldAlmostEqual, b[i], 1e-12)
	}
}

func TestLookAt(t *testing.T) {
	r := lookAt(vec3{0, 0, 0}, vec3{1, 0, 0}, vec3{0, 0, 1})

	// The camera looks along its negative z-axis
	forward := r.column(2).scale(-1)
	test.That(t, forward[0], test.ShouldAlmostEqual, 1, 1e-12)

	up := r.column(1)
	test.That(t, up[2], test.ShouldAlmostEqual, 1, 1e-12)

	right := r.column(0)
	test.That(t, right[1], test.ShouldAlmostEqual, -1, 1e-12)
}
