package effort

import (
	"testing"

	"go.viam.com/test"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"", ZeroName, NeuralName,
		CumulativeFatigueName} {
		term, err := New(name, 1, 0.01)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, term, test.ShouldNotBeNil)
	}

	_, err := New("metabolic", 1, 0.01)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New(CumulativeFatigueName, 1, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestZero(t *testing.T) {
	term := Zero{}
	test.That(t, term.Compute(State{Ctrl: []float64{1, 1}}), test.ShouldEqual, 0)
}

func TestNeural(t *testing.T) {
	term := NewNeural(0.5)
	cost := term.Compute(State{Ctrl: []float64{1, 0.5, 0}})
	test.That(t, cost, test.ShouldAlmostEqual, 0.5*1.25)
}

func TestCumulativeFatigue(t *testing.T) {
	term, err := NewCumulativeFatigue(1, 0.01)
	test.That(t, err, test.ShouldBeNil)

	state := State{Ctrl: []float64{1, 0}}
	prev := 0.0
	for i := 0; i < 500; i++ {
		cost := term.Compute(state)
		test.That(t, cost, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = cost
	}
	test.That(t, prev, test.ShouldBeGreaterThan, 0)

	fatigue := term.Fatigue()
	test.That(t, fatigue[0], test.ShouldBeGreaterThan, 0)
	test.That(t, fatigue[1], test.ShouldEqual, 0)

	// Compartments always sum to one
	for i := range term.ma {
		sum := term.ma[i] + term.mr[i] + term.mf[i]
		test.That(t, sum, test.ShouldAlmostEqual, 1, 1e-9)
	}

	term.Reset()
	test.That(t, term.Fatigue(), test.ShouldResemble, []float64{0, 0})
	test.That(t, term.mr, test.ShouldResemble, []float64{1, 1})
}
