package policy

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/moblarms/timestep"
)

func observation(data ...float64) ts.Observation {
	return ts.Observation{Proprioception: mat.NewVecDense(len(data), data)}
}

func TestPredictDeterministic(t *testing.T) {
	g := NewGaussianWithSize(rand.NewSource(1), 3, 2)
	mean := mat.NewDense(2, 3, []float64{
		0.1, 0, 0,
		0, 2, 0,
	})
	test.That(t, g.SetWeights(mean, mat.NewDense(2, 3, nil)), test.ShouldBeNil)

	action, state, err := g.Predict(observation(1, 1, 1), "hidden", true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, state, test.ShouldEqual, "hidden")
	test.That(t, action.AtVec(0), test.ShouldAlmostEqual, 0.1)

	// Actions are clipped to the action space
	test.That(t, action.AtVec(1), test.ShouldEqual, 1)
}

func TestPredictStochastic(t *testing.T) {
	g := NewGaussianWithSize(rand.NewSource(1), 2, 2)

	var sum float64
	var differ bool
	prev, _, err := g.Predict(observation(0, 0), nil, false)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 200; i++ {
		action, _, err := g.Predict(observation(0, 0), nil, false)
		test.That(t, err, test.ShouldBeNil)
		for j := 0; j < action.Len(); j++ {
			test.That(t, action.AtVec(j), test.ShouldBeBetweenOrEqual, -1, 1)
		}
		if !mat.Equal(action, prev) {
			differ = true
		}
		sum += action.AtVec(0)
	}
	test.That(t, differ, test.ShouldBeTrue)
	test.That(t, sum/200, test.ShouldAlmostEqual, 0, 0.25)
}

func TestPredictInvalidObservation(t *testing.T) {
	g := NewGaussianWithSize(rand.NewSource(1), 3, 2)
	_, _, err := g.Predict(observation(1, 2), nil, true)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = g.Predict(ts.Observation{}, nil, true)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSetWeightsDimensions(t *testing.T) {
	g := NewGaussianWithSize(rand.NewSource(1), 3, 2)
	err := g.SetWeights(mat.NewDense(3, 2, nil), mat.NewDense(2, 3, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCheckpoint(t *testing.T) {
	g := NewGaussianWithSize(rand.NewSource(1), 4, 3)
	mean := mat.NewDense(3, 4, []float64{
		0.1, 0.2, 0.3, 0.4,
		-0.1, -0.2, -0.3, -0.4,
		0, 0.5, 0, -0.5,
	})
	std := mat.NewDense(3, 4, nil)
	std.Apply(func(i, j int, v float64) float64 { return -float64(i + j) },
		std)
	test.That(t, g.SetWeights(mean, std), test.ShouldBeNil)

	path := filepath.Join(t.TempDir(), "rl_model_100_steps")
	test.That(t, g.Save(path), test.ShouldBeNil)

	restored, err := LoadGaussian(path, rand.NewSource(2))
	test.That(t, err, test.ShouldBeNil)
	gotMean, gotStd := restored.Weights()
	test.That(t, mat.Equal(gotMean, mean), test.ShouldBeTrue)
	test.That(t, mat.Equal(gotStd, std), test.ShouldBeTrue)

	obs := observation(1, -1, 0.5, 0)
	want, _, err := g.Predict(obs, nil, true)
	test.That(t, err, test.ShouldBeNil)
	got, _, err := restored.Predict(obs, nil, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(got, want), test.ShouldBeTrue)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadGaussian(filepath.Join(dir, "missing"), rand.NewSource(1))
	test.That(t, err, test.ShouldNotBeNil)

	garbage := filepath.Join(dir, "garbage")
	test.That(t, os.WriteFile(garbage, []byte("not a checkpoint"), 0o600),
		test.ShouldBeNil)
	_, err = LoadGaussian(garbage, rand.NewSource(1))
	test.That(t, err, test.ShouldNotBeNil)
}
