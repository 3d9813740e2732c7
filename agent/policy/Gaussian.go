package policy

import (
	"encoding/gob"
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/samuelfneumann/moblarms/environment"
	ts "github.com/samuelfneumann/moblarms/timestep"
	"github.com/samuelfneumann/moblarms/utils/matutils"
)

// StdOffset is added to every standard deviation
const StdOffset float64 = 1e-3

// Gaussian is a multi-dimensional linear Gaussian policy over
// proprioceptive observations. The mean of each action dimension is a
// linear function of the observation and its standard deviation is the
// exponential of another. Actions are clipped to the environment's
// action space, or to [-1, 1] for policies sized without one.
type Gaussian struct {
	meanWeights *mat.Dense
	stdWeights  *mat.Dense
	actionDims  int
	features    int
	source      rand.Source
	actions     environment.Spec
}

// NewGaussian returns a Gaussian policy with zero weights sized for env
func NewGaussian(src rand.Source, env environment.Environment) *Gaussian {
	g := NewGaussianWithSize(src, env.ObservationSpec().Len(),
		env.ActionSpec().Len())
	g.actions = env.ActionSpec()
	return g
}

// NewGaussianWithSize returns a Gaussian policy with zero weights
func NewGaussianWithSize(src rand.Source, features, actionDims int) *Gaussian {
	return &Gaussian{
		meanWeights: mat.NewDense(actionDims, features, nil),
		stdWeights:  mat.NewDense(actionDims, features, nil),
		actionDims:  actionDims,
		features:    features,
		source:      src,
		actions:     environment.NewBoxSpec(actionDims, environment.Action, -1, 1),
	}
}

// Mean returns the mean action for an observation
func (g *Gaussian) Mean(obs mat.Vector) *mat.VecDense {
	mean := mat.NewVecDense(g.actionDims, nil)
	mean.MulVec(g.meanWeights, obs)
	return mean
}

// Std returns the standard deviation of each action dimension for an
// observation
func (g *Gaussian) Std(obs mat.Vector) *mat.VecDense {
	std := mat.NewVecDense(g.actionDims, nil)
	std.MulVec(g.stdWeights, obs)
	for i := 0; i < std.Len(); i++ {
		std.SetVec(i, math.Exp(std.AtVec(i))+StdOffset)
	}
	return std
}

// Predict returns an action for an observation. The state is returned
// unchanged.
func (g *Gaussian) Predict(obs ts.Observation, state interface{},
	deterministic bool) (*mat.VecDense, interface{}, error) {
	x := obs.Proprioception
	if x == nil || x.Len() != g.features {
		have := 0
		if x != nil {
			have = x.Len()
		}
		return nil, state, errors.Errorf("predict: invalid observation "+
			"dimensions \n\thave(%v) \n\twant(%v)", have, g.features)
	}

	action := g.Mean(x)
	if !deterministic {
		std := g.Std(x)
		variance := make([]float64, std.Len())
		for i := range variance {
			variance[i] = std.AtVec(i) * std.AtVec(i)
		}
		cov := mat.NewDiagDense(len(variance), variance)

		dist, ok := distmv.NewNormal(action.RawVector().Data, cov, g.source)
		if !ok {
			return nil, state, errors.Errorf("predict: non-positive-definite "+
				"covariance %v", matutils.Format(cov))
		}
		action = mat.NewVecDense(g.actionDims, dist.Rand(nil))
	}

	return g.actions.Clip(action), state, nil
}

// Weights returns the mean and standard deviation weights
func (g *Gaussian) Weights() (mean, std *mat.Dense) {
	return g.meanWeights, g.stdWeights
}

// SetWeights replaces the policy's weights. Both matrices must be
// action dimensions x features.
func (g *Gaussian) SetWeights(mean, std *mat.Dense) error {
	for _, w := range []*mat.Dense{mean, std} {
		r, c := w.Dims()
		if r != g.actionDims || c != g.features {
			return errors.Errorf("setWeights: invalid weight dimensions "+
				"\n\thave(%v x %v) \n\twant(%v x %v)", r, c, g.actionDims,
				g.features)
		}
	}
	g.meanWeights = mean
	g.stdWeights = std
	return nil
}

// checkpoint is the serialized form of a Gaussian policy
type checkpoint struct {
	MeanWeights *mat.Dense
	StdWeights  *mat.Dense
}

// Save writes the policy's weights to a gob-encoded checkpoint
func (g *Gaussian) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save: could not create checkpoint")
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(checkpoint{g.meanWeights, g.stdWeights}); err != nil {
		return errors.Wrap(err, "save: could not encode checkpoint")
	}
	return file.Close()
}

// LoadGaussian restores a Gaussian policy from a checkpoint written by
// Save
func LoadGaussian(path string, src rand.Source) (*Gaussian, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "loadGaussian: could not open checkpoint")
	}
	defer file.Close()

	var c checkpoint
	if err := gob.NewDecoder(file).Decode(&c); err != nil {
		return nil, errors.Wrapf(err, "loadGaussian: could not decode %v",
			path)
	}
	if c.MeanWeights == nil || c.StdWeights == nil {
		return nil, errors.Errorf("loadGaussian: %v is missing weights", path)
	}

	actionDims, features := c.MeanWeights.Dims()
	g := NewGaussianWithSize(src, features, actionDims)
	if err := g.SetWeights(c.MeanWeights, c.StdWeights); err != nil {
		return nil, errors.Wrap(err, "loadGaussian")
	}
	return g, nil
}
