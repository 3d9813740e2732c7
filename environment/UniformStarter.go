package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting vectors uniformly from a box. Several
// starters may share one source so that their samples are not correlated
// by identical seeds.
type UniformStarter struct {
	features int
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling dimension i
// from bounds[i]
func NewUniformStarter(bounds []r1.Interval, src rand.Source) UniformStarter {
	if len(bounds) == 0 {
		return UniformStarter{}
	}
	return UniformStarter{len(bounds), distmv.NewUniform(bounds, src)}
}

// Start returns a starting state vector
func (u UniformStarter) Start() *mat.VecDense {
	if u.features == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}
