package experiment

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/moblarms/environment/mobl"
	"github.com/samuelfneumann/moblarms/environment/trajectory"
)

// GenerateTrajectory returns a random target path for env spanning its
// target limits, sampled at the environment's step size
func GenerateTrajectory(src rand.Source, env mobl.Env) trajectory.Path {
	base := env.Base()
	config := base.Config()

	limitsY := r1.Interval{Min: config.TargetLimitsY[0],
		Max: config.TargetLimitsY[1]}
	limitsZ := r1.Interval{Min: config.TargetLimitsZ[0],
		Max: config.TargetLimitsZ[1]}

	return trajectory.Generate(src, base.Dt(), limitsY, limitsZ,
		trajectory.Components)
}

// UpdateTargetLocation moves the target to its place on path for the
// environment's current step. The model's derived quantities are
// recomputed but no time passes.
func UpdateTargetLocation(env mobl.Env, path trajectory.Path) error {
	base := env.Base()
	k := base.Steps()
	if k < 0 || k >= path.Len() {
		return errors.Errorf("updateTargetLocation: step %v outside path "+
			"of length %v", k, path.Len())
	}

	y, z := path.At(k)
	base.SetTargetPosition([3]float64{0, y, z})
	return nil
}
