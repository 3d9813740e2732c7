package mobl

import (
	"github.com/pkg/errors"

	ts "github.com/samuelfneumann/moblarms/timestep"
)

// ResetModel resets the simulation to a random state near the default
// pose and returns the first observation. Independent joint positions and
// velocities are drawn from InitJointBounds and activations from
// InitActivationBounds; dependent joints follow from their constraints.
// The effort term and step counter are reset.
func (f *FixedEye) ResetModel() (ts.Observation, error) {
	f.sim.Reset()

	qpos := f.jointStarter.Start()
	qvel := f.jointStarter.Start()
	act := f.actStarter.Start()

	for j := 0; j < f.sim.NumJoints(); j++ {
		f.sim.SetQPos(j, 0)
		f.sim.SetQVel(j, 0)
	}
	for i, j := range f.independent {
		f.sim.SetQPos(j, qpos.AtVec(i))
		f.sim.SetQVel(j, qvel.AtVec(i))
	}
	if act.Len() > 0 {
		f.sim.SetAct(act.RawVector().Data)
	}

	f.effort.Reset()
	f.steps = 0

	f.sim.Forward()

	obs, err := f.Observe()
	if err != nil {
		return ts.Observation{}, errors.Wrap(err, "resetModel")
	}
	return obs, nil
}
