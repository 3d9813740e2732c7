package mobl

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/moblarms/environment"
	"github.com/samuelfneumann/moblarms/environment/trajectory"
	ts "github.com/samuelfneumann/moblarms/timestep"
)

// TrackingName is the registered name of the Tracking environment
const TrackingName = "mobl-arms-tracking-v0"

// Tracking is a task in which the fingertip must follow a target moving
// smoothly through a plane in front of the body. The target's path is a
// sum of sinusoids, regenerated each episode, whose frequencies are scaled
// by the freq_curriculum callback if one is registered.
//
// Rewards are the reward function of the distance between fingertip and
// target (ExpReward by default) minus the effort. Episodes last
// episode_length_seconds of simulated time. Each timestep's info holds
// the distance ("dist"), whether the fingertip is inside the target
// ("inside_target"), "target_hit", which is always false, and
// "termination".
type Tracking struct {
	*FixedEye
	environment.Ender

	reward          RewardFunc
	path            trajectory.Path
	currentTimeStep ts.TimeStep
}

// NewTracking returns a new Tracking environment
func NewTracking(base *FixedEye) (*Tracking, error) {
	reward := base.Reward()
	if reward == nil {
		reward = ExpReward
	}

	return &Tracking{
		FixedEye: base,
		Ender:    environment.NewStepLimit(base.Config().EpisodeSteps()),
		reward:   reward,
	}, nil
}

// frequencyScale returns the scale of target frequencies
func (t *Tracking) frequencyScale() float64 {
	cb, ok := t.LookupCallback(FreqCurriculumName)
	if !ok {
		return 1
	}
	if c, ok := cb.(*FreqCurriculum); ok {
		return c.Scale()
	}
	return 1
}

// Path returns the target's path for the current episode
func (t *Tracking) Path() trajectory.Path {
	return t.path
}

// SetPath replaces the target's path for the rest of the episode and
// moves the target to its place on the new path. Later steps move the
// target along path, so a driver with its own path needs no extra
// observation per step. The path must cover the current step.
func (t *Tracking) SetPath(path trajectory.Path) error {
	if k := t.Steps(); k >= path.Len() || len(path.Z) != path.Len() {
		return errors.Errorf("setPath: path of length %v does not cover "+
			"step %v", path.Len(), k)
	}
	t.path = path
	t.moveTarget()
	return nil
}

// Reset starts a new episode
func (t *Tracking) Reset() (ts.TimeStep, error) {
	config := t.Config()
	steps := config.EpisodeSteps() + 1
	scale := t.frequencyScale()

	t.path = trajectory.Path{
		Y: trajectory.ScaledSineWave(t.Source(), t.Dt(),
			interval(config.TargetLimitsY), trajectory.Components, steps,
			scale),
		Z: trajectory.ScaledSineWave(t.Source(), t.Dt(),
			interval(config.TargetLimitsZ), trajectory.Components, steps,
			scale),
	}
	t.SampleTargetRadius()

	if _, err := t.ResetModel(); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}
	t.moveTarget()

	obs, err := t.Observe()
	if err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	t.currentTimeStep = ts.New(ts.First, 0, t.Config().Discount, obs, 0)
	t.fillInfo(&t.currentTimeStep, t.TargetDistance())
	return t.currentTimeStep, nil
}

// moveTarget moves the target to its place on the path for the current
// step
func (t *Tracking) moveTarget() {
	k := t.Steps()
	if k >= t.path.Len() {
		return
	}
	y, z := t.path.At(k)
	t.SetTargetPosition([3]float64{0, y, z})
}

// Step takes one environmental step
func (t *Tracking) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if err := t.SetCtrl(action); err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}
	if err := t.DoSimulation(); err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}
	number := t.IncrementSteps()

	dist := t.TargetDistance()
	reward := t.reward(dist) - t.Effort().Compute(t.EffortState())

	t.moveTarget()
	obs, err := t.Observe()
	if err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}

	step := ts.New(ts.Mid, reward, t.Config().Discount, obs, number)
	t.fillInfo(&step, dist)
	done := t.End(&step)

	t.currentTimeStep = step
	return step, done, nil
}

func (t *Tracking) fillInfo(step *ts.TimeStep, dist float64) {
	step.Info["dist"] = dist
	step.Info["inside_target"] = dist <= t.TargetRadius()
	step.Info["target_hit"] = false
	step.Info["termination"] = false
}

// CurrentTimeStep returns the last timestep
func (t *Tracking) CurrentTimeStep() ts.TimeStep {
	return t.currentTimeStep
}
