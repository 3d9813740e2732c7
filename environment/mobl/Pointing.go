package mobl

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/moblarms/environment"
	ts "github.com/samuelfneumann/moblarms/timestep"
)

// PointingName is the registered name of the Pointing environment
const PointingName = "mobl-arms-pointing-v0"

// HitReward is the reward for hitting a target
const HitReward = 8.0

// Pointing is a task in which the fingertip must reach a sequence of
// stationary targets. A target counts as hit once the fingertip has been
// inside it for dwell_steps consecutive steps, after which a new target
// spawns at a uniformly random position and radius. Episodes end after
// max_trials hits or episode_length_seconds of simulated time.
//
// Hitting a target is rewarded with HitReward; every other step is
// rewarded with the reward function of the distance (ExpReward by default)
// minus the effort.
type Pointing struct {
	*FixedEye
	environment.Ender

	reward          RewardFunc
	insideSteps     int
	trials          int
	currentTimeStep ts.TimeStep
}

// NewPointing returns a new Pointing environment
func NewPointing(base *FixedEye) (*Pointing, error) {
	reward := base.Reward()
	if reward == nil {
		reward = ExpReward
	}

	return &Pointing{
		FixedEye: base,
		Ender:    environment.NewStepLimit(base.Config().EpisodeSteps()),
		reward:   reward,
	}, nil
}

// Trials returns the number of targets hit in the current episode
func (p *Pointing) Trials() int {
	return p.trials
}

// spawnTarget places a new target uniformly in the target plane
func (p *Pointing) spawnTarget() {
	config := p.Config()
	y, z := interval(config.TargetLimitsY), interval(config.TargetLimitsZ)
	rng := p.Rand()

	p.SampleTargetRadius()
	p.SetTargetPosition([3]float64{
		0,
		y.Min + rng.Float64()*(y.Max-y.Min),
		z.Min + rng.Float64()*(z.Max-z.Min),
	})
	p.insideSteps = 0
}

// Reset starts a new episode
func (p *Pointing) Reset() (ts.TimeStep, error) {
	if _, err := p.ResetModel(); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}
	p.trials = 0
	p.spawnTarget()

	obs, err := p.Observe()
	if err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	p.currentTimeStep = ts.New(ts.First, 0, p.Config().Discount, obs, 0)
	dist := p.TargetDistance()
	p.fillInfo(&p.currentTimeStep, dist, dist <= p.TargetRadius(), false,
		false)
	return p.currentTimeStep, nil
}

// Step takes one environmental step
func (p *Pointing) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if err := p.SetCtrl(action); err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}
	if err := p.DoSimulation(); err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}
	number := p.IncrementSteps()

	dist := p.TargetDistance()
	inside := dist <= p.TargetRadius()
	if inside {
		p.insideSteps++
	} else {
		p.insideSteps = 0
	}

	effort := p.Effort().Compute(p.EffortState())
	hit := p.insideSteps >= p.Config().DwellSteps

	var reward float64
	if hit {
		reward = HitReward
		p.trials++
		p.Logger().Debugw("target hit", "step", number, "trials", p.trials)
		p.spawnTarget()
	} else {
		reward = p.reward(dist) - effort
	}
	termination := p.trials >= p.Config().MaxTrials

	obs, err := p.Observe()
	if err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}

	step := ts.New(ts.Mid, reward, p.Config().Discount, obs, number)
	p.fillInfo(&step, dist, inside, hit, termination)

	done := p.End(&step)
	if termination {
		step.StepType = ts.Last
		done = true
	}

	p.currentTimeStep = step
	return step, done, nil
}

func (p *Pointing) fillInfo(step *ts.TimeStep, dist float64, inside, hit,
	termination bool) {
	step.Info["dist"] = dist
	step.Info["inside_target"] = inside
	step.Info["target_hit"] = hit
	step.Info["termination"] = termination
	step.Info["trials"] = p.trials
}

// CurrentTimeStep returns the last timestep
func (p *Pointing) CurrentTimeStep() ts.TimeStep {
	return p.currentTimeStep
}
