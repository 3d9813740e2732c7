// Package mobl implements reaching environments for the MoBL arms model,
// an upper-limb musculoskeletal model, observed through a fixed
// oculomotor camera. FixedEye is the shared base: it partitions joints
// into independent and dependent sets, maps actions to muscle controls,
// synthesizes observations and renders the scene. Task variants embed a
// FixedEye and add their own Step and Reset.
package mobl

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/moblarms/environment"
	"github.com/samuelfneumann/moblarms/environment/effort"
	"github.com/samuelfneumann/moblarms/environment/sim"
	"github.com/samuelfneumann/moblarms/utils/floatutils"
)

// Names of objects the environment needs in its model
const (
	Fingertip      = "hand_2distph"
	TargetBody     = "target"
	TargetSphere   = "target-sphere"
	TargetPlane    = "target-plane"
	TargetEstimate = "target-sphere-estimate"
	OculomotorCam  = "oculomotor"
	ForTestingCam  = "for_testing"
	TrackCam       = "track"
)

// Pose of the for_testing camera
var (
	ForTestingPos  = [3]float64{1.5, -1.5, 0.9}
	ForTestingQuat = [4]float64{0.6582, 0.6577, 0.2590, 0.2588}
)

// Bounds of the random initial state
var (
	InitJointBounds      = r1.Interval{Min: -0.05, Max: 0.05}
	InitActivationBounds = r1.Interval{Min: 0, Max: 1}
)

// Option configures a FixedEye
type Option func(*FixedEye)

// WithLogger sets the logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(f *FixedEye) {
		f.logger = logger
	}
}

// WithEffortTerm overrides the effort term named in the configuration
func WithEffortTerm(term effort.Term) Option {
	return func(f *FixedEye) {
		f.effort = term
	}
}

// WithRewardFunc overrides the reward function named in the
// configuration
func WithRewardFunc(reward RewardFunc) Option {
	return func(f *FixedEye) {
		f.reward = reward
	}
}

// WithCallbacks adds callbacks to those named in the configuration
func WithCallbacks(callbacks ...Callback) Option {
	return func(f *FixedEye) {
		f.extraCallbacks = append(f.extraCallbacks, callbacks...)
	}
}

// WithSource sets the random source used for initial states and targets
func WithSource(src rand.Source) Option {
	return func(f *FixedEye) {
		f.src = src
	}
}

// FixedEye is an upper-limb model with a fixed camera for eyes. Actions
// are changes in muscle activation, one per actuator, in [-1, 1].
type FixedEye struct {
	sim    sim.Simulator
	config Config
	logger *zap.SugaredLogger
	src    rand.Source
	rng    *rand.Rand

	frameSkip int

	independent []int
	dependent   []int
	patch       *ShoulderPatch

	fingertip      int
	targetBody     int
	targetSphere   int
	targetPlane    int
	targetEstimate int

	targetOrigin   [3]float64
	targetPosition [3]float64
	targetRadius   float64

	steps int

	effort         effort.Term
	reward         RewardFunc
	callbacks      map[string]Callback
	extraCallbacks []Callback

	jointStarter environment.UniformStarter
	actStarter   environment.UniformStarter

	viewers map[sim.RenderMode]sim.Viewer
}

// NewFixedEye returns a new FixedEye simulated by s. On success the
// FixedEye owns s and closes it in Close.
func NewFixedEye(s sim.Simulator, config Config,
	opts ...Option) (*FixedEye, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "newFixedEye")
	}

	f := &FixedEye{
		sim:     s,
		config:  config,
		viewers: make(map[sim.RenderMode]sim.Viewer),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = zap.NewNop().Sugar()
	}
	if f.src == nil {
		seed := config.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		f.src = rand.NewSource(seed)
	}
	f.rng = rand.New(f.src)

	f.frameSkip = int(1 / (s.Timestep() * config.ActionSampleFreq))
	if f.frameSkip < 1 {
		return nil, errors.Errorf("newFixedEye: action_sample_freq %v "+
			"exceeds the simulation frequency %v", config.ActionSampleFreq,
			1/s.Timestep())
	}

	f.independent, f.dependent = partition(s)
	for _, j := range f.independent {
		if floatutils.Width(s.JointRange(j)) == 0 {
			return nil, errors.Wrapf(ErrZeroRangeJoint, "newFixedEye: "+
				"joint %q", s.JointName(j))
		}
	}

	variant, _ := ParseShoulderVariant(config.ShoulderVariant)
	patch, err := NewShoulderPatch(s, variant,
		interval(config.ShoulderRotLimits))
	if err != nil {
		return nil, errors.Wrap(err, "newFixedEye")
	}
	f.patch = patch

	geoms := []*int{&f.fingertip, &f.targetSphere, &f.targetPlane,
		&f.targetEstimate}
	for i, name := range []string{Fingertip, TargetSphere, TargetPlane,
		TargetEstimate} {
		if *geoms[i], err = s.GeomID(name); err != nil {
			return nil, errors.Wrap(err, "newFixedEye")
		}
	}
	if f.targetBody, err = s.BodyID(TargetBody); err != nil {
		return nil, errors.Wrap(err, "newFixedEye")
	}
	copy(f.targetOrigin[:], config.TargetOrigin)
	f.targetRadius = config.TargetRadiusLimit[1]

	for _, name := range []string{OculomotorCam, TrackCam} {
		if _, err := s.CameraID(name); err != nil {
			return nil, errors.Wrap(err, "newFixedEye")
		}
	}
	cam, err := s.CameraID(ForTestingCam)
	if err != nil {
		return nil, errors.Wrap(err, "newFixedEye")
	}
	s.SetCameraPose(cam, ForTestingPos, ForTestingQuat)

	if f.effort == nil {
		f.effort, err = effort.New(config.EffortTerm, config.EffortWeight,
			f.Dt())
		if err != nil {
			return nil, errors.Wrap(err, "newFixedEye")
		}
	}
	if f.reward == nil && config.RewardFunction != "" {
		f.reward, err = RewardFuncByName(config.RewardFunction)
		if err != nil {
			return nil, errors.Wrap(err, "newFixedEye")
		}
	}

	f.callbacks = make(map[string]Callback)
	for _, name := range config.Callbacks {
		cb, err := NewCallback(name, config)
		if err != nil {
			return nil, errors.Wrap(err, "newFixedEye")
		}
		f.callbacks[cb.Name()] = cb
	}
	for _, cb := range f.extraCallbacks {
		f.callbacks[cb.Name()] = cb
	}

	jointBounds := make([]r1.Interval, len(f.independent))
	for i := range jointBounds {
		jointBounds[i] = InitJointBounds
	}
	f.jointStarter = environment.NewUniformStarter(jointBounds, f.src)

	actBounds := make([]r1.Interval, s.NumActuators())
	for i := range actBounds {
		actBounds[i] = InitActivationBounds
	}
	f.actStarter = environment.NewUniformStarter(actBounds, f.src)

	f.logger.Debugw("created environment",
		"frameSkip", f.frameSkip,
		"independent", len(f.independent),
		"dependent", len(f.dependent),
		"actuators", s.NumActuators(),
		"shoulderVariant", variant,
		"renderObservations", config.RenderObservations)

	return f, nil
}

// Base returns the FixedEye itself. Task variants embedding a FixedEye
// inherit this method.
func (f *FixedEye) Base() *FixedEye {
	return f
}

// Sim returns the simulation backing the environment
func (f *FixedEye) Sim() sim.Simulator {
	return f.sim
}

// Config returns the environment's configuration
func (f *FixedEye) Config() Config {
	return f.config
}

// Logger returns the environment's logger
func (f *FixedEye) Logger() *zap.SugaredLogger {
	return f.logger
}

// Rand returns the environment's random number generator
func (f *FixedEye) Rand() *rand.Rand {
	return f.rng
}

// Source returns the environment's random source
func (f *FixedEye) Source() rand.Source {
	return f.src
}

// FrameSkip returns the number of simulation steps per action
func (f *FixedEye) FrameSkip() int {
	return f.frameSkip
}

// Dt returns the simulated time between actions
func (f *FixedEye) Dt() float64 {
	return f.sim.Timestep() * float64(f.frameSkip)
}

// Steps returns the number of steps taken in the current episode
func (f *FixedEye) Steps() int {
	return f.steps
}

// IncrementSteps counts one step of the current episode and returns the
// new count
func (f *FixedEye) IncrementSteps() int {
	f.steps++
	return f.steps
}

// Effort returns the effort term
func (f *FixedEye) Effort() effort.Term {
	return f.effort
}

// EffortState returns the current muscle state for effort terms
func (f *FixedEye) EffortState() effort.State {
	return effort.State{Ctrl: f.sim.Ctrl(), Act: f.sim.Act()}
}

// Reward returns the reward function, or nil if the task variant's
// default should be used
func (f *FixedEye) Reward() RewardFunc {
	return f.reward
}

// Callback updates the named callback with the number of timesteps
// trained so far
func (f *FixedEye) Callback(name string, numTimesteps int) error {
	cb, ok := f.callbacks[name]
	if !ok {
		return errors.Errorf("callback: no callback %q", name)
	}
	cb.Update(numTimesteps)
	return nil
}

// LookupCallback returns the named callback
func (f *FixedEye) LookupCallback(name string) (Callback, bool) {
	cb, ok := f.callbacks[name]
	return cb, ok
}

// DoSimulation steps the simulation FrameSkip times
func (f *FixedEye) DoSimulation() error {
	for i := 0; i < f.frameSkip; i++ {
		if err := f.sim.Step(); err != nil {
			return errors.Wrap(err, "doSimulation")
		}
	}
	return nil
}

// TargetOrigin returns the point target positions are relative to
func (f *FixedEye) TargetOrigin() [3]float64 {
	return f.targetOrigin
}

// TargetPosition returns the target's offset from the target origin
func (f *FixedEye) TargetPosition() [3]float64 {
	return f.targetPosition
}

// SetTargetPosition moves the target to the given offset from the target
// origin and recomputes the model's derived quantities. Time does not
// advance.
func (f *FixedEye) SetTargetPosition(pos [3]float64) {
	f.targetPosition = pos

	var world [3]float64
	for i := range world {
		world[i] = f.targetOrigin[i] + pos[i]
	}
	f.sim.SetBodyPos(f.targetBody, world)
	f.sim.Forward()
}

// TargetRadius returns the radius of the target
func (f *FixedEye) TargetRadius() float64 {
	return f.targetRadius
}

// SetTargetRadius resizes the target
func (f *FixedEye) SetTargetRadius(radius float64) {
	f.targetRadius = radius
	f.sim.SetGeomRadius(f.targetSphere, radius)
}

// SampleTargetRadius draws a target radius uniformly from the configured
// limits and resizes the target
func (f *FixedEye) SampleTargetRadius() {
	limits := interval(f.config.TargetRadiusLimit)
	f.SetTargetRadius(limits.Min + f.rng.Float64()*(limits.Max-limits.Min))
}

// SetTargetPlaneAlpha sets the opacity of the plane targets move in
func (f *FixedEye) SetTargetPlaneAlpha(alpha float64) {
	f.sim.SetGeomAlpha(f.targetPlane, alpha)
}

// TargetDistance returns the distance between the fingertip and the
// centre of the target
func (f *FixedEye) TargetDistance() float64 {
	tip := f.sim.GeomXPos(f.fingertip)
	target := f.sim.GeomXPos(f.targetSphere)

	var sum float64
	for i := range tip {
		d := tip[i] - target[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
