package experiment

import (
	"bytes"
	"context"
	"image"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/moblarms/agent/policy"
	"github.com/samuelfneumann/moblarms/environment/mobl"
	"github.com/samuelfneumann/moblarms/environment/sim"
	"github.com/samuelfneumann/moblarms/environment/sim/kinematic"
	"github.com/samuelfneumann/moblarms/environment/trajectory"
	"github.com/samuelfneumann/moblarms/experiment/trackers"
)

func testEnv(t *testing.T) mobl.Env {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()

	config := mobl.DefaultConfig()
	config.RenderObservations = false
	config.ActionSampleFreq = 100
	config.TargetRadiusLimit = []float64{0.05, 0.05}
	config.Seed = 1

	s, err := kinematic.New(kinematic.MoblArms(), logger)
	test.That(t, err, test.ShouldBeNil)
	env, err := mobl.Make(mobl.TrackingName, s, config, mobl.WithLogger(logger))
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { env.Close() })
	return env
}

// frameCounter is a FrameWriter which keeps only frame sizes
type frameCounter struct {
	sizes  []image.Rectangle
	closed bool
}

func (f *frameCounter) WriteFrame(img image.Image) error {
	f.sizes = append(f.sizes, img.Bounds())
	return nil
}

func (f *frameCounter) Close() error {
	f.closed = true
	return nil
}

// ocularCounter counts renders of the oculomotor camera
type ocularCounter struct {
	sim.Simulator
	renders int
}

func (c *ocularCounter) Render(width, height int, camera string,
	depth bool) (sim.Frame, error) {
	if camera == mobl.OculomotorCam {
		c.renders++
	}
	return c.Simulator.Render(width, height, camera, depth)
}

func TestEvaluationObservesOncePerStep(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	config := mobl.DefaultConfig()
	config.ActionSampleFreq = 100
	config.OcularImageWidth = 12
	config.OcularImageHeight = 8
	config.Seed = 1

	s, err := kinematic.New(kinematic.MoblArms(), logger)
	test.That(t, err, test.ShouldBeNil)
	counter := &ocularCounter{Simulator: s}
	env, err := mobl.Make(mobl.TrackingName, counter, config,
		mobl.WithLogger(logger))
	test.That(t, err, test.ShouldBeNil)
	defer env.Close()

	pol := policy.NewGaussian(rand.NewSource(1), env)
	eval, err := NewEvaluation(env, pol, Options{NumEpisodes: 1, Seed: 7})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Run(context.Background()), test.ShouldBeNil)

	// Resetting observes a fixed number of times; every step observes once
	test.That(t, counter.renders, test.ShouldBeBetweenOrEqual,
		trajectory.Steps+1, trajectory.Steps+4)
}

func TestUpdateTargetLocation(t *testing.T) {
	env := testEnv(t)
	path := GenerateTrajectory(rand.NewSource(3), env)
	test.That(t, path.Len(), test.ShouldEqual, trajectory.Steps+1)

	_, err := env.Reset()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, UpdateTargetLocation(env, path), test.ShouldBeNil)

	y, z := path.At(0)
	pos := env.Base().TargetPosition()
	test.That(t, pos[0], test.ShouldEqual, 0)
	test.That(t, pos[1], test.ShouldEqual, y)
	test.That(t, pos[2], test.ShouldEqual, z)

	short := trajectory.Path{Y: []float64{0}, Z: []float64{0}}
	action := mat.NewVecDense(env.Base().Sim().NumActuators(), nil)
	_, _, err = env.Step(action)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, UpdateTargetLocation(env, short), test.ShouldNotBeNil)
}

func TestGenerateTrajectoryLimits(t *testing.T) {
	env := testEnv(t)
	config := env.Base().Config()
	path := GenerateTrajectory(rand.NewSource(5), env)
	for k := 0; k < path.Len(); k++ {
		y, z := path.At(k)
		test.That(t, y, test.ShouldBeBetweenOrEqual,
			config.TargetLimitsY[0]-1e-9, config.TargetLimitsY[1]+1e-9)
		test.That(t, z, test.ShouldBeBetweenOrEqual,
			config.TargetLimitsZ[0]-1e-9, config.TargetLimitsZ[1]+1e-9)
	}
}

func TestEvaluationLogging(t *testing.T) {
	env := testEnv(t)
	dir := t.TempDir()
	pol := policy.NewGaussian(rand.NewSource(1), env)

	var progress bytes.Buffer
	eval, err := NewEvaluation(env, pol, Options{
		Logger:        zaptest.NewLogger(t).Sugar(),
		NumEpisodes:   1,
		Seed:          7,
		Logging:       true,
		StateLogFile:  filepath.Join(dir, "state_log"),
		ActionLogFile: filepath.Join(dir, "action_log"),
		Progress:      &progress,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Run(context.Background()), test.ShouldBeNil)
	test.That(t, progress.Len(), test.ShouldBeGreaterThan, 0)

	states := eval.States().Episode(0)
	actions := eval.Actions().Episode(0)
	test.That(t, len(states), test.ShouldEqual, trajectory.Steps+1)
	test.That(t, len(actions), test.ShouldEqual, trajectory.Steps)

	test.That(t, states[0].Step, test.ShouldEqual, 0)
	test.That(t, states[0].Info["target_hit"], test.ShouldEqual, false)
	for i := 1; i < len(states); i++ {
		test.That(t, states[i].Step, test.ShouldEqual, i)
		test.That(t, states[i].Timestep, test.ShouldBeGreaterThan,
			states[i-1].Timestep)
		test.That(t, states[i].Info, test.ShouldContainKey, "dist")
	}
	for i, a := range actions {
		test.That(t, a.Step, test.ShouldEqual, states[i].Step)
		test.That(t, a.Timestep, test.ShouldEqual, states[i].Timestep)
		test.That(t, len(a.Action), test.ShouldEqual, len(a.Ctrl))
	}
	test.That(t, len(eval.Returns()), test.ShouldEqual, 1)

	saved, err := trackers.LoadEpisodes[trackers.StateRecord](
		eval.States().Filename())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(saved[0]), test.ShouldEqual, trajectory.Steps+1)

	var returns []float64
	test.That(t, trackers.LoadData(trackers.Filename(filepath.Join(dir,
		"returns")), &returns), test.ShouldBeNil)
	test.That(t, returns, test.ShouldResemble, eval.Returns())
}

func TestEvaluationRecording(t *testing.T) {
	if testing.Short() {
		t.Skip("renders every step")
	}
	env := testEnv(t)
	pol := policy.NewGaussian(rand.NewSource(1), env)
	frames := &frameCounter{}

	eval, err := NewEvaluation(env, pol, Options{
		NumEpisodes:   1,
		Deterministic: true,
		Seed:          7,
		Record:        true,
		Video:         frames,
		FrameWidth:    OcularWidth * OcularScale,
		FrameHeight:   OcularHeight * OcularScale,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eval.Run(context.Background()), test.ShouldBeNil)

	test.That(t, frames.closed, test.ShouldBeTrue)
	test.That(t, len(frames.sizes), test.ShouldEqual, trajectory.Steps+1)
	test.That(t, frames.sizes[0].Dx(), test.ShouldEqual, OcularWidth*OcularScale)
	test.That(t, frames.sizes[0].Dy(), test.ShouldEqual,
		OcularHeight*OcularScale)

	// Recording colours tendons by their controls
	s := env.Base().Sim()
	ctrl := s.Ctrl()
	test.That(t, s.TendonRGBA(0)[0], test.ShouldAlmostEqual, 0.3+ctrl[0]*0.7)
}

func TestEvaluationCancelled(t *testing.T) {
	env := testEnv(t)
	pol := policy.NewGaussian(rand.NewSource(1), env)
	eval, err := NewEvaluation(env, pol, Options{NumEpisodes: 1})
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, eval.Run(ctx), test.ShouldNotBeNil)
}

func TestNewEvaluationErrors(t *testing.T) {
	env := testEnv(t)
	pol := policy.NewGaussian(rand.NewSource(1), env)

	_, err := NewEvaluation(env, pol, Options{NumEpisodes: -1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewEvaluation(env, pol, Options{Logging: true})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewEvaluation(env, pol, Options{Record: true})
	test.That(t, err, test.ShouldNotBeNil)
}
