package mobl

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/moblarms/environment/sim/kinematic"
)

// testConfig returns a seeded configuration without visual observations
func testConfig() Config {
	c := DefaultConfig()
	c.RenderObservations = false
	c.Seed = 1
	return c
}

func newFixedEye(t *testing.T, model kinematic.Model, config Config,
	opts ...Option) (*FixedEye, error) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	s, err := kinematic.New(model, logger)
	test.That(t, err, test.ShouldBeNil)

	f, err := NewFixedEye(s, config, append(opts, WithLogger(logger))...)
	if err != nil {
		s.Close()
		return nil, err
	}
	t.Cleanup(func() { f.Close() })
	return f, nil
}

func mustFixedEye(t *testing.T, config Config, opts ...Option) *FixedEye {
	t.Helper()
	f, err := newFixedEye(t, kinematic.MoblArms(), config, opts...)
	test.That(t, err, test.ShouldBeNil)
	return f
}

func TestPartition(t *testing.T) {
	f := mustFixedEye(t, testConfig())

	independent, dependent := f.IndependentJoints(), f.DependentJoints()
	test.That(t, len(independent), test.ShouldEqual, 7)
	test.That(t, len(dependent), test.ShouldEqual, 13)

	var names []string
	for _, j := range independent {
		names = append(names, f.Sim().JointName(j))
	}
	test.That(t, names, test.ShouldResemble, []string{"elv_angle",
		"shoulder_elv", "shoulder_rot", "elbow_flexion", "pro_sup",
		"deviation", "flexion"})

	seen := make(map[int]bool)
	for _, j := range append(independent, dependent...) {
		test.That(t, seen[j], test.ShouldBeFalse)
		seen[j] = true
	}
	test.That(t, len(seen), test.ShouldEqual, f.Sim().NumJoints())

	for i := 1; i < len(dependent); i++ {
		test.That(t, dependent[i], test.ShouldBeGreaterThan, dependent[i-1])
	}

	// Accessors return copies
	independent[0] = -1
	test.That(t, f.IndependentJoints()[0], test.ShouldEqual, 10)
}

func TestPartitionInactiveEquality(t *testing.T) {
	model := kinematic.MoblArms()
	for i := range model.Equalities {
		model.Equalities[i].Active = false
	}

	f, err := newFixedEye(t, model, testConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.DependentJoints(), test.ShouldBeEmpty)
	test.That(t, len(f.IndependentJoints()), test.ShouldEqual, 20)
	test.That(t, f.ProprioceptionLen(), test.ShouldEqual, 3*20+3+14)
}

func TestZeroRangeJoint(t *testing.T) {
	model := kinematic.MoblArms()
	for i := range model.Joints {
		if model.Joints[i].Name == "deviation" {
			model.Joints[i].Range = r1.Interval{Min: 0.1, Max: 0.1}
		}
	}

	_, err := newFixedEye(t, model, testConfig())
	test.That(t, errors.Is(err, ErrZeroRangeJoint), test.ShouldBeTrue)
}

func TestInvalidConfig(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.ActionSampleFreq = 0 },
		func(c *Config) { c.ActionSampleFreq = 1000 },
		func(c *Config) { c.ShoulderVariant = "patch-v3" },
		func(c *Config) { c.QPosNormalization = "minmax" },
		func(c *Config) { c.TargetOrigin = []float64{0, 0} },
		func(c *Config) { c.TargetLimitsY = []float64{0.3, -0.3} },
		func(c *Config) { c.TargetRadiusLimit = []float64{0, 0.05} },
		func(c *Config) { c.EffortTerm = "metabolic" },
		func(c *Config) { c.RewardFunction = "sparse" },
		func(c *Config) { c.Callbacks = []string{"unknown"} },
		func(c *Config) {
			c.RenderObservations = true
			c.OcularImageWidth = 0
		},
	} {
		config := testConfig()
		mutate(&config)
		_, err := newFixedEye(t, kinematic.MoblArms(), config)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestFrameSkip(t *testing.T) {
	f := mustFixedEye(t, testConfig())
	test.That(t, f.FrameSkip(), test.ShouldEqual, 50)
	test.That(t, f.Dt(), test.ShouldAlmostEqual, 0.1)
	test.That(t, f.Metadata().FramesPerSecond, test.ShouldEqual, 10)

	config := testConfig()
	config.ActionSampleFreq = 100
	f = mustFixedEye(t, config)
	test.That(t, f.FrameSkip(), test.ShouldEqual, 5)
	test.That(t, f.Metadata().FramesPerSecond, test.ShouldEqual, 100)
}

func TestNormalizeQPos(t *testing.T) {
	r := r1.Interval{Min: 1, Max: 3}

	test.That(t, NormalizeQPos(1, r, RangeNormalization), test.ShouldEqual, -1)
	test.That(t, NormalizeQPos(2, r, RangeNormalization), test.ShouldEqual, 0)
	test.That(t, NormalizeQPos(3, r, RangeNormalization), test.ShouldEqual, 1)

	// Legacy normalization divides only the lower bound by the width
	test.That(t, NormalizeQPos(2, r, LegacyNormalization), test.ShouldEqual, 2)
	test.That(t, NormalizeQPos(0.5, r1.Interval{Min: 0, Max: 1},
		LegacyNormalization), test.ShouldEqual, 0)

	point := r1.Interval{Min: -1.5, Max: -1.5}
	test.That(t, NormalizeQPos(-1.5, point, RangeNormalization), test.ShouldEqual, 0)
	test.That(t, NormalizeQPos(-1.5, point, LegacyNormalization), test.ShouldEqual, 0)
}

func TestObserveProprioception(t *testing.T) {
	config := testConfig()
	config.QPosNormalization = RangeNormalization
	f := mustFixedEye(t, config)

	obs, err := f.ResetModel()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, obs.HasVisual(), test.ShouldBeFalse)
	test.That(t, f.VisualShape(), test.ShouldBeNil)

	n := len(f.IndependentJoints())
	test.That(t, f.ProprioceptionLen(), test.ShouldEqual, 3*n+3+14)
	test.That(t, obs.Proprioception.Len(), test.ShouldEqual,
		f.ProprioceptionLen())
	test.That(t, f.ObservationSpec().Len(), test.ShouldEqual,
		f.ProprioceptionLen())

	s := f.Sim()
	for i, j := range f.IndependentJoints() {
		test.That(t, obs.Proprioception.AtVec(i), test.ShouldAlmostEqual,
			NormalizeQPos(s.QPos(j), s.JointRange(j), RangeNormalization))
		test.That(t, obs.Proprioception.AtVec(n+i), test.ShouldEqual,
			s.QVel(j))
		test.That(t, obs.Proprioception.AtVec(2*n+i), test.ShouldEqual,
			s.QAcc(j))
	}

	tip := f.State().FingertipXPos
	for k := 0; k < 3; k++ {
		test.That(t, obs.Proprioception.AtVec(3*n+k), test.ShouldEqual,
			tip[k])
	}

	for i, a := range s.Act() {
		v := obs.Proprioception.AtVec(3*n + 3 + i)
		test.That(t, v, test.ShouldAlmostEqual, (a-0.5)*2)
		test.That(t, v, test.ShouldBeBetweenOrEqual, -1, 1)
	}
}

func TestObserveVisual(t *testing.T) {
	config := testConfig()
	config.RenderObservations = true
	config.OcularImageHeight = 20
	config.OcularImageWidth = 30
	f := mustFixedEye(t, config)

	obs, err := f.ResetModel()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, obs.HasVisual(), test.ShouldBeTrue)
	test.That(t, []int(obs.Visual.Shape()), test.ShouldResemble,
		[]int{20, 30, VisualChannels})
	test.That(t, f.VisualShape(), test.ShouldResemble,
		[]int{20, 30, VisualChannels})

	data := obs.Visual.Data().([]float64)
	for _, v := range data {
		test.That(t, v, test.ShouldBeBetweenOrEqual, -1, 1)
	}

	// The green target sits in the middle of the oculomotor view
	centre := (10*30 + 15) * VisualChannels
	test.That(t, data[centre+1], test.ShouldBeGreaterThan, data[centre])
	test.That(t, data[centre+1], test.ShouldBeGreaterThan, data[centre+2])
	test.That(t, data[centre+3], test.ShouldBeLessThan, 0)
}

func TestGrab(t *testing.T) {
	f := mustFixedEye(t, testConfig())
	_, err := f.ResetModel()
	test.That(t, err, test.ShouldBeNil)

	img, err := f.GrabImage(12, 16)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, []int(img.Shape()), test.ShouldResemble, []int{2, 12, 16})

	proprio := f.GrabProprioception()
	test.That(t, proprio.Len(), test.ShouldEqual,
		3*(len(f.IndependentJoints())-2)+3)

	f.SetTargetRadius(0.05)
	f.SetTargetPosition([3]float64{0, 0.1, -0.2})
	target := f.GrabTarget()
	test.That(t, target.AtVec(0), test.ShouldEqual, 0.1)
	test.That(t, target.AtVec(1), test.ShouldEqual, -0.2)
	test.That(t, target.AtVec(2), test.ShouldAlmostEqual, 0.05-0.04)
}

func TestSetCtrl(t *testing.T) {
	f := mustFixedEye(t, testConfig())
	s := f.Sim()
	na := s.NumActuators()

	act := make([]float64, na)
	for i := range act {
		act[i] = float64(i) / float64(na)
	}
	s.SetAct(act)

	action := mat.NewVecDense(na, nil)
	action.SetVec(0, -1)
	action.SetVec(1, 0.25)
	action.SetVec(na-1, 1)
	test.That(t, f.SetCtrl(action), test.ShouldBeNil)

	ctrl := s.Ctrl()
	test.That(t, ctrl[0], test.ShouldEqual, 0)
	test.That(t, ctrl[1], test.ShouldAlmostEqual, act[1]+0.25)
	test.That(t, ctrl[2], test.ShouldEqual, act[2])
	test.That(t, ctrl[na-1], test.ShouldEqual, 1)

	// Away from the bounds the mapping is a bijection
	for i := range act {
		action.SetVec(i, 0.5-act[i])
	}
	test.That(t, f.SetCtrl(action), test.ShouldBeNil)
	for _, c := range s.Ctrl() {
		test.That(t, c, test.ShouldAlmostEqual, 0.5)
	}

	err := f.SetCtrl(mat.NewVecDense(na-1, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestResetModel(t *testing.T) {
	f := mustFixedEye(t, testConfig())
	s := f.Sim()

	test.That(t, f.DoSimulation(), test.ShouldBeNil)
	f.IncrementSteps()

	for episode := 0; episode < 5; episode++ {
		_, err := f.ResetModel()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, f.Steps(), test.ShouldEqual, 0)
		test.That(t, s.Time(), test.ShouldEqual, 0)

		for _, j := range f.IndependentJoints() {
			test.That(t, s.QVel(j), test.ShouldBeBetweenOrEqual,
				InitJointBounds.Min, InitJointBounds.Max)
			test.That(t, s.QPos(j), test.ShouldBeBetweenOrEqual,
				InitJointBounds.Min, InitJointBounds.Max)
		}
		for _, a := range s.Act() {
			test.That(t, a, test.ShouldBeBetweenOrEqual, 0, 1)
		}
		for _, c := range s.Ctrl() {
			test.That(t, c, test.ShouldEqual, 0)
		}
	}
}

func TestSeededReset(t *testing.T) {
	a := mustFixedEye(t, testConfig())
	b := mustFixedEye(t, testConfig())

	obsA, err := a.ResetModel()
	test.That(t, err, test.ShouldBeNil)
	obsB, err := b.ResetModel()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(obsA.Proprioception, obsB.Proprioception),
		test.ShouldBeTrue)

	config := testConfig()
	config.Seed = 2
	c := mustFixedEye(t, config)
	obsC, err := c.ResetModel()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(obsA.Proprioception, obsC.Proprioception),
		test.ShouldBeFalse)
}

func TestState(t *testing.T) {
	f := mustFixedEye(t, testConfig())
	_, err := f.ResetModel()
	test.That(t, err, test.ShouldBeNil)

	action := mat.NewVecDense(f.Sim().NumActuators(), nil)
	action.SetVec(2, 1)
	test.That(t, f.SetCtrl(action), test.ShouldBeNil)
	test.That(t, f.DoSimulation(), test.ShouldBeNil)
	f.IncrementSteps()

	state := f.State()
	test.That(t, state.Step, test.ShouldEqual, 1)
	test.That(t, state.Timestep, test.ShouldAlmostEqual, f.Dt())
	test.That(t, len(state.QPos), test.ShouldEqual, 7)
	test.That(t, len(state.QVel), test.ShouldEqual, 7)
	test.That(t, len(state.QAcc), test.ShouldEqual, 7)
	test.That(t, len(state.Act), test.ShouldEqual, 14)
	test.That(t, state.Ctrl, test.ShouldResemble, f.Sim().Ctrl())
	test.That(t, state.Termination, test.ShouldBeFalse)

	// The fingertip orientation is a rotation matrix
	m := mat.NewDense(3, 3, state.FingertipXMat[:])
	test.That(t, math.Abs(mat.Det(m)), test.ShouldAlmostEqual, 1, 1e-9)
}

func TestTarget(t *testing.T) {
	f := mustFixedEye(t, testConfig())

	test.That(t, f.TargetOrigin(), test.ShouldResemble,
		[3]float64{0.5, 0, 0.8})
	test.That(t, f.TargetRadius(), test.ShouldEqual, 0.05)

	f.SetTargetPosition([3]float64{0, 0.1, 0.2})
	test.That(t, f.TargetPosition(), test.ShouldResemble,
		[3]float64{0, 0.1, 0.2})

	tip := f.State().FingertipXPos
	want := math.Sqrt(math.Pow(tip[0]-0.5, 2) + math.Pow(tip[1]-0.1, 2) +
		math.Pow(tip[2]-1.0, 2))
	test.That(t, f.TargetDistance(), test.ShouldAlmostEqual, want)

	for i := 0; i < 20; i++ {
		f.SampleTargetRadius()
		test.That(t, f.TargetRadius(), test.ShouldBeBetweenOrEqual, 0.01,
			0.05)
	}
}

func TestCallbacks(t *testing.T) {
	config := testConfig()
	config.Callbacks = []string{FreqCurriculumName}
	config.FreqCurriculumSteps = 1000
	f := mustFixedEye(t, config)

	cb, ok := f.LookupCallback(FreqCurriculumName)
	test.That(t, ok, test.ShouldBeTrue)
	curriculum := cb.(*FreqCurriculum)
	test.That(t, curriculum.Scale(), test.ShouldEqual, 0)

	test.That(t, f.Callback(FreqCurriculumName, 500), test.ShouldBeNil)
	test.That(t, curriculum.Scale(), test.ShouldEqual, 0.5)
	test.That(t, f.Callback(FreqCurriculumName, 5000), test.ShouldBeNil)
	test.That(t, curriculum.Scale(), test.ShouldEqual, 1)

	test.That(t, f.Callback("unknown", 1), test.ShouldNotBeNil)

	_, err := NewFreqCurriculum(0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRewardFuncs(t *testing.T) {
	test.That(t, ExpReward(0), test.ShouldEqual, 0)
	test.That(t, ExpReward(0.1), test.ShouldAlmostEqual,
		(math.Exp(-1)-1)/10)
	test.That(t, ExpReward(100), test.ShouldAlmostEqual, -0.1)
	test.That(t, NegativeDistance(0.3), test.ShouldEqual, -0.3)

	r, err := RewardFuncByName("negative_distance")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r(2), test.ShouldEqual, -2)
	_, err = RewardFuncByName("sparse")
	test.That(t, err, test.ShouldNotBeNil)
}
