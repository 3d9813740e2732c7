package mobl

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/moblarms/environment"
	ts "github.com/samuelfneumann/moblarms/timestep"
	"github.com/samuelfneumann/moblarms/utils/floatutils"
	"github.com/samuelfneumann/moblarms/utils/matutils"
)

// VisualChannels is the number of channels of visual observations: red,
// green, blue and depth
const VisualChannels = 4

// NormalizeQPos normalizes a joint position given the joint's range. A
// range of zero width, which patch-v2 produces when the shifted range of
// shoulder rotation is clamped to one of its limits, normalizes to 0.
func NormalizeQPos(qpos float64, r r1.Interval, method string) float64 {
	width := floatutils.Width(r)
	if width == 0 {
		return 0
	}
	if method == RangeNormalization {
		return ((qpos-r.Min)/width - 0.5) * 2
	}
	return ((qpos - r.Min/width) - 0.5) * 2
}

// normalize maps a value in [0, 1] onto [-1, 1]
func normalize(x float64) float64 {
	return (x - 0.5) * 2
}

// Observe returns an observation of the current state. The
// proprioceptive part is the concatenation of the normalized positions,
// velocities and accelerations of independent joints, the fingertip
// position and the normalized muscle activations. The visual part is nil
// unless visual observations are enabled.
func (f *FixedEye) Observe() (ts.Observation, error) {
	obs := ts.Observation{Proprioception: f.proprioception()}

	if f.config.RenderObservations {
		visual, err := f.visual()
		if err != nil {
			return ts.Observation{}, errors.Wrap(err, "observe")
		}
		obs.Visual = visual
	}
	return obs, nil
}

func (f *FixedEye) proprioception() *mat.VecDense {
	n := len(f.independent)
	qpos := make([]float64, n)
	qvel := make([]float64, n)
	qacc := make([]float64, n)
	for i, j := range f.independent {
		qpos[i] = NormalizeQPos(f.sim.QPos(j), f.sim.JointRange(j),
			f.config.QPosNormalization)
		qvel[i] = f.sim.QVel(j)
		qacc[i] = f.sim.QAcc(j)
	}

	tip := f.sim.GeomXPos(f.fingertip)

	act := f.sim.Act()
	for i := range act {
		act[i] = normalize(act[i])
	}

	return matutils.VecConcat(qpos, qvel, qacc, tip[:], act)
}

// visual renders the oculomotor camera as a height x width x 4 tensor
// with a top-left origin and every channel in [-1, 1]
func (f *FixedEye) visual() (*tensor.Dense, error) {
	width, height := f.config.OcularImageWidth, f.config.OcularImageHeight
	frame, err := f.sim.Render(width, height, OculomotorCam, true)
	if err != nil {
		return nil, err
	}
	if frame.Depth == nil {
		return nil, errors.New("visual: backend returned no depth")
	}

	data := make([]float64, height*width*VisualChannels)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b := frame.RGBAt(x, y)
			i := (y*width + x) * VisualChannels
			data[i] = normalize(float64(r) / 255)
			data[i+1] = normalize(float64(g) / 255)
			data[i+2] = normalize(float64(b) / 255)
			data[i+3] = normalize(frame.DepthAt(x, y))
		}
	}

	return tensor.New(
		tensor.WithShape(height, width, VisualChannels),
		tensor.WithBacking(data),
	), nil
}

// GrabImage renders the oculomotor camera with the target estimate
// hidden and returns a 2 x height x width tensor holding the normalized
// green channel and depth
func (f *FixedEye) GrabImage(height, width int) (*tensor.Dense, error) {
	f.sim.SetGeomAlpha(f.targetEstimate, 0)

	frame, err := f.sim.Render(width, height, OculomotorCam, true)
	if err != nil {
		return nil, errors.Wrap(err, "grabImage")
	}

	data := make([]float64, 2*height*width)
	plane := height * width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			_, g, _ := frame.RGBAt(x, y)
			data[y*width+x] = normalize(float64(g) / 255)
			data[plane+y*width+x] = normalize(frame.DepthAt(x, y))
		}
	}

	return tensor.New(tensor.WithShape(2, height, width),
		tensor.WithBacking(data)), nil
}

// GrabProprioception returns the normalized positions, velocities and
// accelerations of the independent joints past the first two, followed by
// the fingertip position
func (f *FixedEye) GrabProprioception() *mat.VecDense {
	var qpos, qvel, qacc []float64
	for i, j := range f.independent {
		if i < 2 {
			continue
		}
		qpos = append(qpos, NormalizeQPos(f.sim.QPos(j), f.sim.JointRange(j),
			f.config.QPosNormalization))
		qvel = append(qvel, f.sim.QVel(j))
		qacc = append(qacc, f.sim.QAcc(j))
	}
	tip := f.sim.GeomXPos(f.fingertip)
	return matutils.VecConcat(qpos, qvel, qacc, tip[:])
}

// GrabTarget returns the target's y and z offsets and its radius, shifted
// by the width of the radius limits
func (f *FixedEye) GrabTarget() *mat.VecDense {
	limits := interval(f.config.TargetRadiusLimit)
	radius := f.targetRadius - floatutils.Width(limits)
	return mat.NewVecDense(3, []float64{f.targetPosition[1],
		f.targetPosition[2], radius})
}

// ProprioceptionLen returns the length of proprioceptive observations
func (f *FixedEye) ProprioceptionLen() int {
	return 3*len(f.independent) + 3 + f.sim.NumActuators()
}

// ObservationSpec returns the specification of proprioceptive
// observations
func (f *FixedEye) ObservationSpec() environment.Spec {
	return environment.NewBoxSpec(f.ProprioceptionLen(),
		environment.Observation, math.Inf(-1), math.Inf(1))
}

// ActionSpec returns the specification of actions, one change in
// activation per actuator
func (f *FixedEye) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(f.sim.NumActuators(), environment.Action,
		-1, 1)
}

// DiscountSpec returns the specification of the discount
func (f *FixedEye) DiscountSpec() environment.Spec {
	return environment.NewBoxSpec(1, environment.Discount,
		f.config.Discount, f.config.Discount)
}

// VisualShape returns the shape of visual observations, or nil if they
// are disabled
func (f *FixedEye) VisualShape() []int {
	if !f.config.RenderObservations {
		return nil
	}
	return []int{f.config.OcularImageHeight, f.config.OcularImageWidth,
		VisualChannels}
}
