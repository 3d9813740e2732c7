// Package sim defines the contract between environments and the physics
// backend that simulates them. A backend loads a model, steps and forwards
// it, exposes its joint-space and Cartesian state, and renders images from
// named cameras. Environments never reach past this contract.
//
// All joints exposed by a Simulator are scalar (hinge or slide) joints so
// that a joint index addresses exactly one position and one velocity.
package sim

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r1"
)

// Errors returned by backends
var (
	// ErrRenderUnavailable is returned when a backend cannot produce an
	// image, for example because no offscreen context exists
	ErrRenderUnavailable = errors.New("rendering unavailable")

	// ErrNoSuchName is returned when a named object does not exist
	ErrNoSuchName = errors.New("no such name")
)

// EqualityType is the type of an equality constraint. Values match the
// MuJoCo mjtEq enumeration.
type EqualityType int

const (
	EqConnect EqualityType = iota
	EqWeld
	EqJoint
	EqTendon
	EqDistance
)

func (e EqualityType) String() string {
	switch e {
	case EqConnect:
		return "connect"
	case EqWeld:
		return "weld"
	case EqJoint:
		return "joint"
	case EqTendon:
		return "tendon"
	case EqDistance:
		return "distance"
	}
	return "unknown"
}

// NumEqualityData is the number of parameters stored per equality
// constraint
const NumEqualityData = 11

// Equality is a snapshot of an equality constraint. For joint equalities
// the first object's position is the polynomial
// Data[0] + Data[1]*q2 + Data[2]*q2^2 + Data[3]*q2^3 + Data[4]*q2^4 of
// the second object's position q2, and Obj2 is -1 when the first joint is
// fixed at Data[0].
type Equality struct {
	Type   EqualityType
	Obj1   int
	Obj2   int
	Active bool
	Data   [NumEqualityData]float64
}

// Simulator is a loaded model together with its simulation state
type Simulator interface {
	// Timestep returns the duration of a single call to Step
	Timestep() float64

	NumJoints() int
	NumActuators() int
	NumTendons() int
	NumEqualities() int

	JointName(id int) string
	JointID(name string) (int, error)
	JointRange(id int) r1.Interval
	SetJointRange(id int, r r1.Interval)

	Equality(id int) Equality
	SetEqualityData(id, k int, value float64)

	BodyID(name string) (int, error)
	BodyPos(id int) [3]float64
	SetBodyPos(id int, pos [3]float64)

	GeomID(name string) (int, error)
	SetGeomAlpha(id int, alpha float64)
	SetGeomRadius(id int, radius float64)
	GeomXPos(id int) [3]float64
	GeomXMat(id int) [9]float64

	// GeomVelocity returns the linear and angular velocity of a geom in
	// the world frame
	GeomVelocity(id int) (linear, angular [3]float64)

	CameraID(name string) (int, error)
	SetCameraPose(id int, pos [3]float64, quat [4]float64)

	TendonRGBA(id int) [4]float64
	SetTendonRGBA(id int, rgba [4]float64)

	// Time returns the simulation time
	Time() float64

	QPos(joint int) float64
	SetQPos(joint int, value float64)
	QVel(joint int) float64
	SetQVel(joint int, value float64)
	QAcc(joint int) float64

	// Act returns a copy of the actuator activations
	Act() []float64
	SetAct(act []float64)

	// Ctrl returns a copy of the actuator controls
	Ctrl() []float64
	SetCtrl(ctrl []float64)

	// Reset restores the model's default state
	Reset()

	// Forward recomputes all derived quantities (dependent joints,
	// Cartesian poses, accelerations) without advancing time
	Forward()

	// Step advances the simulation by one timestep
	Step() error

	// Render renders an image from the named camera with a bottom-left
	// origin. Depth is only filled if depth is true.
	Render(width, height int, camera string, depth bool) (Frame, error)

	// NewViewer creates a viewer for the given render mode. The caller
	// owns the viewer and must close it.
	NewViewer(mode RenderMode) (Viewer, error)

	Close() error
}

// RenderMode is a way of rendering an environment
type RenderMode string

const (
	Human      RenderMode = "human"
	RGBArray   RenderMode = "rgb_array"
	DepthArray RenderMode = "depth_array"
)

// Viewer renders a simulation from a camera, either to a window or to an
// offscreen buffer
type Viewer interface {
	// Render renders the scene from the camera with the given id. A
	// negative id selects the viewer's free camera.
	Render(width, height, camera int) error

	// ReadPixels returns the most recently rendered image
	ReadPixels(width, height int, depth bool) (Frame, error)

	Close() error
}
