// Package kinematic implements a pure Go simulation backend for serial
// limb models. Joints are driven by first-order muscle actuators and
// integrated independently with a semi-implicit Euler scheme; joints which
// are the target of an active joint equality follow their polynomial
// exactly instead of being integrated. Cartesian poses of bodies and geoms
// are computed by forward kinematics along a single chain, and named
// cameras can be rendered in software.
package kinematic

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/moblarms/environment/sim"
)

// Backend is the name this backend is registered under
const Backend = "kinematic"

func init() {
	sim.Register(Backend, func(path string,
		logger *zap.SugaredLogger) (sim.Simulator, error) {
		model := MoblArms()
		if path != "" {
			var err error
			model, err = LoadModel(path)
			if err != nil {
				return nil, err
			}
		}
		return New(model, logger)
	})
}

// frame is a position and orientation in the world
type frame struct {
	pos vec3
	rot mat3
}

type camera struct {
	name string
	pos  vec3
	rot  mat3
	fovy float64
}

// Sim is a kinematic simulation of a Model
type Sim struct {
	model  Model
	logger *zap.SugaredLogger

	jointIDs map[string]int
	ranges   []r1.Interval

	eqs []sim.Equality

	muscleJoint []int
	tendonRGBA  [][4]float64

	linkJoint []int
	linkFrame []frame

	// linkAxis holds each link's joint axis in world coordinates
	linkAxis []vec3

	bodyIDs  map[string]int
	bodyLink []int
	bodyPos  []vec3
	bodyXPos []frame

	geomIDs    map[string]int
	geomBody   []int
	geomRGBA   [][4]float64
	geomRadius []float64
	geomX      []frame

	cameraIDs map[string]int
	cameras   []camera

	time             float64
	qpos, qvel, qacc []float64
	act, ctrl        []float64

	closed bool
}

// New returns a simulation of the model in its default state
func New(model Model, logger *zap.SugaredLogger) (*Sim, error) {
	if err := model.Validate(); err != nil {
		return nil, errors.Wrap(err, "new: invalid model")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Sim{
		model:     model,
		logger:    logger.Named(Backend),
		jointIDs:  make(map[string]int, len(model.Joints)),
		bodyIDs:   make(map[string]int, len(model.Bodies)),
		geomIDs:   make(map[string]int, len(model.Geoms)),
		cameraIDs: make(map[string]int, len(model.Cameras)),
	}

	nq := len(model.Joints)
	s.ranges = make([]r1.Interval, nq)
	for i, j := range model.Joints {
		s.jointIDs[j.Name] = i
		s.ranges[i] = j.Range
	}
	s.qpos = make([]float64, nq)
	s.qvel = make([]float64, nq)
	s.qacc = make([]float64, nq)

	s.eqs = make([]sim.Equality, len(model.Equalities))
	for i, eq := range model.Equalities {
		e := sim.Equality{
			Type:   sim.EqJoint,
			Obj1:   s.jointIDs[eq.Joint1],
			Obj2:   -1,
			Active: eq.Active,
		}
		if eq.Joint2 != "" {
			e.Obj2 = s.jointIDs[eq.Joint2]
		}
		copy(e.Data[:], eq.Coef)
		s.eqs[i] = e
	}

	na := len(model.Muscles)
	s.muscleJoint = make([]int, na)
	s.tendonRGBA = make([][4]float64, na)
	for i, m := range model.Muscles {
		s.muscleJoint[i] = s.jointIDs[m.Joint]
		s.tendonRGBA[i] = defaultTendonRGBA
	}
	s.act = make([]float64, na)
	s.ctrl = make([]float64, na)

	links := make(map[string]int, len(model.Chain))
	s.linkJoint = make([]int, len(model.Chain))
	s.linkFrame = make([]frame, len(model.Chain))
	s.linkAxis = make([]vec3, len(model.Chain))
	for i, l := range model.Chain {
		links[l.Name] = i
		s.linkJoint[i] = -1
		if l.Joint != "" {
			s.linkJoint[i] = s.jointIDs[l.Joint]
		}
	}

	s.bodyLink = make([]int, len(model.Bodies))
	s.bodyPos = make([]vec3, len(model.Bodies))
	s.bodyXPos = make([]frame, len(model.Bodies))
	for i, b := range model.Bodies {
		s.bodyIDs[b.Name] = i
		s.bodyLink[i] = -1
		if b.Link != "" {
			s.bodyLink[i] = links[b.Link]
		}
		s.bodyPos[i] = vec3(b.Pos)
	}

	s.geomBody = make([]int, len(model.Geoms))
	s.geomRGBA = make([][4]float64, len(model.Geoms))
	s.geomRadius = make([]float64, len(model.Geoms))
	s.geomX = make([]frame, len(model.Geoms))
	for i, g := range model.Geoms {
		s.geomIDs[g.Name] = i
		s.geomBody[i] = s.bodyIDs[g.Body]
		s.geomRGBA[i] = g.RGBA
		s.geomRadius[i] = g.Radius
	}

	s.cameras = make([]camera, len(model.Cameras))
	for i, c := range model.Cameras {
		s.cameraIDs[c.Name] = i
		cam := camera{name: c.Name, pos: vec3(c.Pos), fovy: c.FovY}
		if c.LookAt != ([3]float64{}) {
			cam.rot = lookAt(cam.pos, vec3(c.LookAt), vec3{0, 0, 1})
		} else {
			cam.rot = quatToMat(c.Quat)
		}
		if cam.fovy <= 0 {
			cam.fovy = 45
		}
		s.cameras[i] = cam
	}

	s.Reset()
	s.Forward()

	s.logger.Debugw("loaded model", "name", model.Name, "joints", nq,
		"actuators", na, "equalities", len(s.eqs))
	return s, nil
}

// Model returns the model being simulated
func (s *Sim) Model() Model {
	return s.model
}

func (s *Sim) Timestep() float64  { return s.model.Timestep }
func (s *Sim) NumJoints() int     { return len(s.qpos) }
func (s *Sim) NumActuators() int  { return len(s.act) }
func (s *Sim) NumTendons() int    { return len(s.tendonRGBA) }
func (s *Sim) NumEqualities() int { return len(s.eqs) }

func (s *Sim) JointName(id int) string {
	return s.model.Joints[id].Name
}

func (s *Sim) JointID(name string) (int, error) {
	return lookup(s.jointIDs, "joint", name)
}

func (s *Sim) JointRange(id int) r1.Interval {
	return s.ranges[id]
}

func (s *Sim) SetJointRange(id int, r r1.Interval) {
	s.ranges[id] = r
}

func (s *Sim) Equality(id int) sim.Equality {
	return s.eqs[id]
}

func (s *Sim) SetEqualityData(id, k int, value float64) {
	s.eqs[id].Data[k] = value
}

func (s *Sim) BodyID(name string) (int, error) {
	return lookup(s.bodyIDs, "body", name)
}

// BodyPos returns the world position of a body as of the last call to
// Forward or Step
func (s *Sim) BodyPos(id int) [3]float64 {
	return s.bodyXPos[id].pos
}

// SetBodyPos moves a body which is not attached to the chain. Bodies on
// the chain are positioned by forward kinematics and are not affected.
func (s *Sim) SetBodyPos(id int, pos [3]float64) {
	if s.bodyLink[id] >= 0 {
		s.logger.Warnw("ignoring position of chain body",
			"body", s.model.Bodies[id].Name)
		return
	}
	s.bodyPos[id] = vec3(pos)
}

func (s *Sim) GeomID(name string) (int, error) {
	return lookup(s.geomIDs, "geom", name)
}

func (s *Sim) SetGeomAlpha(id int, alpha float64) {
	s.geomRGBA[id][3] = alpha
}

func (s *Sim) SetGeomRadius(id int, radius float64) {
	s.geomRadius[id] = radius
}

func (s *Sim) GeomXPos(id int) [3]float64 {
	return s.geomX[id].pos
}

func (s *Sim) GeomXMat(id int) [9]float64 {
	return s.geomX[id].rot
}

func (s *Sim) CameraID(name string) (int, error) {
	return lookup(s.cameraIDs, "camera", name)
}

func (s *Sim) SetCameraPose(id int, pos [3]float64, quat [4]float64) {
	s.cameras[id].pos = vec3(pos)
	s.cameras[id].rot = quatToMat(quat)
}

func (s *Sim) TendonRGBA(id int) [4]float64 {
	return s.tendonRGBA[id]
}

func (s *Sim) SetTendonRGBA(id int, rgba [4]float64) {
	s.tendonRGBA[id] = rgba
}

func (s *Sim) Time() float64 { return s.time }

func (s *Sim) QPos(joint int) float64           { return s.qpos[joint] }
func (s *Sim) SetQPos(joint int, value float64) { s.qpos[joint] = value }
func (s *Sim) QVel(joint int) float64           { return s.qvel[joint] }
func (s *Sim) SetQVel(joint int, value float64) { s.qvel[joint] = value }
func (s *Sim) QAcc(joint int) float64           { return s.qacc[joint] }

func (s *Sim) Act() []float64 {
	return append([]float64(nil), s.act...)
}

func (s *Sim) SetAct(act []float64) {
	copy(s.act, act)
}

func (s *Sim) Ctrl() []float64 {
	return append([]float64(nil), s.ctrl...)
}

func (s *Sim) SetCtrl(ctrl []float64) {
	copy(s.ctrl, ctrl)
}

// Reset restores the default joint positions and zeroes velocities,
// activations, controls and time. Model parameters such as joint ranges
// and equality data keep their current values.
func (s *Sim) Reset() {
	s.time = 0
	for i, j := range s.model.Joints {
		s.qpos[i] = j.Ref
		s.qvel[i] = 0
		s.qacc[i] = 0
	}
	for i := range s.act {
		s.act[i] = 0
		s.ctrl[i] = 0
	}
}

// Close releases the simulation. The kinematic backend holds no external
// resources, so Close only marks the simulation closed.
func (s *Sim) Close() error {
	if s.closed {
		return errors.New("close: simulation already closed")
	}
	s.closed = true
	return nil
}

func lookup(ids map[string]int, kind, name string) (int, error) {
	id, ok := ids[name]
	if !ok {
		return -1, errors.Wrapf(sim.ErrNoSuchName, "%v %q", kind, name)
	}
	return id, nil
}
