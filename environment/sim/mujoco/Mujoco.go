//go:build mujoco

// Package mujoco implements a simulation backend on top of the MuJoCo C
// library. It links against the library without OpenGL, so offscreen
// rendering and viewers are unavailable.
//
// The backend requires MuJoCo 2.1 or later. Headers and the shared library
// are located through CGO_CFLAGS and CGO_LDFLAGS.
package mujoco

// #cgo CFLAGS: -O2 -pthread
// #cgo LDFLAGS: -lmujoco
// #include <stdlib.h>
// #include "mujoco.h"
import "C"

import (
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/moblarms/environment/sim"
)

// Backend is the name this backend is registered under
const Backend = "mujoco"

const neqData = int(C.mjNEQDATA)

func init() {
	sim.Register(Backend, func(path string,
		logger *zap.SugaredLogger) (sim.Simulator, error) {
		return New(path, logger)
	})
}

// Sim is a MuJoCo model and its data
type Sim struct {
	model  *C.mjModel
	data   *C.mjData
	logger *zap.SugaredLogger

	njnt, nu, na, ntendon, neq int
	ngeom, nbody, ncam         int

	qposAdr, dofAdr []int
}

// New loads an MJCF model
func New(path string, logger *zap.SugaredLogger) (*Sim, error) {
	if path == "" {
		return nil, errors.New("new: the mujoco backend needs a model file")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	model, data, err := loadXML(path)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not load XML")
	}

	s := &Sim{
		model:   model,
		data:    data,
		logger:  logger.Named(Backend),
		njnt:    int(model.njnt),
		nu:      int(model.nu),
		na:      int(model.na),
		ntendon: int(model.ntendon),
		neq:     int(model.neq),
		ngeom:   int(model.ngeom),
		nbody:   int(model.nbody),
		ncam:    int(model.ncam),
	}

	types := intSlice(model.jnt_type, s.njnt)
	s.qposAdr = make([]int, s.njnt)
	s.dofAdr = make([]int, s.njnt)
	qposAdr := intSlice(model.jnt_qposadr, s.njnt)
	dofAdr := intSlice(model.jnt_dofadr, s.njnt)
	for j := 0; j < s.njnt; j++ {
		t := int(types[j])
		if t != int(C.mjJNT_HINGE) && t != int(C.mjJNT_SLIDE) {
			s.Close()
			return nil, errors.Errorf("new: joint %q is not scalar",
				s.JointName(j))
		}
		s.qposAdr[j] = int(qposAdr[j])
		s.dofAdr[j] = int(dofAdr[j])
	}

	s.logger.Debugw("loaded model", "path", path, "joints", s.njnt,
		"actuators", s.nu, "equalities", s.neq)
	return s, nil
}

func loadXML(file string) (*C.mjModel, *C.mjData, error) {
	modelName := C.CString(file)
	defer C.free(unsafe.Pointer(modelName))

	var errBuf [1000]C.char
	model := C.mj_loadXML(modelName, nil, &errBuf[0], C.int(len(errBuf)))
	if model == nil {
		return nil, nil, errors.Errorf("could not construct model: %v",
			C.GoString(&errBuf[0]))
	}

	data := C.mj_makeData(model)
	if data == nil {
		C.mj_deleteModel(model)
		return nil, nil, errors.New("could not construct mjData")
	}
	return model, data, nil
}

// f64Slice views a C double array as a Go slice without copying
func f64Slice(array *C.mjtNum, n int) []float64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(array)), n)
}

func f32Slice(array *C.float, n int) []float32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(array)), n)
}

func intSlice(array *C.int, n int) []C.int {
	if n == 0 {
		return nil
	}
	return unsafe.Slice(array, n)
}

func (s *Sim) Timestep() float64 { return float64(s.model.opt.timestep) }

func (s *Sim) NumJoints() int     { return s.njnt }
func (s *Sim) NumActuators() int  { return s.nu }
func (s *Sim) NumTendons() int    { return s.ntendon }
func (s *Sim) NumEqualities() int { return s.neq }

func (s *Sim) name(obj C.int, id int) string {
	return C.GoString(C.mj_id2name(s.model, obj, C.int(id)))
}

func (s *Sim) id(obj C.int, kind, name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	id := int(C.mj_name2id(s.model, obj, cName))
	if id < 0 {
		return -1, errors.Wrapf(sim.ErrNoSuchName, "%v %q", kind, name)
	}
	return id, nil
}

func (s *Sim) JointName(id int) string {
	return s.name(C.int(C.mjOBJ_JOINT), id)
}

func (s *Sim) JointID(name string) (int, error) {
	return s.id(C.int(C.mjOBJ_JOINT), "joint", name)
}

func (s *Sim) JointRange(id int) r1.Interval {
	r := f64Slice(s.model.jnt_range, 2*s.njnt)
	return r1.Interval{Min: r[2*id], Max: r[2*id+1]}
}

func (s *Sim) SetJointRange(id int, interval r1.Interval) {
	r := f64Slice(s.model.jnt_range, 2*s.njnt)
	r[2*id], r[2*id+1] = interval.Min, interval.Max
}

func (s *Sim) Equality(id int) sim.Equality {
	eq := sim.Equality{
		Type:   sim.EqualityType(intSlice(s.model.eq_type, s.neq)[id]),
		Obj1:   int(intSlice(s.model.eq_obj1id, s.neq)[id]),
		Obj2:   int(intSlice(s.model.eq_obj2id, s.neq)[id]),
		Active: unsafe.Slice((*uint8)(unsafe.Pointer(s.model.eq_active)), s.neq)[id] != 0,
	}
	data := f64Slice(s.model.eq_data, s.neq*neqData)
	copy(eq.Data[:], data[id*neqData:(id+1)*neqData])
	return eq
}

func (s *Sim) SetEqualityData(id, k int, value float64) {
	f64Slice(s.model.eq_data, s.neq*neqData)[id*neqData+k] = value
}

func (s *Sim) BodyID(name string) (int, error) {
	return s.id(C.int(C.mjOBJ_BODY), "body", name)
}

func (s *Sim) BodyPos(id int) [3]float64 {
	var pos [3]float64
	copy(pos[:], f64Slice(s.data.xpos, 3*s.nbody)[3*id:])
	return pos
}

func (s *Sim) SetBodyPos(id int, pos [3]float64) {
	copy(f64Slice(s.model.body_pos, 3*s.nbody)[3*id:3*id+3], pos[:])
}

func (s *Sim) GeomID(name string) (int, error) {
	return s.id(C.int(C.mjOBJ_GEOM), "geom", name)
}

func (s *Sim) SetGeomAlpha(id int, alpha float64) {
	f32Slice(s.model.geom_rgba, 4*s.ngeom)[4*id+3] = float32(alpha)
}

// SetGeomRadius sets the first size parameter of a geom, which is the
// radius of spheres, capsules and cylinders
func (s *Sim) SetGeomRadius(id int, radius float64) {
	f64Slice(s.model.geom_size, 3*s.ngeom)[3*id] = radius
}

func (s *Sim) GeomXPos(id int) [3]float64 {
	var pos [3]float64
	copy(pos[:], f64Slice(s.data.geom_xpos, 3*s.ngeom)[3*id:])
	return pos
}

func (s *Sim) GeomXMat(id int) [9]float64 {
	var rot [9]float64
	copy(rot[:], f64Slice(s.data.geom_xmat, 9*s.ngeom)[9*id:])
	return rot
}

// GeomVelocity returns the velocity of a geom in the world frame
func (s *Sim) GeomVelocity(id int) (linear, angular [3]float64) {
	var res [6]float64
	C.mj_objectVelocity(s.model, s.data, C.int(C.mjOBJ_GEOM), C.int(id),
		(*C.mjtNum)(unsafe.Pointer(&res[0])), 0)
	copy(angular[:], res[:3])
	copy(linear[:], res[3:])
	return linear, angular
}

func (s *Sim) CameraID(name string) (int, error) {
	return s.id(C.int(C.mjOBJ_CAMERA), "camera", name)
}

func (s *Sim) SetCameraPose(id int, pos [3]float64, quat [4]float64) {
	copy(f64Slice(s.model.cam_pos, 3*s.ncam)[3*id:3*id+3], pos[:])
	copy(f64Slice(s.model.cam_quat, 4*s.ncam)[4*id:4*id+4], quat[:])
}

func (s *Sim) TendonRGBA(id int) [4]float64 {
	src := f32Slice(s.model.tendon_rgba, 4*s.ntendon)[4*id : 4*id+4]
	var rgba [4]float64
	for i, v := range src {
		rgba[i] = float64(v)
	}
	return rgba
}

func (s *Sim) SetTendonRGBA(id int, rgba [4]float64) {
	dst := f32Slice(s.model.tendon_rgba, 4*s.ntendon)[4*id : 4*id+4]
	for i, v := range rgba {
		dst[i] = float32(v)
	}
}

func (s *Sim) Time() float64 { return float64(s.data.time) }

func (s *Sim) QPos(joint int) float64 {
	return f64Slice(s.data.qpos, int(s.model.nq))[s.qposAdr[joint]]
}

func (s *Sim) SetQPos(joint int, value float64) {
	f64Slice(s.data.qpos, int(s.model.nq))[s.qposAdr[joint]] = value
}

func (s *Sim) QVel(joint int) float64 {
	return f64Slice(s.data.qvel, int(s.model.nv))[s.dofAdr[joint]]
}

func (s *Sim) SetQVel(joint int, value float64) {
	f64Slice(s.data.qvel, int(s.model.nv))[s.dofAdr[joint]] = value
}

func (s *Sim) QAcc(joint int) float64 {
	return f64Slice(s.data.qacc, int(s.model.nv))[s.dofAdr[joint]]
}

func (s *Sim) Act() []float64 {
	return append([]float64(nil), f64Slice(s.data.act, s.na)...)
}

func (s *Sim) SetAct(act []float64) {
	copy(f64Slice(s.data.act, s.na), act)
}

func (s *Sim) Ctrl() []float64 {
	return append([]float64(nil), f64Slice(s.data.ctrl, s.nu)...)
}

func (s *Sim) SetCtrl(ctrl []float64) {
	copy(f64Slice(s.data.ctrl, s.nu), ctrl)
}

func (s *Sim) Reset() {
	C.mj_resetData(s.model, s.data)
}

func (s *Sim) Forward() {
	C.mj_forward(s.model, s.data)
}

func (s *Sim) Step() error {
	if s.data == nil {
		return errors.New("step: simulation closed")
	}
	C.mj_step(s.model, s.data)
	return nil
}

// Render is unavailable without an OpenGL context
func (s *Sim) Render(width, height int, camera string, depth bool) (sim.Frame,
	error) {
	return sim.Frame{}, errors.Wrap(sim.ErrRenderUnavailable,
		"render: mujoco backend is built without OpenGL")
}

// NewViewer is unavailable without an OpenGL context
func (s *Sim) NewViewer(mode sim.RenderMode) (sim.Viewer, error) {
	return nil, errors.Wrapf(sim.ErrRenderUnavailable,
		"newViewer: mujoco backend cannot open %v viewers", mode)
}

func (s *Sim) Close() error {
	if s.data == nil {
		return errors.New("close: simulation already closed")
	}
	C.mj_deleteData(s.data)
	C.mj_deleteModel(s.model)
	s.data, s.model = nil, nil
	return nil
}
