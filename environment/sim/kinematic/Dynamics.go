package kinematic

import (
	"math"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/moblarms/utils/floatutils"
)

// finiteDiff is the step used to differentiate forward kinematics
const finiteDiff = 1e-6

// Step advances the simulation by one timestep
func (s *Sim) Step() error {
	if s.closed {
		return errors.New("step: simulation closed")
	}

	s.accelerate()
	dt := s.model.Timestep

	for i, m := range s.model.Muscles {
		s.act[i] = activate(m, s.act[i], s.ctrl[i], dt)
	}

	dependent := s.dependent()
	for j := range s.qpos {
		if dependent[j] {
			continue
		}
		s.qvel[j] += dt * s.qacc[j]
		s.qpos[j] += dt * s.qvel[j]

		// Joint limits are hard stops
		r := s.ranges[j]
		if s.qpos[j] < r.Min || s.qpos[j] > r.Max {
			s.qpos[j] = floatutils.Clip(s.qpos[j], r.Min, r.Max)
			s.qvel[j] = 0
		}
	}

	for j := range s.qpos {
		if math.IsNaN(s.qpos[j]) || math.IsInf(s.qpos[j], 0) {
			return errors.Errorf("step: joint %q diverged at time %v",
				s.model.Joints[j].Name, s.time)
		}
	}

	s.constrain()
	s.time += dt
	s.kinematics()
	return nil
}

// Forward recomputes dependent joints, Cartesian poses and joint
// accelerations from the current state without advancing time
func (s *Sim) Forward() {
	s.constrain()
	s.kinematics()
	s.accelerate()
}

// activate integrates the activation of a muscle for one timestep. The
// time constant depends on whether the muscle is activating or
// deactivating and on its current activation.
func activate(m Muscle, act, ctrl, dt float64) float64 {
	ctrl = floatutils.Clip(ctrl, 0, 1)
	act = floatutils.Clip(act, 0, 1)

	var tau float64
	if ctrl > act {
		tau = m.TauAct * (0.5 + 1.5*act)
	} else {
		tau = m.TauDeact / (0.5 + 1.5*act)
	}

	return floatutils.Clip(act+dt*(ctrl-act)/tau, 0, 1)
}

// dependent returns whether each joint is constrained by an active joint
// equality
func (s *Sim) dependent() []bool {
	dep := make([]bool, len(s.qpos))
	for _, eq := range s.eqs {
		if eq.Active {
			dep[eq.Obj1] = true
		}
	}
	return dep
}

// accelerate computes joint accelerations from muscle and passive torques
func (s *Sim) accelerate() {
	torque := make([]float64, len(s.qpos))
	for i, m := range s.model.Muscles {
		torque[s.muscleJoint[i]] += m.MomentArm * m.MaxForce * s.act[i]
	}

	dependent := s.dependent()
	for j, joint := range s.model.Joints {
		if dependent[j] {
			continue
		}
		torque[j] -= joint.Damping*s.qvel[j] +
			joint.Stiffness*(s.qpos[j]-joint.Ref)
		s.qacc[j] = torque[j] / joint.Armature
	}

	for _, eq := range s.eqs {
		if !eq.Active {
			continue
		}
		if eq.Obj2 < 0 {
			s.qacc[eq.Obj1] = 0
			continue
		}
		s.qacc[eq.Obj1] = derivative(eq.Data, s.qpos[eq.Obj2]) *
			s.qacc[eq.Obj2]
	}
}

// constrain sets the position and velocity of every dependent joint from
// its active equality
func (s *Sim) constrain() {
	for _, eq := range s.eqs {
		if !eq.Active {
			continue
		}
		if eq.Obj2 < 0 {
			s.qpos[eq.Obj1] = eq.Data[0]
			s.qvel[eq.Obj1] = 0
			continue
		}
		q2 := s.qpos[eq.Obj2]
		s.qpos[eq.Obj1] = polynomial(eq.Data, q2)
		s.qvel[eq.Obj1] = derivative(eq.Data, q2) * s.qvel[eq.Obj2]
	}
}

// polynomial evaluates the quartic stored in the first five equality
// parameters
func polynomial(data [11]float64, x float64) float64 {
	return data[0] + x*(data[1]+x*(data[2]+x*(data[3]+x*data[4])))
}

func derivative(data [11]float64, x float64) float64 {
	return data[1] + x*(2*data[2]+x*(3*data[3]+x*4*data[4]))
}

// kinematics computes the world frames of all links, bodies and geoms
func (s *Sim) kinematics() {
	s.chain(s.qpos, s.linkFrame, s.linkAxis)

	for b := range s.bodyXPos {
		if l := s.bodyLink[b]; l >= 0 {
			s.bodyXPos[b] = s.linkFrame[l]
		} else {
			s.bodyXPos[b] = frame{pos: s.bodyPos[b], rot: identity()}
		}
	}

	for g, geom := range s.model.Geoms {
		body := s.bodyXPos[s.geomBody[g]]
		s.geomX[g] = frame{
			pos: body.pos.add(body.rot.apply(vec3(geom.Offset))),
			rot: body.rot,
		}
	}
}

// chain computes the frame at the end of each link for joint positions
// qpos. If axes is not nil, it is filled with each link's joint axis in
// world coordinates.
func (s *Sim) chain(qpos []float64, frames []frame, axes []vec3) {
	cur := frame{pos: vec3(s.model.Base), rot: identity()}
	for i, l := range s.model.Chain {
		axis := vec3(l.Axis)
		if axes != nil {
			axes[i] = cur.rot.apply(axis).unit()
		}
		if j := s.linkJoint[i]; j >= 0 {
			cur.rot = cur.rot.mul(axisAngle(axis, qpos[j]))
		}
		cur.pos = cur.pos.add(cur.rot.apply(vec3(l.Offset)))
		frames[i] = cur
	}
}

// GeomVelocity returns the linear and angular velocity of a geom. The
// linear velocity is the central difference of the geom's position along
// the current joint velocity, which equals the Jacobian applied to qvel.
func (s *Sim) GeomVelocity(id int) (linear, angular [3]float64) {
	link := s.bodyLink[s.geomBody[id]]
	if link < 0 {
		return
	}
	offset := vec3(s.model.Geoms[id].Offset)

	at := func(h float64) vec3 {
		q := make([]float64, len(s.qpos))
		for j := range q {
			q[j] = s.qpos[j] + h*s.qvel[j]
		}
		frames := make([]frame, len(s.model.Chain))
		s.chain(q, frames, nil)
		f := frames[link]
		return f.pos.add(f.rot.apply(offset))
	}
	v := at(finiteDiff).sub(at(-finiteDiff)).scale(1 / (2 * finiteDiff))

	var w vec3
	for i := 0; i <= link; i++ {
		if j := s.linkJoint[i]; j >= 0 {
			w = w.add(s.linkAxis[i].scale(s.qvel[j]))
		}
	}

	return v, w
}
