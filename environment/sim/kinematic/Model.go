package kinematic

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/moblarms/environment/sim"
)

// Joint is a scalar hinge joint
type Joint struct {
	Name      string      `json:"name"`
	Range     r1.Interval `json:"range"`
	Armature  float64     `json:"armature"`
	Damping   float64     `json:"damping"`
	Stiffness float64     `json:"stiffness"`
	Ref       float64     `json:"ref"`
}

// Muscle is a first-order activation actuator producing torque about a
// single joint. Each muscle owns a tendon of the same index, which is
// used for colouring rendered segments.
type Muscle struct {
	Name      string  `json:"name"`
	Joint     string  `json:"joint"`
	MomentArm float64 `json:"moment_arm"`
	MaxForce  float64 `json:"max_force"`
	TauAct    float64 `json:"tau_act"`
	TauDeact  float64 `json:"tau_deact"`
}

// Link is one element of the serial kinematic chain. The chain's frame is
// first rotated about Axis by the position of Joint (if any) and then
// translated by Offset, expressed in the rotated frame.
type Link struct {
	Name   string     `json:"name"`
	Joint  string     `json:"joint"`
	Axis   [3]float64 `json:"axis"`
	Offset [3]float64 `json:"offset"`
}

// Body is a frame geoms attach to. A body either follows the end of a
// chain link or sits at a fixed world position which may be moved.
type Body struct {
	Name string     `json:"name"`
	Link string     `json:"link"`
	Pos  [3]float64 `json:"pos"`
}

// Geom is a sphere attached to a body
type Geom struct {
	Name   string     `json:"name"`
	Body   string     `json:"body"`
	Offset [3]float64 `json:"offset"`
	Radius float64    `json:"radius"`
	RGBA   [4]float64 `json:"rgba"`
}

// Camera is a pinhole camera. Either Quat or LookAt determines its
// orientation; LookAt takes precedence when non-zero.
type Camera struct {
	Name   string     `json:"name"`
	Pos    [3]float64 `json:"pos"`
	Quat   [4]float64 `json:"quat"`
	LookAt [3]float64 `json:"look_at"`
	FovY   float64    `json:"fovy"`
}

// JointEquality couples the position of Joint1 to a polynomial of the
// position of Joint2. An empty Joint2 fixes Joint1 at Coef[0].
type JointEquality struct {
	Joint1 string    `json:"joint1"`
	Joint2 string    `json:"joint2"`
	Coef   []float64 `json:"coef"`
	Active bool      `json:"active"`
}

// Model is a complete description of a kinematic scene
type Model struct {
	Name       string          `json:"name"`
	Timestep   float64         `json:"timestep"`
	Near       float64         `json:"near"`
	Far        float64         `json:"far"`
	Base       [3]float64      `json:"base"`
	Joints     []Joint         `json:"joints"`
	Equalities []JointEquality `json:"equalities"`
	Muscles    []Muscle        `json:"muscles"`
	Chain      []Link          `json:"chain"`
	Bodies     []Body          `json:"bodies"`
	Geoms      []Geom          `json:"geoms"`
	Cameras    []Camera        `json:"cameras"`
}

// LoadModel reads a JSON model description
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, errors.Wrap(err, "loadModel: could not read model")
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, errors.Wrapf(err, "loadModel: could not decode %v",
			path)
	}
	return m, m.Validate()
}

// Validate checks that every name referenced in the model exists
func (m Model) Validate() error {
	if m.Timestep <= 0 {
		return errors.Errorf("validate: timestep must be positive, got %v",
			m.Timestep)
	}
	if m.Far <= m.Near || m.Near <= 0 {
		return errors.Errorf("validate: invalid clipping planes [%v, %v]",
			m.Near, m.Far)
	}

	joints := make(map[string]bool, len(m.Joints))
	for _, j := range m.Joints {
		if joints[j.Name] {
			return errors.Errorf("validate: duplicate joint %q", j.Name)
		}
		joints[j.Name] = true
		if j.Armature <= 0 {
			return errors.Errorf("validate: joint %q must have positive "+
				"armature", j.Name)
		}
	}

	for i, eq := range m.Equalities {
		if !joints[eq.Joint1] {
			return errors.Wrapf(sim.ErrNoSuchName, "validate: equality %v "+
				"joint1 %q", i, eq.Joint1)
		}
		if eq.Joint2 != "" && !joints[eq.Joint2] {
			return errors.Wrapf(sim.ErrNoSuchName, "validate: equality %v "+
				"joint2 %q", i, eq.Joint2)
		}
		if len(eq.Coef) > 5 {
			return errors.Errorf("validate: equality %v has %v "+
				"coefficients, at most 5 allowed", i, len(eq.Coef))
		}
	}

	for _, mu := range m.Muscles {
		if !joints[mu.Joint] {
			return errors.Wrapf(sim.ErrNoSuchName, "validate: muscle %q "+
				"joint %q", mu.Name, mu.Joint)
		}
		if mu.TauAct <= 0 || mu.TauDeact <= 0 {
			return errors.Errorf("validate: muscle %q must have positive "+
				"time constants", mu.Name)
		}
	}

	links := make(map[string]bool, len(m.Chain))
	for _, l := range m.Chain {
		links[l.Name] = true
		if l.Joint != "" && !joints[l.Joint] {
			return errors.Wrapf(sim.ErrNoSuchName, "validate: link %q "+
				"joint %q", l.Name, l.Joint)
		}
	}

	bodies := make(map[string]bool, len(m.Bodies))
	for _, b := range m.Bodies {
		bodies[b.Name] = true
		if b.Link != "" && !links[b.Link] {
			return errors.Wrapf(sim.ErrNoSuchName, "validate: body %q "+
				"link %q", b.Name, b.Link)
		}
	}

	for _, g := range m.Geoms {
		if !bodies[g.Body] {
			return errors.Wrapf(sim.ErrNoSuchName, "validate: geom %q "+
				"body %q", g.Name, g.Body)
		}
	}

	return nil
}
