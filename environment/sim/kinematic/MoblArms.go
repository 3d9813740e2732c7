package kinematic

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Names of objects in the built-in upper-limb model
const (
	Fingertip       = "hand_2distph"
	TargetBody      = "target"
	TargetSphere    = "target-sphere"
	TargetPlane     = "target-plane"
	TargetEstimate  = "target-sphere-estimate"
	OculomotorCam   = "oculomotor"
	ForTestingCam   = "for_testing"
	TrackCam        = "track"
	DefaultTimestep = 0.002
)

func hinge(name string, lo, hi, armature, damping, stiffness float64) Joint {
	return Joint{
		Name:      name,
		Range:     r1.Interval{Min: lo, Max: hi},
		Armature:  armature,
		Damping:   damping,
		Stiffness: stiffness,
	}
}

func girdle(name string) Joint {
	return hinge(name, -math.Pi, math.Pi, 0.01, 0.1, 0)
}

func muscle(name, joint string, arm, force float64) Muscle {
	return Muscle{
		Name:      name,
		Joint:     joint,
		MomentArm: arm,
		MaxForce:  force,
		TauAct:    0.01,
		TauDeact:  0.04,
	}
}

func couple(joint1, joint2 string, coef ...float64) JointEquality {
	return JointEquality{Joint1: joint1, Joint2: joint2, Coef: coef,
		Active: true}
}

// MoblArms returns a simplified right upper-limb model in the layout of
// the MoBL arms model: shoulder girdle joints slaved to the glenohumeral
// joints through joint equalities, seven independent degrees of freedom
// from the plane of elevation down to wrist flexion, and an antagonistic
// muscle pair per independent joint.
func MoblArms() Model {
	joints := []Joint{
		girdle("sternoclavicular_r2"),
		girdle("sternoclavicular_r3"),
		girdle("unrotscap_r3"),
		girdle("unrotscap_r2"),
		girdle("acromioclavicular_r2"),
		girdle("acromioclavicular_r3"),
		girdle("acromioclavicular_r1"),
		girdle("unrothum_r1"),
		girdle("unrothum_r3"),
		girdle("unrothum_r2"),
		hinge("elv_angle", -1.5708, 2.26893, 0.25, 2, 0.5),
		hinge("shoulder_elv", 0, 3.14159, 0.25, 2, 0.5),
		hinge("shoulder1_r2", -2.26893, 1.5708, 0.05, 0.5, 0),
		hinge("shoulder_rot", -1.5708, 0.349066, 0.1, 1, 0.2),
		hinge("elbow_flexion", 0, 2.26893, 0.1, 1, 0.2),
		hinge("pro_sup", -1.5708, 1.5708, 0.02, 0.2, 0.05),
		hinge("deviation", -0.174533, 0.436332, 0.01, 0.1, 0.05),
		hinge("flexion", -1.22173, 1.22173, 0.01, 0.1, 0.05),
		hinge("wrist_hand_r1", -0.174533, 0.436332, 0.01, 0.1, 0),
		hinge("wrist_hand_r3", -1.22173, 1.22173, 0.01, 0.1, 0),
	}

	equalities := []JointEquality{
		couple("sternoclavicular_r2", "shoulder_elv", 0, -0.25),
		couple("sternoclavicular_r3", "shoulder_elv", 0, 0.12),
		couple("unrotscap_r3", "shoulder_elv", 0, -0.12),
		couple("unrotscap_r2", "shoulder_elv", 0, 0.25),
		couple("acromioclavicular_r2", "shoulder_elv", 0, 0.1),
		couple("acromioclavicular_r3", "shoulder_elv", 0, 0.3, -0.02),
		couple("acromioclavicular_r1", "shoulder_elv", 0, 0.05),
		couple("unrothum_r1", "shoulder_elv", 0, -0.05),
		couple("unrothum_r3", "shoulder_elv", 0, -0.3, 0.02),
		couple("unrothum_r2", "shoulder_elv", 0, -0.1),
		couple("shoulder1_r2", "elv_angle", 0, -1),
		couple("wrist_hand_r1", "deviation", 0, 1),
		couple("wrist_hand_r3", "flexion", 0, 1),

		// Elbow lock, disabled by default
		{Joint1: "elbow_flexion", Coef: []float64{0}, Active: false},
	}

	muscles := []Muscle{
		muscle("DELT1", "elv_angle", 0.02, 1000),
		muscle("LAT", "elv_angle", -0.02, 1000),
		muscle("DELT2", "shoulder_elv", 0.02, 1000),
		muscle("PECM3", "shoulder_elv", -0.02, 1000),
		muscle("INFSP", "shoulder_rot", 0.02, 500),
		muscle("SUBSC", "shoulder_rot", -0.02, 500),
		muscle("BIClong", "elbow_flexion", 0.02, 600),
		muscle("TRIlong", "elbow_flexion", -0.02, 600),
		muscle("SUP", "pro_sup", 0.01, 200),
		muscle("PQ", "pro_sup", -0.01, 200),
		muscle("ECRL", "deviation", 0.01, 100),
		muscle("ECU", "deviation", -0.01, 100),
		muscle("FCR", "flexion", 0.01, 100),
		muscle("ECRB", "flexion", -0.01, 100),
	}

	chain := []Link{
		{Name: "plane", Joint: "elv_angle", Axis: [3]float64{0, 0, 1}},
		{Name: "elevation", Joint: "shoulder_elv", Axis: [3]float64{-1, 0, 0}},
		{Name: "axial", Joint: "shoulder1_r2", Axis: [3]float64{0, 0, 1}},
		{Name: "humerus", Joint: "shoulder_rot", Axis: [3]float64{0, 0, 1},
			Offset: [3]float64{0, 0, -0.30}},
		{Name: "ulna", Joint: "elbow_flexion", Axis: [3]float64{0, -1, 0}},
		{Name: "radius", Joint: "pro_sup", Axis: [3]float64{0, 0, 1},
			Offset: [3]float64{0, 0, -0.26}},
		{Name: "lunate", Joint: "deviation", Axis: [3]float64{1, 0, 0}},
		{Name: "hand", Joint: "flexion", Axis: [3]float64{0, -1, 0},
			Offset: [3]float64{0, 0, -0.09}},
	}

	bodies := []Body{
		{Name: "thorax", Pos: [3]float64{0, 0, 0.95}},
		{Name: "humerus", Link: "humerus"},
		{Name: "radius", Link: "radius"},
		{Name: "hand", Link: "hand"},
		{Name: TargetBody, Pos: [3]float64{0.5, 0, 0.8}},
	}

	geoms := []Geom{
		{Name: "torso", Body: "thorax", Offset: [3]float64{0, 0, -0.2},
			Radius: 0.15, RGBA: [4]float64{0.8, 0.7, 0.6, 1}},
		{Name: "head", Body: "thorax", Offset: [3]float64{0, 0, 0.3},
			Radius: 0.09, RGBA: [4]float64{0.8, 0.7, 0.6, 1}},
		{Name: "elbow", Body: "humerus", Radius: 0.03,
			RGBA: [4]float64{0.8, 0.7, 0.6, 1}},
		{Name: "wrist", Body: "radius", Radius: 0.025,
			RGBA: [4]float64{0.8, 0.7, 0.6, 1}},
		{Name: Fingertip, Body: "hand", Radius: 0.01,
			RGBA: [4]float64{0.8, 0.7, 0.6, 1}},
		{Name: TargetSphere, Body: TargetBody, Radius: 0.05,
			RGBA: [4]float64{0.1, 0.8, 0.1, 1}},
		{Name: TargetPlane, Body: TargetBody, Radius: 0.3,
			RGBA: [4]float64{0.5, 0.5, 0.5, 0}},
		{Name: TargetEstimate, Body: TargetBody, Radius: 0.05,
			RGBA: [4]float64{0.8, 0.1, 0.1, 0}},
	}

	cameras := []Camera{
		{Name: OculomotorCam, Pos: [3]float64{0.09, 0, 1.25},
			LookAt: [3]float64{0.5, 0, 0.8}, FovY: 70},
		{Name: ForTestingCam, Pos: [3]float64{1.5, -1.5, 0.9},
			Quat: [4]float64{0.6582, 0.6577, 0.2590, 0.2588}, FovY: 45},
		{Name: TrackCam, Pos: [3]float64{1.8, -0.6, 1.2},
			LookAt: [3]float64{0.2, -0.1, 0.9}, FovY: 45},
	}

	return Model{
		Name:       "mobl_arms",
		Timestep:   DefaultTimestep,
		Near:       0.01,
		Far:        5,
		Base:       [3]float64{0, -0.17, 0.95},
		Joints:     joints,
		Equalities: equalities,
		Muscles:    muscles,
		Chain:      chain,
		Bodies:     bodies,
		Geoms:      geoms,
		Cameras:    cameras,
	}
}
