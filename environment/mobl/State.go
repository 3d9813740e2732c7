package mobl

// KinematicState is a snapshot of the model. Joint quantities are
// restricted to independent joints.
type KinematicState struct {
	Step     int
	Timestep float64

	QPos []float64
	QVel []float64
	QAcc []float64
	Act  []float64
	Ctrl []float64

	FingertipXPos  [3]float64
	FingertipXMat  [9]float64
	FingertipXVelP [3]float64
	FingertipXVelR [3]float64

	Termination bool
}

// State returns a snapshot of the current state
func (f *FixedEye) State() KinematicState {
	n := len(f.independent)
	s := KinematicState{
		Step:     f.steps,
		Timestep: f.sim.Time(),
		QPos:     make([]float64, n),
		QVel:     make([]float64, n),
		QAcc:     make([]float64, n),
		Act:      f.sim.Act(),
		Ctrl:     f.sim.Ctrl(),
	}
	for i, j := range f.independent {
		s.QPos[i] = f.sim.QPos(j)
		s.QVel[i] = f.sim.QVel(j)
		s.QAcc[i] = f.sim.QAcc(j)
	}

	s.FingertipXPos = f.sim.GeomXPos(f.fingertip)
	s.FingertipXMat = f.sim.GeomXMat(f.fingertip)
	s.FingertipXVelP, s.FingertipXVelR = f.sim.GeomVelocity(f.fingertip)
	return s
}
