package mobl

import (
	"sort"

	"github.com/samuelfneumann/moblarms/environment/sim"
)

// partition splits the joints of s into independent and dependent joints.
// A joint is dependent if it is the first object of an active joint
// equality. Both partitions are sorted.
func partition(s sim.Simulator) (independent, dependent []int) {
	isDependent := make(map[int]bool)
	for i := 0; i < s.NumEqualities(); i++ {
		eq := s.Equality(i)
		if eq.Active && eq.Type == sim.EqJoint {
			isDependent[eq.Obj1] = true
		}
	}

	dependent = make([]int, 0, len(isDependent))
	for j := range isDependent {
		dependent = append(dependent, j)
	}
	sort.Ints(dependent)

	independent = make([]int, 0, s.NumJoints()-len(dependent))
	for j := 0; j < s.NumJoints(); j++ {
		if !isDependent[j] {
			independent = append(independent, j)
		}
	}
	return independent, dependent
}

// IndependentJoints returns the ids of joints which are actuated and
// observed directly
func (f *FixedEye) IndependentJoints() []int {
	return append([]int(nil), f.independent...)
}

// DependentJoints returns the ids of joints driven by equality
// constraints
func (f *FixedEye) DependentJoints() []int {
	return append([]int(nil), f.dependent...)
}
