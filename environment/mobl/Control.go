package mobl

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/moblarms/utils/floatutils"
)

// SetCtrl sets the control of each muscle to its current activation plus
// the action, clipped to [0, 1]. If a shoulder patch is in use, the
// shoulder's coupling constraint is then updated from the current joint
// positions.
func (f *FixedEye) SetCtrl(action mat.Vector) error {
	act := f.sim.Act()
	if action.Len() != len(act) {
		return errors.Errorf("setCtrl: invalid action dimensions \n\t"+
			"have(%v) \n\twant(%v)", action.Len(), len(act))
	}

	ctrl := make([]float64, len(act))
	for i := range ctrl {
		ctrl[i] = floatutils.Clip(act[i]+action.AtVec(i), 0, 1)
	}
	f.sim.SetCtrl(ctrl)

	if f.patch != nil {
		f.patch.Apply(f.sim)
	}
	return nil
}
