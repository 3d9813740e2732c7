// Package policy defines the contract between the evaluation harness and
// a trained policy, and implements a linear Gaussian policy that can be
// checkpointed and restored.
package policy

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/moblarms/timestep"
)

// Policy maps observations to actions. State is opaque recurrent state
// which is passed back to the next call of Predict; stateless policies
// return nil. A deterministic prediction returns the policy's mode.
type Policy interface {
	Predict(obs ts.Observation, state interface{},
		deterministic bool) (*mat.VecDense, interface{}, error)
}
