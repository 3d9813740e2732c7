// Package effort implements effort terms which penalize the muscular
// effort of a musculoskeletal model. Effort terms may be stateful, in
// which case they must be reset at the start of each episode.
package effort

import (
	"github.com/pkg/errors"
)

// Names of the available effort terms
const (
	ZeroName              = "zero"
	NeuralName            = "neural"
	CumulativeFatigueName = "cumulative_fatigue"
)

// State is the muscle state an effort term is computed from
type State struct {
	// Ctrl is the control signal sent to each muscle
	Ctrl []float64

	// Act is the activation of each muscle
	Act []float64
}

// Term is an effort cost. Compute is called once per environment step
// with the state after the step.
type Term interface {
	Compute(State) float64
	Reset()
}

// New returns the effort term with the given name. The weight scales the
// cost and dt is the duration of an environment step, used by terms which
// integrate over time.
func New(name string, weight, dt float64) (Term, error) {
	switch name {
	case ZeroName, "":
		return Zero{}, nil

	case NeuralName:
		return NewNeural(weight), nil

	case CumulativeFatigueName:
		return NewCumulativeFatigue(weight, dt)
	}

	return nil, errors.Errorf("new: unknown effort term %q", name)
}

// Zero is an effort term which is always zero
type Zero struct{}

func (Zero) Compute(State) float64 { return 0 }
func (Zero) Reset()                {}

// Neural penalizes the squared control signal
type Neural struct {
	weight float64
}

// NewNeural returns a new Neural effort term
func NewNeural(weight float64) *Neural {
	return &Neural{weight: weight}
}

// Compute returns the weighted sum of squared controls
func (n *Neural) Compute(s State) float64 {
	var sum float64
	for _, c := range s.Ctrl {
		sum += c * c
	}
	return n.weight * sum
}

func (n *Neural) Reset() {}
