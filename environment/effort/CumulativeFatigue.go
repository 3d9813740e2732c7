package effort

import (
	"github.com/pkg/errors"

	"github.com/samuelfneumann/moblarms/utils/floatutils"
)

// Parameters of the three-compartment controller with rest recovery
const (
	FatigueRate        = 0.0146
	RecoveryRate       = 0.0022
	RestRecoveryFactor = 15.0
	DevelopmentFactor  = 10.0
	RelaxationFactor   = 10.0
)

// CumulativeFatigue tracks the fatigue of each muscle with the 3CC-r
// model. Every muscle's motor units are split between an active (MA),
// resting (MR) and fatigued (MF) compartment which always sum to one. The
// target load of a muscle is its control signal, and the cost is the
// weighted sum of squared fatigued fractions.
type CumulativeFatigue struct {
	weight float64
	dt     float64

	ma, mr, mf []float64
}

// NewCumulativeFatigue returns a new CumulativeFatigue effort term
// integrating with step size dt
func NewCumulativeFatigue(weight, dt float64) (*CumulativeFatigue, error) {
	if dt <= 0 {
		return nil, errors.Errorf("newCumulativeFatigue: dt must be "+
			"positive, got %v", dt)
	}
	return &CumulativeFatigue{weight: weight, dt: dt}, nil
}

// Compute advances the fatigue model by one step and returns the cost
func (c *CumulativeFatigue) Compute(s State) float64 {
	if len(c.ma) != len(s.Ctrl) {
		c.resize(len(s.Ctrl))
	}

	var cost float64
	for i, load := range s.Ctrl {
		load = floatutils.Clip(load, 0, 1)
		ma, mr, mf := c.ma[i], c.mr[i], c.mf[i]

		var transfer float64
		switch {
		case ma < load && mr > load-ma:
			transfer = DevelopmentFactor * (load - ma)
		case ma < load:
			transfer = DevelopmentFactor * mr
		default:
			transfer = RelaxationFactor * (load - ma)
		}

		recovery := RecoveryRate
		if ma >= load {
			recovery *= RestRecoveryFactor
		}

		dma := transfer - FatigueRate*ma
		dmr := -transfer + recovery*mf
		dmf := FatigueRate*ma - recovery*mf

		c.ma[i] = floatutils.Clip(ma+c.dt*dma, 0, 1)
		c.mr[i] = floatutils.Clip(mr+c.dt*dmr, 0, 1)
		c.mf[i] = floatutils.Clip(mf+c.dt*dmf, 0, 1)

		cost += c.mf[i] * c.mf[i]
	}
	return c.weight * cost
}

// Fatigue returns a copy of the fatigued fraction of each muscle
func (c *CumulativeFatigue) Fatigue() []float64 {
	return append([]float64(nil), c.mf...)
}

// Reset moves all motor units to the resting compartment
func (c *CumulativeFatigue) Reset() {
	for i := range c.ma {
		c.ma[i], c.mr[i], c.mf[i] = 0, 1, 0
	}
}

func (c *CumulativeFatigue) resize(n int) {
	c.ma = make([]float64, n)
	c.mr = make([]float64, n)
	c.mf = make([]float64, n)
	c.Reset()
}
