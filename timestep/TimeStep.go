// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// Observation is a single observation of the environment. Proprioception
// is always present. Visual is an H x W x 4 tensor (RGB followed by depth,
// each normalized to [-1, 1]) or nil when visual observations are
// disabled, so consumers must handle both cases.
type Observation struct {
	Proprioception *mat.VecDense
	Visual         *tensor.Dense
}

// HasVisual returns whether the observation carries a visual component
func (o Observation) HasVisual() bool {
	return o.Visual != nil
}

// Info holds auxiliary per-step data reported by an environment, such as
// the distance to a target. Values are basic types so that they can be
// logged and serialized.
type Info map[string]interface{}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation Observation
	Number      int
	Info        Info
}

// New returns a new TimeStep
func New(t StepType, r, d float64, o Observation, n int) TimeStep {
	return TimeStep{
		StepType:    t,
		Reward:      r,
		Discount:    d,
		Observation: o,
		Number:      n,
		Info:        Info{},
	}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
