// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	ts "github.com/samuelfneumann/moblarms/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines whether a timestep ends the current episode. If so,
// End adjusts the timestep so that it is the last in the episode.
type Ender interface {
	End(t *ts.TimeStep) bool
}

// Environment implements a simulated environment. Concrete task variants
// share a common base for resetting, observing and mapping actions to
// controls, and each supplies its own Step.
type Environment interface {
	// Reset resets the environment to a random starting state and
	// returns the first timestep of the new episode
	Reset() (ts.TimeStep, error)

	// Step applies an action and advances the simulation, returning the
	// next timestep and whether the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	// Observe returns a fresh observation of the current state
	Observe() (ts.Observation, error)

	CurrentTimeStep() ts.TimeStep
	ActionSpec() Spec
	ObservationSpec() Spec
	DiscountSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}
