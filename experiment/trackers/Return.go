package trackers

import ts "github.com/samuelfneumann/moblarms/timestep"

// Return tracks and saves the episodic return in an experiment. A first
// timestep starts a new episode; every other timestep adds its reward to
// the current episode's return. Timesteps after the environment signals
// the end of an episode still count towards that episode, so that
// rollouts of a fixed length which ignore episode ends are tracked in
// full.
type Return struct {
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{filename: Filename(filename)}
}

// Track tracks the reward of a timestep
func (r *Return) Track(step ts.TimeStep) {
	if step.First() || len(r.episodeReturns) == 0 {
		r.episodeReturns = append(r.episodeReturns, 0)
	}
	if !step.First() {
		r.episodeReturns[len(r.episodeReturns)-1] += step.Reward
	}
}

// Returns returns the return of each episode tracked so far
func (r *Return) Returns() []float64 {
	return append([]float64(nil), r.episodeReturns...)
}

// Save saves the episodic returns to disk
func (r *Return) Save() error {
	return save(r.filename, r.episodeReturns)
}
