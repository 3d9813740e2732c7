package trackers

import "github.com/samuelfneumann/moblarms/timestep"

// EpisodeLength tracks and saves the number of steps taken in each
// episode of an experiment
type EpisodeLength struct {
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which will save
// its data at filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: Filename(filename)}
}

// Track counts a timestep. First timesteps start a new episode and are
// not counted.
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.First() || len(e.episodeLengths) == 0 {
		e.episodeLengths = append(e.episodeLengths, 0)
	}
	if !t.First() {
		e.episodeLengths[len(e.episodeLengths)-1]++
	}
}

// Lengths returns the length of each episode tracked so far
func (e *EpisodeLength) Lengths() []int {
	return append([]int(nil), e.episodeLengths...)
}

// Save saves the episode lengths to disk
func (e *EpisodeLength) Save() error {
	return save(e.filename, e.episodeLengths)
}
