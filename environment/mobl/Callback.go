package mobl

import (
	"math"

	"github.com/pkg/errors"
)

// FreqCurriculumName is the name of the FreqCurriculum callback
const FreqCurriculumName = "freq_curriculum"

// Callback is notified of training progress
type Callback interface {
	Name() string
	Update(numTimesteps int)
}

// NewCallback returns the named callback configured by config
func NewCallback(name string, config Config) (Callback, error) {
	switch name {
	case FreqCurriculumName:
		return NewFreqCurriculum(config.FreqCurriculumSteps)
	}
	return nil, errors.Errorf("newCallback: unknown callback %q", name)
}

// FreqCurriculum scales the frequency of moving targets linearly from zero
// to one over a number of training timesteps
type FreqCurriculum struct {
	steps int
	scale float64
}

// NewFreqCurriculum returns a FreqCurriculum reaching full frequency after
// steps timesteps
func NewFreqCurriculum(steps int) (*FreqCurriculum, error) {
	if steps <= 0 {
		return nil, errors.Errorf("newFreqCurriculum: steps must be "+
			"positive, got %v", steps)
	}
	return &FreqCurriculum{steps: steps}, nil
}

func (c *FreqCurriculum) Name() string {
	return FreqCurriculumName
}

func (c *FreqCurriculum) Update(numTimesteps int) {
	c.scale = math.Min(1, math.Max(0, float64(numTimesteps)/float64(c.steps)))
}

// Scale returns the current frequency scale in [0, 1]
func (c *FreqCurriculum) Scale() float64 {
	return c.scale
}
