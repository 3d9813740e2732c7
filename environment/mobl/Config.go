package mobl

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r1"
)

// Ways of normalizing joint positions in proprioceptive observations
const (
	// LegacyNormalization computes ((qpos - low/(high-low)) - 0.5) * 2,
	// which is what policies trained on earlier versions of this
	// environment observed
	LegacyNormalization = "legacy"

	// RangeNormalization maps each joint range onto [-1, 1]
	RangeNormalization = "range"
)

// Config configures a FixedEye environment and its task variants. Field
// tags are the keyword names used in run configurations.
type Config struct {
	// Backend names the simulation backend and XMLFile is the model
	// description passed to it
	Backend string `json:"backend"`
	XMLFile string `json:"xml_file"`

	ShoulderVariant   string    `json:"shoulder_variant"`
	ShoulderRotLimits []float64 `json:"shoulder_rot_limits"`

	// ActionSampleFreq is the number of actions per simulated second
	ActionSampleFreq float64 `json:"action_sample_freq"`

	RenderObservations bool   `json:"render_observations"`
	OcularImageHeight  int    `json:"ocular_image_height"`
	OcularImageWidth   int    `json:"ocular_image_width"`
	QPosNormalization  string `json:"qpos_normalization"`

	RewardFunction string   `json:"reward_function"`
	EffortTerm     string   `json:"effort_term"`
	EffortWeight   float64  `json:"effort_weight"`
	Callbacks      []string `json:"callbacks"`

	// FreqCurriculumSteps is the number of training timesteps over which
	// the freq_curriculum callback raises target speed to its maximum
	FreqCurriculumSteps int `json:"freq_curriculum_steps"`

	TargetOrigin      []float64 `json:"target_origin"`
	TargetLimitsY     []float64 `json:"target_limits_y"`
	TargetLimitsZ     []float64 `json:"target_limits_z"`
	TargetRadiusLimit []float64 `json:"target_radius_limit"`

	EpisodeLengthSeconds float64 `json:"episode_length_seconds"`
	DwellSteps           int     `json:"dwell_steps"`
	MaxTrials            int     `json:"max_trials"`

	Discount float64 `json:"discount"`

	// Seed seeds the environment's random source. Zero seeds from the
	// current time.
	Seed uint64 `json:"seed"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Backend:              "kinematic",
		ShoulderVariant:      string(Original),
		ShoulderRotLimits:    []float64{-math.Pi, math.Pi},
		ActionSampleFreq:     10,
		RenderObservations:   true,
		OcularImageHeight:    80,
		OcularImageWidth:     120,
		QPosNormalization:    LegacyNormalization,
		EffortTerm:           "zero",
		EffortWeight:         1,
		FreqCurriculumSteps:  1_000_000,
		TargetOrigin:         []float64{0.5, 0, 0.8},
		TargetLimitsY:        []float64{-0.3, 0.3},
		TargetLimitsZ:        []float64{-0.3, 0.3},
		TargetRadiusLimit:    []float64{0.01, 0.05},
		EpisodeLengthSeconds: 10,
		DwellSteps:           5,
		MaxTrials:            10,
		Discount:             0.99,
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.ActionSampleFreq <= 0 {
		return errors.Errorf("validate: action_sample_freq must be "+
			"positive, got %v", c.ActionSampleFreq)
	}
	if _, err := ParseShoulderVariant(c.ShoulderVariant); err != nil {
		return errors.Wrap(err, "validate")
	}
	switch c.QPosNormalization {
	case LegacyNormalization, RangeNormalization:
	default:
		return errors.Errorf("validate: unknown qpos_normalization %q",
			c.QPosNormalization)
	}
	if c.RenderObservations && (c.OcularImageHeight <= 0 ||
		c.OcularImageWidth <= 0) {
		return errors.Errorf("validate: invalid ocular image size %vx%v",
			c.OcularImageWidth, c.OcularImageHeight)
	}
	if len(c.TargetOrigin) != 3 {
		return errors.Errorf("validate: target_origin must have 3 "+
			"elements, got %v", len(c.TargetOrigin))
	}

	intervals := map[string][]float64{
		"shoulder_rot_limits": c.ShoulderRotLimits,
		"target_limits_y":     c.TargetLimitsY,
		"target_limits_z":     c.TargetLimitsZ,
		"target_radius_limit": c.TargetRadiusLimit,
	}
	for key, value := range intervals {
		if len(value) != 2 || value[0] > value[1] {
			return errors.Errorf("validate: %v must be an interval "+
				"[low, high], got %v", key, value)
		}
	}
	if c.TargetRadiusLimit[0] <= 0 {
		return errors.Errorf("validate: target radius must be positive, "+
			"got %v", c.TargetRadiusLimit)
	}

	if c.EpisodeLengthSeconds <= 0 {
		return errors.Errorf("validate: episode_length_seconds must be "+
			"positive, got %v", c.EpisodeLengthSeconds)
	}
	if c.DwellSteps < 1 || c.MaxTrials < 1 {
		return errors.Errorf("validate: dwell_steps and max_trials must "+
			"be positive, got %v and %v", c.DwellSteps, c.MaxTrials)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return errors.Errorf("validate: discount must be in [0, 1], got %v",
			c.Discount)
	}
	return nil
}

func interval(bounds []float64) r1.Interval {
	return r1.Interval{Min: bounds[0], Max: bounds[1]}
}

// EpisodeSteps returns the number of steps in an episode
func (c Config) EpisodeSteps() int {
	return int(math.Round(c.EpisodeLengthSeconds * c.ActionSampleFreq))
}
