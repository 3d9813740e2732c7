// Package trajectory generates smooth random target paths as sums of
// sinusoids
package trajectory

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Steps is the number of environment steps a path covers. Paths hold
	// one more sample than this, for the initial target position.
	Steps = 1000

	// Components is the default number of sinusoids summed per axis
	Components = 5
)

// Ranges of the random parameters of each sinusoid. Frequencies are in
// cycles per second.
var (
	Amplitude = r1.Interval{Min: 1, Max: 5}
	Frequency = r1.Interval{Min: 0.01, Max: 0.5}
	Phase     = r1.Interval{Min: 0, Max: 2 * math.Pi}
)

// Path is a target path in the y-z plane. Y[k] and Z[k] are the offsets of
// the target from its origin at step k.
type Path struct {
	Y []float64
	Z []float64
}

// Len returns the number of samples in the path
func (p Path) Len() int {
	return len(p.Y)
}

// At returns the offset at step k
func (p Path) At(k int) (y, z float64) {
	return p.Y[k], p.Z[k]
}

// Generate returns a path of Steps+1 samples spaced dt seconds apart,
// with the y and z offsets spanning their limits exactly
func Generate(src rand.Source, dt float64, limitsY, limitsZ r1.Interval,
	components int) Path {
	return Path{
		Y: SineWave(src, dt, limitsY, components, Steps+1),
		Z: SineWave(src, dt, limitsZ, components, Steps+1),
	}
}

// SineWave returns samples of a sum of sinusoids with random amplitude,
// frequency and phase at times k*dt, rescaled so that the minimum sample
// is limits.Min and the maximum sample is limits.Max
func SineWave(src rand.Source, dt float64, limits r1.Interval,
	components, samples int) []float64 {
	return ScaledSineWave(src, dt, limits, components, samples, 1)
}

// ScaledSineWave is like SineWave but scales every frequency by
// freqScale
func ScaledSineWave(src rand.Source, dt float64, limits r1.Interval,
	components, samples int, freqScale float64) []float64 {
	amplitude := distuv.Uniform{Min: Amplitude.Min, Max: Amplitude.Max,
		Src: src}
	frequency := distuv.Uniform{Min: Frequency.Min, Max: Frequency.Max,
		Src: src}
	phase := distuv.Uniform{Min: Phase.Min, Max: Phase.Max, Src: src}

	wave := make([]float64, samples)
	for c := 0; c < components; c++ {
		a := amplitude.Rand()
		f := frequency.Rand() * freqScale
		p := phase.Rand()

		for k := range wave {
			t := float64(k) * dt
			wave[k] += a * math.Sin(f*2*math.Pi*t+p)
		}
	}

	Rescale(wave, limits)
	return wave
}

// Rescale shifts and scales x in place so that its minimum is limits.Min
// and its maximum is limits.Max. A constant x is set to limits.Min.
func Rescale(x []float64, limits r1.Interval) {
	if len(x) == 0 {
		return
	}

	floats.AddConst(-floats.Min(x), x)
	max := floats.Max(x)
	for i := range x {
		unit := 0.0
		if max > 0 {
			unit = x[i] / max
		}
		x[i] = limits.Min + (limits.Max-limits.Min)*unit
	}
}
