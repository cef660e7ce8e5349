package dsp

import "math"

// EnvelopeFollower is a single-pole attack/release level estimator
// shared by the compressor, noise gate, and auto-wah, factored out of
// the attack/release coefficient pattern repeated three times in
// spec.md §4.2 (itself grounded on audio_chip.go's Channel ADSR
// smoothing).
type EnvelopeFollower struct {
	sampleRate     float64
	attackCoeff    float64
	releaseCoeff   float64
	level          float64
}

// NewEnvelopeFollower builds a follower with the given attack/release
// times in milliseconds.
func NewEnvelopeFollower(sampleRate, attackMs, releaseMs float64) *EnvelopeFollower {
	e := &EnvelopeFollower{sampleRate: sampleRate}
	e.SetTimes(attackMs, releaseMs)
	return e
}

// SetTimes recomputes the attack/release coefficients in place,
// preserving the current level so changing a knob doesn't click.
func (e *EnvelopeFollower) SetTimes(attackMs, releaseMs float64) {
	e.attackCoeff = timeCoeff(attackMs, e.sampleRate)
	e.releaseCoeff = timeCoeff(releaseMs, e.sampleRate)
}

func timeCoeff(timeMs, sampleRate float64) float64 {
	if timeMs <= 0 {
		return 0
	}
	return math.Exp(-1 / (timeMs * sampleRate / 1000))
}

// Level returns the current tracked level.
func (e *EnvelopeFollower) Level() float64 { return e.level }

// Process updates the follower with one absolute-value input sample
// and returns the new level.
func (e *EnvelopeFollower) Process(absSample float64) float64 {
	var coeff float64
	if absSample > e.level {
		coeff = e.attackCoeff
	} else {
		coeff = e.releaseCoeff
	}
	e.level = coeff*e.level + (1-coeff)*absSample
	return e.level
}

// Reset zeroes the tracked level.
func (e *EnvelopeFollower) Reset() { e.level = 0 }
