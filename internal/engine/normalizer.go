package engine

import "math"

// PeakNormalizer scales a buffer so its running peak envelope sits near
// target, grounded on original_source's PeakNormalizer(target, decay,
// frames_per_period, sample_rate) constructor shape (manual mode pins
// decay at 1.0 so the envelope only grows between resets; automatic
// mode uses a tunable decay so the envelope relaxes toward quieter
// playing).
type PeakNormalizer struct {
	target   float32
	decay    float32
	maxGain  float32
	envelope float32
}

// NewPeakNormalizer builds a normalizer targeting target peak amplitude
// with the given per-block decay in [0, 1]. blockSize/sampleRate are
// accepted to mirror the constructor the protocol dispatch passes
// through, reserved for a future attack/release time conversion.
func NewPeakNormalizer(target, decay float64, blockSize int, sampleRate float64) *PeakNormalizer {
	return &PeakNormalizer{
		target:  float32(target),
		decay:   float32(decay),
		maxGain: 8.0,
	}
}

func (n *PeakNormalizer) Reset() { n.envelope = 0 }

// ProcessBuffer scales buf in place toward the target peak.
func (n *PeakNormalizer) ProcessBuffer(buf []float32) {
	var blockPeak float32
	for _, s := range buf {
		a := float32(math.Abs(float64(s)))
		if a > blockPeak {
			blockPeak = a
		}
	}

	if blockPeak > n.envelope {
		n.envelope = blockPeak
	} else {
		n.envelope = n.envelope*n.decay + blockPeak*(1-n.decay)
	}

	gain := float32(1.0)
	if n.envelope > 1e-6 {
		gain = n.target / n.envelope
		if gain > n.maxGain {
			gain = n.maxGain
		}
	}
	for i := range buf {
		buf[i] *= gain
	}
}
