package dsp

import "math"

// Shape selects an Oscillator's waveform.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeSquare
	ShapeSawtooth
	ShapeTriangle
)

// Oscillator is a phase-accumulator generator producing output in
// [-1, +1]. Phase lives in [0, 1) and advances by freq/sampleRate each
// call, mirroring the teacher's Channel phase accumulator in
// audio_chip.go (there expressed in radians; here normalized to [0,1)
// per spec.md).
type Oscillator struct {
	Shape      Shape
	Freq       float64
	SampleRate float64
	// Squareness drives a sine oscillator toward a square-ish shape via
	// tanh saturation; 0 leaves it a pure sine.
	Squareness float64
	// PhaseOffset is added before the shape function, wrapped mod 1.
	PhaseOffset float64

	phase float64
}

func NewOscillator(shape Shape, freq, sampleRate float64) *Oscillator {
	return &Oscillator{Shape: shape, Freq: freq, SampleRate: sampleRate}
}

// Reset zeroes the phase accumulator.
func (o *Oscillator) Reset() { o.phase = 0 }

// Next advances the oscillator by one sample and returns its value.
func (o *Oscillator) Next() float32 {
	p := math.Mod(o.phase+o.PhaseOffset, 1.0)
	if p < 0 {
		p += 1.0
	}

	var v float64
	switch o.Shape {
	case ShapeSquare:
		if p < 0.5 {
			v = 1.0
		} else {
			v = -1.0
		}
	case ShapeSawtooth:
		v = 2*p - 1
	case ShapeTriangle:
		v = 4*math.Abs(p-0.5) - 1
	default: // ShapeSine
		v = math.Sin(2 * math.Pi * p)
		if o.Squareness > 0 {
			s := o.Squareness
			if s > 0.999999 {
				s = 0.999999
			}
			drive := -10 * math.Log10(1-0.99*s)
			v = math.Tanh(v*drive) / math.Tanh(drive)
		}
	}

	if o.SampleRate > 0 {
		o.phase += o.Freq / o.SampleRate
		if o.phase >= 1.0 {
			o.phase -= math.Trunc(o.phase)
		}
	}
	return float32(v)
}
