// Package dsp implements the realtime signal-processing primitives
// shared across every pedal: biquad filters, a moving bandpass, a
// fractional-delay line, an oscillator bank, a 2x polyphase resampler,
// an overlap-add FFT convolver, a YIN pitch detector, and a log-spaced
// spectrum analyser.
package dsp

import "math"

// Biquad is a direct-form I second-order IIR filter. Re-coefficienting
// (via the Set* factories below) preserves x1/x2/y1/y2 so parameter
// sweeps don't click.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// Process filters one sample.
func (bq *Biquad) Process(x float64) float64 {
	y := bq.b0*x + bq.b1*bq.x1 + bq.b2*bq.x2 - bq.a1*bq.y1 - bq.a2*bq.y2
	bq.x2, bq.x1 = bq.x1, x
	bq.y2, bq.y1 = bq.y1, y
	return y
}

// ProcessBuffer filters a slice in place.
func (bq *Biquad) ProcessBuffer(buf []float32) {
	for i, x := range buf {
		buf[i] = float32(bq.Process(float64(x)))
	}
}

func (bq *Biquad) setCoeffs(b0, b1, b2, a0, a1, a2 float64) {
	bq.b0, bq.b1, bq.b2 = b0/a0, b1/a0, b2/a0
	bq.a1, bq.a2 = a1/a0, a2/a0
}

// LowPass reconfigures bq as an RBJ low-pass at freq/sampleRate with
// resonance q.
func (bq *Biquad) LowPass(freq, sampleRate, q float64) {
	w0, cosw0, alpha := biquadOmega(freq, sampleRate, q)
	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	_ = w0
	bq.setCoeffs(b0, b1, b2, a0, a1, a2)
}

func (bq *Biquad) HighPass(freq, sampleRate, q float64) {
	_, cosw0, alpha := biquadOmega(freq, sampleRate, q)
	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	bq.setCoeffs(b0, b1, b2, a0, a1, a2)
}

func (bq *Biquad) BandPass(freq, sampleRate, q float64) {
	_, cosw0, alpha := biquadOmega(freq, sampleRate, q)
	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	bq.setCoeffs(b0, b1, b2, a0, a1, a2)
}

func (bq *Biquad) Notch(freq, sampleRate, q float64) {
	_, cosw0, alpha := biquadOmega(freq, sampleRate, q)
	b0 := 1.0
	b1 := -2 * cosw0
	b2 := 1.0
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha
	bq.setCoeffs(b0, b1, b2, a0, a1, a2)
}

func (bq *Biquad) PeakingEQ(freq, sampleRate, q, gainDB float64) {
	_, cosw0, alpha := biquadOmega(freq, sampleRate, q)
	a := math.Pow(10, gainDB/40)
	b0 := 1 + alpha*a
	b1 := -2 * cosw0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosw0
	a2 := 1 - alpha/a
	bq.setCoeffs(b0, b1, b2, a0, a1, a2)
}

func (bq *Biquad) LowShelf(freq, sampleRate, q, gainDB float64) {
	w0, cosw0, alpha := biquadOmega(freq, sampleRate, q)
	a := math.Pow(10, gainDB/40)
	sq := 2 * math.Sqrt(a) * alpha
	b0 := a * ((a + 1) - (a-1)*cosw0 + sq)
	b1 := 2 * a * ((a - 1) - (a+1)*cosw0)
	b2 := a * ((a + 1) - (a-1)*cosw0 - sq)
	a0 := (a + 1) + (a-1)*cosw0 + sq
	a1 := -2 * ((a - 1) + (a+1)*cosw0)
	a2 := (a + 1) + (a-1)*cosw0 - sq
	_ = w0
	bq.setCoeffs(b0, b1, b2, a0, a1, a2)
}

func (bq *Biquad) HighShelf(freq, sampleRate, q, gainDB float64) {
	_, cosw0, alpha := biquadOmega(freq, sampleRate, q)
	a := math.Pow(10, gainDB/40)
	sq := 2 * math.Sqrt(a) * alpha
	b0 := a * ((a + 1) + (a-1)*cosw0 + sq)
	b1 := -2 * a * ((a - 1) + (a+1)*cosw0)
	b2 := a * ((a + 1) + (a-1)*cosw0 - sq)
	a0 := (a + 1) - (a-1)*cosw0 + sq
	a1 := 2 * ((a - 1) - (a+1)*cosw0)
	a2 := (a + 1) - (a-1)*cosw0 - sq
	bq.setCoeffs(b0, b1, b2, a0, a1, a2)
}

func biquadOmega(freq, sampleRate, q float64) (w0, cosw0, alpha float64) {
	w0 = 2 * math.Pi * freq / sampleRate
	cosw0 = math.Cos(w0)
	alpha = math.Sin(w0) / (2 * q)
	return
}

// MovingBandpass wraps a band-pass biquad and glides its center
// frequency toward a target, independent of sample rate, without
// resetting filter memory.
type MovingBandpass struct {
	bq               Biquad
	sampleRate       float64
	q                float64
	current, target  float64
	smoothingMs      float64
	updateRate       int
	samplesSinceStep int
}

// NewMovingBandpass creates a moving bandpass at the given starting
// frequency. updateRate defaults to 64 samples when 0 is passed.
func NewMovingBandpass(freq, sampleRate, q, smoothingMs float64, updateRate int) *MovingBandpass {
	if updateRate <= 0 {
		updateRate = 64
	}
	m := &MovingBandpass{
		sampleRate:  sampleRate,
		q:           q,
		current:     freq,
		target:      freq,
		smoothingMs: smoothingMs,
		updateRate:  updateRate,
	}
	m.bq.BandPass(freq, sampleRate, q)
	return m
}

// SetTarget changes the frequency the filter glides toward.
func (m *MovingBandpass) SetTarget(freq float64) { m.target = freq }

func (m *MovingBandpass) Process(x float32) float32 {
	m.samplesSinceStep++
	if m.samplesSinceStep >= m.updateRate {
		m.samplesSinceStep = 0
		// Smoothing factor derived from a time constant so perceived
		// glide speed doesn't depend on sample rate or update rate.
		tau := m.smoothingMs * m.sampleRate / 1000.0 / float64(m.updateRate)
		if tau < 1 {
			tau = 1
		}
		alpha := 1 - math.Exp(-1/tau)
		m.current += (m.target - m.current) * alpha
		m.bq.BandPass(m.current, m.sampleRate, m.q)
	}
	return float32(m.bq.Process(float64(x)))
}
