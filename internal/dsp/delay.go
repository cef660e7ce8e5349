package dsp

import "math"

// DelayLine is a ring-buffer-backed fractional-sample delay, grounded
// on the retrieval pack's vst3go delay.Line (write-then-read-with-
// linear-interpolation shape), generalized with an explicit max-delay
// capacity check.
type DelayLine struct {
	buf      []float32
	writePos int
	maxDelay float64
}

// NewDelayLine allocates a delay line able to read back up to
// maxDelaySamples of history. Capacity is maxDelaySamples+1 so the
// write head never laps a pending fractional read.
func NewDelayLine(maxDelaySamples float64) *DelayLine {
	if maxDelaySamples < 0 {
		maxDelaySamples = 0
	}
	capacity := int(maxDelaySamples) + 2
	return &DelayLine{buf: make([]float32, capacity), maxDelay: maxDelaySamples}
}

func (d *DelayLine) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.writePos = 0
}

// Write pushes one sample into the ring.
func (d *DelayLine) Write(x float32) {
	d.buf[d.writePos] = x
	d.writePos++
	if d.writePos >= len(d.buf) {
		d.writePos = 0
	}
}

// Read returns the sample delaySamples behind the write head,
// linearly interpolated between the floor and ceil positions.
func (d *DelayLine) Read(delaySamples float64) float32 {
	if delaySamples < 0 {
		delaySamples = 0
	}
	if delaySamples > d.maxDelay {
		delaySamples = d.maxDelay
	}
	n := float64(len(d.buf))
	pos := float64(d.writePos) - 1 - delaySamples
	for pos < 0 {
		pos += n
	}
	lo := int(math.Floor(pos))
	hi := (lo + 1) % len(d.buf)
	frac := float32(pos - math.Floor(pos))
	return d.buf[lo]*(1-frac) + d.buf[hi]*frac
}

// Process writes x and returns the sample delaySamples in the past.
func (d *DelayLine) Process(x float32, delaySamples float64) float32 {
	out := d.Read(delaySamples)
	d.Write(x)
	return out
}

// Phaser drives a DelayLine's tap with an Oscillator between
// [depthMin, depthMax] ms, mixing dry/wet and optionally feeding a
// scaled copy of the delayed sample back before the next write. Used
// by chorus, flanger, and vibrato.
type Phaser struct {
	Delay              *DelayLine
	Osc                *Oscillator
	DepthMinMs         float64
	DepthMaxMs         float64
	Mix                float64 // 0=dry .. 1=wet
	Feedback           float64 // <= 0.95
	SampleRate         float64
	DryIncluded        bool // false for vibrato: delayed signal only
}

func NewPhaser(sampleRate, depthMinMs, depthMaxMs float64, osc *Oscillator) *Phaser {
	maxSamples := depthMaxMs * sampleRate / 1000.0
	return &Phaser{
		Delay:       NewDelayLine(maxSamples + 1),
		Osc:         osc,
		DepthMinMs:  depthMinMs,
		DepthMaxMs:  depthMaxMs,
		Mix:         0.5,
		SampleRate:  sampleRate,
		DryIncluded: true,
	}
}

func (p *Phaser) Reset() { p.Delay.Reset() }

func (p *Phaser) Process(x float32) float32 {
	if p.Feedback > 0.95 {
		p.Feedback = 0.95
	}
	lfo := (p.Osc.Next() + 1) / 2 // map [-1,1] -> [0,1]
	depthMs := p.DepthMinMs + lfo*(p.DepthMaxMs-p.DepthMinMs)
	delaySamples := depthMs * p.SampleRate / 1000.0

	wet := p.Delay.Read(delaySamples)
	fed := x + wet*float32(p.Feedback)
	p.Delay.Write(fed)

	if !p.DryIncluded {
		return wet
	}
	mix := float32(p.Mix)
	return x*(1-mix) + wet*mix
}
