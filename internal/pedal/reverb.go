package pedal

import (
	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() { Register("Reverb", func() Pedal { return NewReverb() }) }

// combTunesMs are the four parallel comb filter delays of the classic
// Schroeder reverberator, scaled by size before use.
var combTunesMs = [4]float64{29.7, 37.1, 41.1, 43.7}

// allpassTunesMs are the two series allpass stages following the combs.
var allpassTunesMs = [2]float64{5.0, 1.7}

type comb struct {
	line     *dsp.DelayLine
	feedback float32
	lp       float32 // one-pole damping state
}

func (c *comb) process(x float32, delaySamples float64, damping float32) float32 {
	wet := c.line.Read(delaySamples)
	c.lp = wet*(1-damping) + c.lp*damping
	c.line.Write(x + c.lp*c.feedback)
	return wet
}

type allpass struct {
	line *dsp.DelayLine
	gain float32
}

func (a *allpass) process(x float32, delaySamples float64) float32 {
	wet := a.line.Read(delaySamples)
	fed := x + wet*a.gain
	a.line.Write(fed)
	return wet - a.gain*fed
}

// Reverb: a Schroeder network of four parallel damped combs feeding two
// series allpass stages, summed with the dry signal.
type Reverb struct {
	Base
	combs      [4]comb
	allpasses  [2]allpass
	sampleRate float64
}

func NewReverb() *Reverb {
	r := &Reverb{Base: NewBase()}
	r.addParam(param.NewBoundedFloat("size", 0.6, 0.1, 1.5, 0.01))
	r.addParam(param.NewBoundedFloat("damping", 0.4, 0, 1, 0.01))
	r.addParam(param.NewBoundedFloat("decay", 0.7, 0, 0.98, 0.01))
	r.addParam(param.NewBoundedFloat("mix", 0.3, 0, 1, 0.01))
	return r
}

func (r *Reverb) Kind() string { return "Reverb" }

func (r *Reverb) SetConfig(maxBlock int, sampleRate float64) {
	r.sampleRate = sampleRate
	size := r.params["size"].Float()
	for i, ms := range combTunesMs {
		samples := ms * size * sampleRate / 1000.0
		r.combs[i].line = dsp.NewDelayLine(samples + 1)
	}
	for i, ms := range allpassTunesMs {
		samples := ms * size * sampleRate / 1000.0
		r.allpasses[i].line = dsp.NewDelayLine(samples + 1)
		r.allpasses[i].gain = 0.5
	}
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		if r.combs[i].line != nil {
			r.combs[i].line.Reset()
		}
		r.combs[i].lp = 0
	}
	for i := range r.allpasses {
		if r.allpasses[i].line != nil {
			r.allpasses[i].line.Reset()
		}
	}
}

func (r *Reverb) Process(buf []float32, msgs *[]string) {
	if r.combs[0].line == nil {
		r.SetConfig(0, r.sampleRate)
	}
	size := r.params["size"].Float()
	damping := float32(r.params["damping"].Float())
	decay := float32(r.params["decay"].Float())
	mix := float32(r.params["mix"].Float())
	for i := range r.combs {
		r.combs[i].feedback = decay
	}

	for i, x := range buf {
		var sum float32
		for c := range r.combs {
			samples := combTunesMs[c] * size * r.sampleRate / 1000.0
			sum += r.combs[c].process(x, samples, damping)
		}
		sum /= float32(len(r.combs))
		for a := range r.allpasses {
			samples := allpassTunesMs[a] * size * r.sampleRate / 1000.0
			sum = r.allpasses[a].process(sum, samples)
		}
		buf[i] = x*(1-mix) + sum*mix
	}
}
