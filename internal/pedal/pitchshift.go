package pedal

import (
	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() { Register("PitchShift", func() Pedal { return NewPitchShift() }) }

// PitchShift re-synthesizes the signal's spectrum shifted by a ratio in
// [0.5, 2.0] (an octave down to an octave up).
type PitchShift struct {
	Base
	shifter    *dsp.PitchShifter
	sampleRate float64
	scratch    []float32
}

func NewPitchShift() *PitchShift {
	p := &PitchShift{Base: NewBase()}
	p.addParam(param.NewBoundedFloat("pitch", 1.0, 0.5, 2.0, 0.01))
	return p
}

func (p *PitchShift) Kind() string { return "PitchShift" }

func (p *PitchShift) SetConfig(maxBlock int, sampleRate float64) {
	p.sampleRate = sampleRate
	p.shifter = dsp.NewPitchShifter(1024, 4, sampleRate)
	if maxBlock > cap(p.scratch) {
		p.scratch = make([]float32, maxBlock)
	}
}

func (p *PitchShift) Reset() {
	if p.shifter != nil {
		p.shifter.Reset()
	}
}

func (p *PitchShift) Process(buf []float32, msgs *[]string) {
	if p.shifter == nil {
		p.SetConfig(0, p.sampleRate)
	}
	ratio := p.params["pitch"].Float()
	if len(buf) > cap(p.scratch) {
		p.scratch = make([]float32, len(buf))
	}
	out := p.scratch[:len(buf)]
	p.shifter.Process(buf, out, ratio)
	copy(buf, out)
}
