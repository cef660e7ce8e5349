package pedal

import (
	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() { Register("Delay", func() Pedal { return NewDelay() }) }

// Delay: single tap delay line with feedback and dry/wet mix.
type Delay struct {
	Base
	line       *dsp.DelayLine
	sampleRate float64
}

func NewDelay() *Delay {
	d := &Delay{Base: NewBase()}
	d.addParam(param.NewBoundedFloat("time_ms", 350, 1, 2000, 1))
	d.addParam(param.NewBoundedFloat("feedback", 0.35, 0, 0.95, 0.01))
	d.addParam(param.NewBoundedFloat("mix", 0.35, 0, 1, 0.01))
	return d
}

func (d *Delay) Kind() string { return "Delay" }

func (d *Delay) SetConfig(maxBlock int, sampleRate float64) {
	d.sampleRate = sampleRate
	maxSamples := 2000 * sampleRate / 1000.0
	d.line = dsp.NewDelayLine(maxSamples + 1)
}

func (d *Delay) Reset() {
	if d.line != nil {
		d.line.Reset()
	}
}

func (d *Delay) Process(buf []float32, msgs *[]string) {
	if d.line == nil {
		d.SetConfig(0, d.sampleRate)
	}
	delaySamples := d.params["time_ms"].Float() * d.sampleRate / 1000.0
	feedback := float32(d.params["feedback"].Float())
	mix := float32(d.params["mix"].Float())

	for i, x := range buf {
		wet := d.line.Read(delaySamples)
		d.line.Write(x + wet*feedback)
		buf[i] = x*(1-mix) + wet*mix
	}
}
