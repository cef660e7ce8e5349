package pedal

import (
	"math"

	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() {
	Register("Overdrive", func() Pedal { return NewOverdrive() })
	Register("Distortion", func() Pedal { return NewDistortion() })
	Register("Fuzz", func() Pedal { return NewFuzz() })
}

// Overdrive: high-pass pre-filter, drive gain, tanh saturation.
type Overdrive struct {
	Base
	hp         dsp.Biquad
	sampleRate float64
}

func NewOverdrive() *Overdrive {
	o := &Overdrive{}
	o.Base = NewBase()
	o.addParam(param.NewBoundedFloat("drive", 2.0, 1, 20, 0.1))
	o.addParam(param.NewBoundedFloat("mix", 1.0, 0, 1, 0.01))
	return o
}

func (o *Overdrive) Kind() string { return "Overdrive" }

func (o *Overdrive) SetConfig(maxBlock int, sampleRate float64) {
	o.sampleRate = sampleRate
	o.hp.HighPass(80, sampleRate, 0.707)
}

func (o *Overdrive) Reset() { o.hp = dsp.Biquad{}; o.hp.HighPass(80, o.sampleRate, 0.707) }

func (o *Overdrive) Process(buf []float32, msgs *[]string) {
	drive := float32(o.params["drive"].Float())
	mix := float32(o.params["mix"].Float())
	for i, x := range buf {
		filtered := float32(o.hp.Process(float64(x)))
		driven := float32(math.Tanh(float64(filtered * drive)))
		buf[i] = x*(1-mix) + driven*mix
	}
}

// Distortion: high-pass, drive, asymmetric bias, hard-diode soft clip,
// post low/high tilt crossfade controlled by tone.
type Distortion struct {
	Base
	hp         dsp.Biquad
	lowShelf   dsp.Biquad
	highShelf  dsp.Biquad
	sampleRate float64
}

func NewDistortion() *Distortion {
	d := &Distortion{}
	d.Base = NewBase()
	d.addParam(param.NewBoundedFloat("drive", 4.0, 1, 40, 0.1))
	d.addParam(param.NewBoundedFloat("bias", 0.1, -0.5, 0.5, 0.01))
	d.addParam(param.NewBoundedFloat("knee", 2.0, 0.1, 10, 0.1))
	d.addParam(param.NewBoundedFloat("tone", 0.5, 0, 1, 0.01))
	return d
}

func (d *Distortion) Kind() string { return "Distortion" }

func (d *Distortion) SetConfig(maxBlock int, sampleRate float64) {
	d.sampleRate = sampleRate
	d.hp.HighPass(80, sampleRate, 0.707)
	d.lowShelf.LowShelf(400, sampleRate, 0.707, 0)
	d.highShelf.HighShelf(2000, sampleRate, 0.707, 0)
}

func (d *Distortion) Reset() { d.SetConfig(0, d.sampleRate) }

func (d *Distortion) Process(buf []float32, msgs *[]string) {
	drive := float32(d.params["drive"].Float())
	bias := float32(d.params["bias"].Float())
	knee := float32(d.params["knee"].Float())
	tone := d.params["tone"].Float()

	for i, x := range buf {
		filtered := float32(d.hp.Process(float64(x)))
		driven := filtered*drive + bias
		t := float32(2.0) // hard-diode threshold
		var clipped float32
		if driven > t {
			clipped = t + (driven-t)/(1+knee*(driven-t))
		} else if driven < -t {
			clipped = -t + (driven+t)/(1+knee*(-driven-t))
		} else {
			clipped = driven
		}
		low := float32(d.lowShelf.Process(float64(clipped)))
		high := float32(d.highShelf.Process(float64(clipped)))
		buf[i] = low*float32(1-tone) + high*float32(tone)
	}
}

// Fuzz: a simpler high-gain tanh saturation stage.
type Fuzz struct {
	Base
}

func NewFuzz() *Fuzz {
	f := &Fuzz{Base: NewBase()}
	f.addParam(param.NewBoundedFloat("fuzz", 10.0, 1, 100, 0.5))
	f.addParam(param.NewBoundedFloat("level", 0.5, 0, 1, 0.01))
	return f
}

func (f *Fuzz) Kind() string                                  { return "Fuzz" }
func (f *Fuzz) SetConfig(maxBlock int, sampleRate float64) {}
func (f *Fuzz) Reset()                                         {}

func (f *Fuzz) Process(buf []float32, msgs *[]string) {
	gain := float32(f.params["fuzz"].Float())
	level := float32(f.params["level"].Float())
	for i, x := range buf {
		buf[i] = float32(math.Tanh(float64(x*gain))) * level
	}
}
