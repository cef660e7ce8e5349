package pedal

import (
	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() {
	Register("Chorus", func() Pedal { return NewChorus() })
	Register("Flanger", func() Pedal { return NewFlanger() })
	Register("Vibrato", func() Pedal { return NewVibrato() })
	Register("Tremolo", func() Pedal { return NewTremolo() })
}

// Chorus: variable-delay-phaser, 8-25ms default range.
type Chorus struct {
	Base
	phaser     *dsp.Phaser
	sampleRate float64
}

func NewChorus() *Chorus {
	c := &Chorus{Base: NewBase()}
	c.addParam(param.NewBoundedFloat("rate_hz", 0.8, 0.05, 10, 0.01))
	c.addParam(param.NewBoundedFloat("mix", 0.5, 0, 1, 0.01))
	return c
}

func (c *Chorus) Kind() string { return "Chorus" }

func (c *Chorus) SetConfig(maxBlock int, sampleRate float64) {
	c.sampleRate = sampleRate
	osc := dsp.NewOscillator(dsp.ShapeSine, c.params["rate_hz"].Float(), sampleRate)
	c.phaser = dsp.NewPhaser(sampleRate, 8, 25, osc)
	c.phaser.Mix = c.params["mix"].Float()
}

func (c *Chorus) Reset() { c.SetConfig(0, c.sampleRate) }

func (c *Chorus) Process(buf []float32, msgs *[]string) {
	if c.phaser == nil {
		c.SetConfig(0, c.sampleRate)
	}
	c.phaser.Osc.Freq = c.params["rate_hz"].Float()
	c.phaser.Mix = c.params["mix"].Float()
	for i, x := range buf {
		buf[i] = c.phaser.Process(x)
	}
}

// Flanger: variable-delay-phaser, 0.5-5ms range + feedback.
type Flanger struct {
	Base
	phaser     *dsp.Phaser
	sampleRate float64
}

func NewFlanger() *Flanger {
	f := &Flanger{Base: NewBase()}
	f.addParam(param.NewBoundedFloat("rate_hz", 0.3, 0.02, 10, 0.01))
	f.addParam(param.NewBoundedFloat("mix", 0.5, 0, 1, 0.01))
	f.addParam(param.NewBoundedFloat("feedback", 0.4, 0, 0.95, 0.01))
	return f
}

func (f *Flanger) Kind() string { return "Flanger" }

func (f *Flanger) SetConfig(maxBlock int, sampleRate float64) {
	f.sampleRate = sampleRate
	osc := dsp.NewOscillator(dsp.ShapeSine, f.params["rate_hz"].Float(), sampleRate)
	f.phaser = dsp.NewPhaser(sampleRate, 0.5, 5, osc)
	f.phaser.Mix = f.params["mix"].Float()
	f.phaser.Feedback = f.params["feedback"].Float()
}

func (f *Flanger) Reset() { f.SetConfig(0, f.sampleRate) }

func (f *Flanger) Process(buf []float32, msgs *[]string) {
	if f.phaser == nil {
		f.SetConfig(0, f.sampleRate)
	}
	f.phaser.Osc.Freq = f.params["rate_hz"].Float()
	f.phaser.Mix = f.params["mix"].Float()
	f.phaser.Feedback = f.params["feedback"].Float()
	for i, x := range buf {
		buf[i] = f.phaser.Process(x)
	}
}

// Vibrato: modulates delay around a padded base, no dry signal.
type Vibrato struct {
	Base
	phaser     *dsp.Phaser
	sampleRate float64
}

func NewVibrato() *Vibrato {
	v := &Vibrato{Base: NewBase()}
	v.addParam(param.NewBoundedFloat("rate_hz", 5, 0.1, 15, 0.01))
	v.addParam(param.NewBoundedFloat("depth_ms", 3, 0.1, 10, 0.01))
	return v
}

func (v *Vibrato) Kind() string { return "Vibrato" }

func (v *Vibrato) SetConfig(maxBlock int, sampleRate float64) {
	v.sampleRate = sampleRate
	osc := dsp.NewOscillator(dsp.ShapeSine, v.params["rate_hz"].Float(), sampleRate)
	base := v.params["depth_ms"].Float()
	v.phaser = dsp.NewPhaser(sampleRate, base*0.2, base*1.8, osc)
	v.phaser.DryIncluded = false
}

func (v *Vibrato) Reset() { v.SetConfig(0, v.sampleRate) }

func (v *Vibrato) Process(buf []float32, msgs *[]string) {
	if v.phaser == nil {
		v.SetConfig(0, v.sampleRate)
	}
	v.phaser.Osc.Freq = v.params["rate_hz"].Float()
	base := v.params["depth_ms"].Float()
	v.phaser.DepthMinMs, v.phaser.DepthMaxMs = base*0.2, base*1.8
	for i, x := range buf {
		buf[i] = v.phaser.Process(x)
	}
}

// Tremolo: modulates amplitude by 1 + depth*osc.
type Tremolo struct {
	Base
	osc *dsp.Oscillator
}

func NewTremolo() *Tremolo {
	t := &Tremolo{Base: NewBase()}
	t.addParam(param.NewBoundedFloat("rate_hz", 5, 0.1, 20, 0.01))
	t.addParam(param.NewBoundedFloat("depth", 0.6, 0, 1, 0.01))
	return t
}

func (t *Tremolo) Kind() string { return "Tremolo" }

func (t *Tremolo) SetConfig(maxBlock int, sampleRate float64) {
	t.osc = dsp.NewOscillator(dsp.ShapeSine, t.params["rate_hz"].Float(), sampleRate)
}

func (t *Tremolo) Reset() {
	if t.osc != nil {
		t.osc.Reset()
	}
}

func (t *Tremolo) Process(buf []float32, msgs *[]string) {
	if t.osc == nil {
		return
	}
	t.osc.Freq = t.params["rate_hz"].Float()
	depth := float32(t.params["depth"].Float())
	for i, x := range buf {
		buf[i] = x * (1 + depth*t.osc.Next())
	}
}
