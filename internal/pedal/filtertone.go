package pedal

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() {
	Register("GraphicEQ7", func() Pedal { return NewGraphicEQ7() })
	Register("Wah", func() Pedal { return NewWah() })
	Register("AutoWah", func() Pedal { return NewAutoWah() })
}

var eq7Centers = [7]float64{100, 200, 400, 800, 1600, 3200, 6400}

// GraphicEQ7: seven fixed-center peaking biquads. A "live" display
// path pushes samples through an Analyser every 100ms and emits a
// short JSON array; live is forced off on deserialization.
type GraphicEQ7 struct {
	Base
	bands         [7]dsp.Biquad
	analyser      *dsp.Analyser
	sampleRate    float64
	samplesToTick int
}

func NewGraphicEQ7() *GraphicEQ7 {
	e := &GraphicEQ7{}
	e.Base = NewBase()
	for _, f := range eq7Centers {
		e.addParam(param.NewBoundedFloat(fmt.Sprintf("gain_%d", int(f)), 0, -12, 12, 0.1))
	}
	e.addParam(param.NewBool("live", false))
	return e
}

func (e *GraphicEQ7) Kind() string { return "GraphicEQ7" }

func (e *GraphicEQ7) SetConfig(maxBlock int, sampleRate float64) {
	e.sampleRate = sampleRate
	for i, f := range eq7Centers {
		e.bands[i].PeakingEQ(f, sampleRate, 1.4, e.params[fmt.Sprintf("gain_%d", int(f))].Float())
	}
	e.analyser = dsp.NewAnalyser(sampleRate, 80, 8000, 32, 2)
}

func (e *GraphicEQ7) Reset() { e.SetConfig(0, e.sampleRate) }

func (e *GraphicEQ7) Process(buf []float32, msgs *[]string) {
	for i, f := range eq7Centers {
		e.bands[i].PeakingEQ(f, e.sampleRate, 1.4, e.params[fmt.Sprintf("gain_%d", int(f))].Float())
	}
	for i := range buf {
		x := float64(buf[i])
		for b := range e.bands {
			x = e.bands[b].Process(x)
		}
		buf[i] = float32(x)
	}

	if !e.params["live"].Bool() || e.analyser == nil {
		return
	}
	e.analyser.PushSamples(buf)
	e.samplesToTick += len(buf)
	ticksPerInterval := int(e.sampleRate / 10) // 100ms
	if ticksPerInterval > 0 && e.samplesToTick >= ticksPerInterval {
		e.samplesToTick = 0
		if spectrum := e.analyser.AnalyseLog2(); spectrum != nil {
			if encoded, err := json.Marshal(spectrum); err == nil {
				*msgs = append(*msgs, string(encoded))
			}
		}
	}
}

// UnmarshalJSON forces "live" off on load, per spec.md, to avoid
// spending analyser cost on a freshly-loaded board before the user has
// opened its UI panel.
func (e *GraphicEQ7) UnmarshalJSON(data []byte) error {
	if err := e.Base.UnmarshalJSON(data); err != nil {
		return err
	}
	return e.params["live"].SetBool(false)
}

// Wah: moving bandpass driven by a position parameter.
type Wah struct {
	Base
	filter     *dsp.MovingBandpass
	sampleRate float64
}

func NewWah() *Wah {
	w := &Wah{}
	w.Base = NewBase()
	w.addParam(param.NewBoundedFloat("position", 0.5, 0, 1, 0.01))
	w.addParam(param.NewBoundedFloat("range_low", 400, 50, 2000, 1))
	w.addParam(param.NewBoundedFloat("range_high", 2200, 200, 6000, 1))
	w.addParam(param.NewBoundedFloat("q", 2.5, 0.3, 10, 0.1))
	return w
}

func (w *Wah) Kind() string { return "Wah" }

func (w *Wah) SetConfig(maxBlock int, sampleRate float64) {
	w.sampleRate = sampleRate
	lo, hi := w.params["range_low"].Float(), w.params["range_high"].Float()
	start := lo + w.params["position"].Float()*(hi-lo)
	w.filter = dsp.NewMovingBandpass(start, sampleRate, w.params["q"].Float(), 5, 32)
}

func (w *Wah) Reset() { w.SetConfig(0, w.sampleRate) }

func (w *Wah) Process(buf []float32, msgs *[]string) {
	if w.filter == nil {
		w.SetConfig(0, w.sampleRate)
	}
	lo, hi := w.params["range_low"].Float(), w.params["range_high"].Float()
	target := lo + w.params["position"].Float()*(hi-lo)
	w.filter.SetTarget(target)
	for i, x := range buf {
		buf[i] = w.filter.Process(x)
	}
}

// AutoWah: moving bandpass frequency modulated by the input envelope.
type AutoWah struct {
	Base
	filter     *dsp.MovingBandpass
	env        *dsp.EnvelopeFollower
	sampleRate float64
}

func NewAutoWah() *AutoWah {
	a := &AutoWah{}
	a.Base = NewBase()
	a.addParam(param.NewBoundedFloat("sensitivity", 0.5, 0, 1, 0.01))
	a.addParam(param.NewBoundedFloat("range_low", 400, 50, 2000, 1))
	a.addParam(param.NewBoundedFloat("range_high", 2200, 200, 6000, 1))
	a.addParam(param.NewBoundedFloat("q", 2.5, 0.3, 10, 0.1))
	a.addParam(param.NewBoundedFloat("attack_ms", 5, 0.1, 100, 0.1))
	a.addParam(param.NewBoundedFloat("release_ms", 80, 1, 500, 1))
	return a
}

func (a *AutoWah) Kind() string { return "AutoWah" }

func (a *AutoWah) SetConfig(maxBlock int, sampleRate float64) {
	a.sampleRate = sampleRate
	lo := a.params["range_low"].Float()
	a.filter = dsp.NewMovingBandpass(lo, sampleRate, a.params["q"].Float(), 5, 32)
	a.env = dsp.NewEnvelopeFollower(sampleRate, a.params["attack_ms"].Float(), a.params["release_ms"].Float())
}

func (a *AutoWah) Reset() {
	a.SetConfig(0, a.sampleRate)
}

func (a *AutoWah) Process(buf []float32, msgs *[]string) {
	if a.filter == nil {
		a.SetConfig(0, a.sampleRate)
	}
	a.env.SetTimes(a.params["attack_ms"].Float(), a.params["release_ms"].Float())
	lo, hi := a.params["range_low"].Float(), a.params["range_high"].Float()
	sens := a.params["sensitivity"].Float()
	for i, x := range buf {
		level := a.env.Process(math.Abs(float64(x)))
		target := lo + math.Min(1, level*sens*4)*(hi-lo)
		a.filter.SetTarget(target)
		buf[i] = a.filter.Process(x)
	}
}
