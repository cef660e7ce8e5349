package pedal

import (
	"fmt"
	"math"

	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() {
	Register("Compressor", func() Pedal { return NewCompressor() })
	Register("NoiseGate", func() Pedal { return NewNoiseGate() })
}

// Compressor: envelope follower, dB-domain soft-knee transfer,
// emits its rounded envelope every 100ms for UI feedback.
type Compressor struct {
	Base
	env           *dsp.EnvelopeFollower
	sampleRate    float64
	samplesToTick int
}

func NewCompressor() *Compressor {
	c := &Compressor{}
	c.Base = NewBase()
	c.addParam(param.NewBoundedFloat("threshold", -18, -60, 0, 0.1))
	c.addParam(param.NewBoundedFloat("ratio", 4, 1, 20, 0.1))
	c.addParam(param.NewBoundedFloat("attack_ms", 10, 0.1, 200, 0.1))
	c.addParam(param.NewBoundedFloat("release_ms", 100, 1, 1000, 1))
	c.addParam(param.NewBoundedFloat("soft_knee_db", 6, 0, 24, 0.1))
	c.addParam(param.NewBoundedFloat("mix", 1, 0, 1, 0.01))
	return c
}

func (c *Compressor) Kind() string { return "Compressor" }

func (c *Compressor) SetConfig(maxBlock int, sampleRate float64) {
	c.sampleRate = sampleRate
	c.env = dsp.NewEnvelopeFollower(sampleRate, c.params["attack_ms"].Float(), c.params["release_ms"].Float())
}

func (c *Compressor) Reset() {
	if c.env != nil {
		c.env.Reset()
	}
}

func (c *Compressor) Process(buf []float32, msgs *[]string) {
	if c.env == nil {
		c.SetConfig(0, c.sampleRate)
	}
	c.env.SetTimes(c.params["attack_ms"].Float(), c.params["release_ms"].Float())
	threshold := c.params["threshold"].Float()
	ratio := c.params["ratio"].Float()
	knee := c.params["soft_knee_db"].Float()
	mix := float32(c.params["mix"].Float())

	for i, x := range buf {
		level := c.env.Process(math.Abs(float64(x)))
		envDB := linToDB(level)

		var outDB float64
		delta := envDB - threshold
		switch {
		case knee > 0 && math.Abs(delta) <= knee/2:
			d := delta + knee/2
			outDB = envDB + ((1/ratio-1)*d*d)/(2*knee)
		case delta > knee/2:
			outDB = threshold + (envDB-threshold)/ratio
		default:
			outDB = envDB
		}

		gainDB := outDB - envDB
		gain := float32(math.Pow(10, gainDB/20))
		buf[i] = x*(1-mix) + x*gain*mix
	}

	c.samplesToTick += len(buf)
	ticksPerInterval := int(c.sampleRate / 10) // 100ms
	if ticksPerInterval > 0 && c.samplesToTick >= ticksPerInterval {
		c.samplesToTick = 0
		*msgs = append(*msgs, fmt.Sprintf("%.1f", math.Round(linToDB(c.env.Level())*10)/10))
	}
}

func linToDB(level float64) float64 {
	if level <= 0 {
		return -120
	}
	return 20 * math.Log10(level)
}

// NoiseGate: single-pole RMS estimator, dB threshold, reduction ratio.
type NoiseGate struct {
	Base
	env        *dsp.EnvelopeFollower
	sampleRate float64
}

func NewNoiseGate() *NoiseGate {
	g := &NoiseGate{}
	g.Base = NewBase()
	g.addParam(param.NewBoundedFloat("threshold", -40, -80, 0, 0.1))
	g.addParam(param.NewBoundedFloat("reduction_db", 24, 0, 80, 0.1))
	g.addParam(param.NewBoundedFloat("attack_ms", 2, 0.1, 100, 0.1))
	g.addParam(param.NewBoundedFloat("release_ms", 150, 1, 2000, 1))
	g.addParam(param.NewBoundedFloat("mix", 1, 0, 1, 0.01))
	return g
}

func (g *NoiseGate) Kind() string { return "NoiseGate" }

func (g *NoiseGate) SetConfig(maxBlock int, sampleRate float64) {
	g.sampleRate = sampleRate
	g.env = dsp.NewEnvelopeFollower(sampleRate, g.params["attack_ms"].Float(), g.params["release_ms"].Float())
}

func (g *NoiseGate) Reset() {
	if g.env != nil {
		g.env.Reset()
	}
}

func (g *NoiseGate) Process(buf []float32, msgs *[]string) {
	if g.env == nil {
		g.SetConfig(0, g.sampleRate)
	}
	g.env.SetTimes(g.params["attack_ms"].Float(), g.params["release_ms"].Float())
	threshold := g.params["threshold"].Float()
	reductionDB := g.params["reduction_db"].Float()
	mix := float32(g.params["mix"].Float())

	for i, x := range buf {
		level := g.env.Process(math.Abs(float64(x)))
		envDB := linToDB(level)
		gainDB := 0.0
		if envDB < threshold {
			gainDB = -reductionDB
		}
		gain := float32(math.Pow(10, gainDB/20))
		buf[i] = x*(1-mix) + x*gain*mix
	}
}
