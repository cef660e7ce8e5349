package pedal

import "github.com/Si1veR123/rs-pedalboard/internal/param"

func init() { Register("Volume", func() Pedal { return NewVolume() }) }

// Volume is a single-gain pedal.
type Volume struct {
	Base
}

func NewVolume() *Volume {
	v := &Volume{Base: NewBase()}
	v.addParam(param.NewBoundedFloat("volume", 1.0, 0, 4, 0.01))
	return v
}

func (v *Volume) Kind() string { return "Volume" }

func (v *Volume) SetConfig(maxBlock int, sampleRate float64) {}

func (v *Volume) Reset() {}

func (v *Volume) Process(buf []float32, msgs *[]string) {
	gain := float32(v.params["volume"].Float())
	for i := range buf {
		buf[i] *= gain
	}
}
