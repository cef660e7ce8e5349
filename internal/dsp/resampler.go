package dsp

// Resampler2x is a stateful polyphase 2x upsampler/downsampler pair,
// each stage a second-order low-pass at 0.45*sampleRate built on this
// package's own Biquad (re-used rather than a new dependency: a
// cascaded low-pass IS the anti-imaging/anti-aliasing filter a
// polyphase half-band stage needs).
type Resampler2x struct {
	upFilter   Biquad
	downFilter Biquad
	prevInput  float32
	haveInput  bool
}

func NewResampler2x(sampleRate float64) *Resampler2x {
	r := &Resampler2x{}
	cutoff := 0.45 * sampleRate
	r.upFilter.LowPass(cutoff, sampleRate*2, 0.707)
	r.downFilter.LowPass(cutoff, sampleRate*2, 0.707)
	return r
}

// Upsample doubles the input's length: even indices carry the previous
// input sample, odd indices carry the filtered midpoint between the
// previous and current input.
func (r *Resampler2x) Upsample(in []float32, out []float32) {
	for i, x := range in {
		prev := r.prevInput
		if !r.haveInput {
			prev = x
		}
		mid := (prev + x) / 2
		out[2*i] = float32(r.upFilter.Process(float64(prev)))
		out[2*i+1] = float32(r.upFilter.Process(float64(mid)))
		r.prevInput = x
		r.haveInput = true
	}
}

// Downsample filters every input sample but only emits the odd-indexed
// filtered results, halving the buffer length.
func (r *Resampler2x) Downsample(in []float32, out []float32) {
	n := len(in) / 2
	for i := 0; i < n; i++ {
		_ = r.downFilter.Process(float64(in[2*i]))
		out[i] = float32(r.downFilter.Process(float64(in[2*i+1])))
	}
}

// UpsampledLen returns the output length Upsample will produce.
func UpsampledLen(inLen int) int { return inLen * 2 }

// DownsampledLen returns the output length Downsample will produce.
func DownsampledLen(inLen int) int { return inLen / 2 }
