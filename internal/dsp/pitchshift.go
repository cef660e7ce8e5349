package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// PitchShifter performs frequency-domain pitch shifting by resynthesizing
// each analysis frame's spectrum with its bins shifted by a ratio, while
// tracking bin phase across overlapping frames so the output stays
// phase-coherent (Bernsee's classic FFT pitch-shifting technique, the
// frequency-domain sibling of original_source's PhaseVocoder collaborator).
// Analysis and synthesis share one hop, so no separate time-domain
// resampling stage is needed.
type PitchShifter struct {
	frameSize  int
	osamp      int
	hop        int
	sampleRate float64

	inFIFO    []float64
	outFIFO   []float64
	outAccum  []float64
	lastPhase []float64
	sumPhase  []float64
	anaFreq   []float64
	anaMagn   []float64
	synFreq   []float64
	synMagn   []float64
	window    []float64
	rover     int
}

// NewPitchShifter plans a shifter for the given frame size (power of two,
// e.g. 1024) and oversampling factor (e.g. 4, giving 75% frame overlap).
func NewPitchShifter(frameSize, osamp int, sampleRate float64) *PitchShifter {
	if frameSize <= 0 {
		frameSize = 1024
	}
	if osamp <= 0 {
		osamp = 4
	}
	hop := frameSize / osamp
	half := frameSize/2 + 1
	window := make([]float64, frameSize)
	for i := range window {
		window[i] = -0.5*math.Cos(2*math.Pi*float64(i)/float64(frameSize)) + 0.5
	}
	return &PitchShifter{
		frameSize:  frameSize,
		osamp:      osamp,
		hop:        hop,
		sampleRate: sampleRate,
		inFIFO:     make([]float64, frameSize),
		outFIFO:    make([]float64, frameSize),
		outAccum:   make([]float64, frameSize*2),
		lastPhase:  make([]float64, half),
		sumPhase:   make([]float64, half),
		anaFreq:    make([]float64, half),
		anaMagn:    make([]float64, half),
		synFreq:    make([]float64, half),
		synMagn:    make([]float64, half),
		window:     window,
		rover:      0,
	}
}

func (p *PitchShifter) Reset() {
	for i := range p.inFIFO {
		p.inFIFO[i] = 0
		p.outFIFO[i] = 0
	}
	for i := range p.outAccum {
		p.outAccum[i] = 0
	}
	for i := range p.lastPhase {
		p.lastPhase[i] = 0
		p.sumPhase[i] = 0
	}
	p.rover = 0
}

// Process pitch shifts in by ratio (1.0 = unchanged, 2.0 = octave up)
// into out, which must be at least len(in) long.
func (p *PitchShifter) Process(in []float32, out []float32, ratio float64) {
	n := p.frameSize
	half := n/2 + 1
	freqPerBin := p.sampleRate / float64(n)
	expct := 2 * math.Pi * float64(p.hop) / float64(n)

	for i := 0; i < len(in); i++ {
		p.inFIFO[p.rover] = float64(in[i])
		out[i] = float32(p.outFIFO[p.rover])
		p.rover++

		if p.rover >= n {
			p.rover = n - p.hop

			windowed := make([]complex128, n)
			for k := 0; k < n; k++ {
				windowed[k] = complex(p.inFIFO[k]*p.window[k], 0)
			}
			spec := fft.FFT(windowed)

			for k := 0; k < half; k++ {
				mag := cabsFast(spec[k])
				phase := cargFast(spec[k])

				diff := phase - p.lastPhase[k]
				p.lastPhase[k] = phase
				diff -= float64(k) * expct

				qpd := int(diff / math.Pi)
				if qpd >= 0 {
					qpd += qpd & 1
				} else {
					qpd -= qpd & 1
				}
				diff -= math.Pi * float64(qpd)
				deviation := p.osampFactor() * diff / (2 * math.Pi)

				p.anaMagn[k] = mag
				p.anaFreq[k] = (float64(k) + deviation) * freqPerBin
			}

			for k := range p.synMagn {
				p.synMagn[k] = 0
				p.synFreq[k] = 0
			}
			for k := 0; k < half; k++ {
				idx := int(float64(k) * ratio)
				if idx < half {
					p.synMagn[idx] += p.anaMagn[k]
					p.synFreq[idx] = p.anaFreq[k] * ratio
				}
			}

			synSpec := make([]complex128, n)
			for k := 0; k < half; k++ {
				mag := p.synMagn[k]
				deviation := (p.synFreq[k] - float64(k)*freqPerBin) / freqPerBin
				phaseInc := expct*float64(k) + 2*math.Pi*deviation/p.osampFactor()
				p.sumPhase[k] += phaseInc
				ph := p.sumPhase[k]
				synSpec[k] = complex(mag*math.Cos(ph), mag*math.Sin(ph))
				if k > 0 && k < n-half+1 {
					synSpec[n-k] = complex(mag*math.Cos(ph), -mag*math.Sin(ph))
				}
			}

			timeDomain := fft.IFFT(synSpec)
			scale := 2.0 / (float64(half) * p.osampFactor())
			for k := 0; k < n; k++ {
				p.outAccum[k] += p.window[k] * real(timeDomain[k]) * scale
			}
			copy(p.outFIFO, p.outAccum[:p.hop])
			copy(p.outAccum, p.outAccum[p.hop:])
			for k := n - p.hop; k < n; k++ {
				p.outAccum[k] = 0
			}
			copy(p.inFIFO, p.inFIFO[p.hop:])
		}
	}
}

func (p *PitchShifter) osampFactor() float64 { return float64(p.osamp) }

func cabsFast(c complex128) float64 { return math.Hypot(real(c), imag(c)) }
func cargFast(c complex128) float64 { return math.Atan2(imag(c), real(c)) }
