package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Analyser computes a realtime log-spaced magnitude spectrum over
// [fmin, fmax] sampled into numBins bins, used by the graphic EQ's
// "live" display path. Grounded on the retrieval pack's spectral
// analysis over an FFT frame (thesyncim-gopus encoder/analysis.go).
type Analyser struct {
	sampleRate float64
	fmin, fmax float64
	numBins    int
	fftSize    int
	ring       []float32
	fill       int
}

// NewAnalyser plans an FFT frame sized to the next power of two of
// sampleRate*oversample*numBins/(fmax-fmin).
func NewAnalyser(sampleRate, fmin, fmax float64, numBins int, oversample float64) *Analyser {
	fftSize := nextPow2(int(sampleRate * oversample * float64(numBins) / (fmax - fmin)))
	return &Analyser{
		sampleRate: sampleRate,
		fmin:       fmin,
		fmax:       fmax,
		numBins:    numBins,
		fftSize:    fftSize,
		ring:       make([]float32, fftSize),
	}
}

// PushSamples appends samples into the bounded analysis ring.
func (a *Analyser) PushSamples(samples []float32) {
	for _, s := range samples {
		if a.fill < len(a.ring) {
			a.ring[a.fill] = s
			a.fill++
		} else {
			copy(a.ring, a.ring[1:])
			a.ring[len(a.ring)-1] = s
		}
	}
}

// Ready reports whether the ring has filled enough to analyse.
func (a *Analyser) Ready() bool { return a.fill >= a.fftSize }

// AnalyseLog2 returns numBins log-spaced magnitude samples, or nil if
// the buffer isn't yet full.
func (a *Analyser) AnalyseLog2() []float64 {
	if !a.Ready() {
		return nil
	}
	frame := make([]complex128, a.fftSize)
	for i, v := range a.ring {
		frame[i] = complex(float64(v), 0)
	}
	spec := fft.FFT(frame)

	bins := make([]float64, a.numBins)
	logMin, logMax := math.Log2(a.fmin), math.Log2(a.fmax)
	for i := 0; i < a.numBins; i++ {
		t := float64(i) / float64(a.numBins-1)
		freq := math.Exp2(logMin + t*(logMax-logMin))
		idx := int(freq / a.sampleRate * float64(a.fftSize))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(spec)/2 {
			idx = len(spec)/2 - 1
		}
		bins[i] = magnitude(spec[idx]) / float64(a.fftSize)
	}
	return bins
}
