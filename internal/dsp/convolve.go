package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Convolver performs overlap-add FFT convolution against a fixed
// impulse response, grounded on the retrieval pack's use of
// github.com/mjibson/go-dsp/fft for spectral processing (dynsim's
// audio.go, gopus's encoder analysis).
type Convolver struct {
	fftSize  int
	maxBlock int
	irSpec   []complex128
	overlap  []float64
}

// NewConvolver plans an overlap-add convolver for an impulse response
// of length irLen against blocks no larger than maxBlock.
func NewConvolver(ir []float64, maxBlock int) *Convolver {
	fftSize := nextPow2(maxBlock + len(ir) - 1)
	padded := make([]complex128, fftSize)
	for i, v := range ir {
		padded[i] = complex(v, 0)
	}
	return &Convolver{
		fftSize:  fftSize,
		maxBlock: maxBlock,
		irSpec:   fft.FFT(padded),
		overlap:  make([]float64, fftSize),
	}
}

// MaxBlock reports the largest block this convolver was planned for.
func (c *Convolver) MaxBlock() int { return c.maxBlock }

// Process convolves buf in place. Input longer than MaxBlock is
// truncated silently (the caller is expected to log this).
func (c *Convolver) Process(buf []float32) {
	n := len(buf)
	if n > c.maxBlock {
		n = c.maxBlock
		buf = buf[:n]
	}

	padded := make([]complex128, c.fftSize)
	for i := 0; i < n; i++ {
		padded[i] = complex(float64(buf[i]), 0)
	}

	spec := fft.FFT(padded)
	for i := range spec {
		spec[i] *= c.irSpec[i]
	}
	timeDomain := fft.IFFT(spec)

	newOverlap := make([]float64, c.fftSize)
	for i := 0; i < c.fftSize; i++ {
		v := real(timeDomain[i]) + c.overlap[i]
		if i < n {
			buf[i] = float32(v)
		} else {
			newOverlap[i-n] = v
		}
	}
	c.overlap = newOverlap
}

// magnitude is a small helper kept here (rather than in analyse.go) so
// both files can share it without an import cycle.
func magnitude(c complex128) float64 { return cmplx.Abs(c) }
