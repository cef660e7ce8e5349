package dsp

import "math"

// YIN is a buffer-driven pitch detector implementing the de Cheveigne
// & Kawahara algorithm exactly as spec.md §4.1 describes: a difference
// function, its cumulative-mean-normalized form, an absolute-threshold
// search, and parabolic refinement.
type YIN struct {
	sampleRate float64
	threshold  float64
	tauMax     int
	tauMin     int
	lastHz     float64
}

// MinimumBufferLength returns the number of samples YIN needs before
// it can estimate a pitch no lower than freqMin, spanning numPeriods
// cycles.
func MinimumBufferLength(sampleRate, freqMin float64, numPeriods int) int {
	return int(math.Ceil((sampleRate / freqMin) * float64(numPeriods)))
}

// NewYIN creates a detector bounded to [freqMin, freqMax] with the
// conventional threshold of 0.1.
func NewYIN(sampleRate, freqMin, freqMax float64) *YIN {
	tauMax := int(sampleRate / freqMin)
	tauMin := int(sampleRate / freqMax)
	if tauMin < 1 {
		tauMin = 1
	}
	return &YIN{sampleRate: sampleRate, threshold: 0.1, tauMax: tauMax, tauMin: tauMin}
}

// Detect returns the estimated fundamental frequency in Hz for the
// given window. Below the confidence threshold, it returns the
// previous estimate rather than 0 or NaN, avoiding jitter on silence.
func (y *YIN) Detect(buf []float32) float64 {
	n := len(buf)
	if y.tauMax >= n {
		return y.lastHz
	}

	// Normalize by peak amplitude.
	peak := float32(0)
	for _, v := range buf {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	x := make([]float64, n)
	if peak > 0 {
		for i, v := range buf {
			x[i] = float64(v) / float64(peak)
		}
	} else {
		return y.lastHz
	}

	d := make([]float64, y.tauMax+1)
	for tau := 1; tau <= y.tauMax; tau++ {
		var sum float64
		for j := 0; j+tau < n; j++ {
			diff := x[j] - x[j+tau]
			sum += diff * diff
		}
		d[tau] = sum
	}

	cmndf := make([]float64, y.tauMax+1)
	cmndf[0] = 1
	runningSum := 0.0
	for tau := 1; tau <= y.tauMax; tau++ {
		runningSum += d[tau]
		if runningSum == 0 {
			cmndf[tau] = 1
		} else {
			cmndf[tau] = d[tau] * float64(tau) / runningSum
		}
	}

	bestTau := -1
	bestVal := math.Inf(1)
	for tau := y.tauMin; tau <= y.tauMax; tau++ {
		if cmndf[tau] < bestVal {
			bestVal = cmndf[tau]
			bestTau = tau
		}
	}

	if bestTau < 0 || bestVal >= y.threshold {
		return y.lastHz
	}

	refinedTau := float64(bestTau)
	if bestTau > 1 && bestTau < y.tauMax {
		s0, s1, s2 := cmndf[bestTau-1], cmndf[bestTau], cmndf[bestTau+1]
		denom := 2*(2*s1-s2-s0)
		if denom != 0 {
			refinedTau = float64(bestTau) + (s2-s0)/denom
		}
	}
	if refinedTau <= 0 {
		return y.lastHz
	}

	hz := y.sampleRate / refinedTau
	y.lastHz = hz
	return hz
}
