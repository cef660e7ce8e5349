package engine

import "math"

// PeakVolumeMonitor tracks the largest absolute sample seen since the
// last TakePeak, grounded directly on original_source's
// PeakVolumeMonitor.
type PeakVolumeMonitor struct {
	peak float32
}

func (m *PeakVolumeMonitor) AddSamples(samples []float32) {
	for _, s := range samples {
		a := float32(math.Abs(float64(s)))
		if a > m.peak {
			m.peak = a
		}
	}
}

// TakePeak returns the tracked peak and resets it.
func (m *PeakVolumeMonitor) TakePeak() float32 {
	p := m.peak
	m.Reset()
	return p
}

func (m *PeakVolumeMonitor) Reset() { m.peak = 0 }
