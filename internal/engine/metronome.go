package engine

import "math"

// Metronome mixes a short decaying click into the output buffer once
// per beat, grounded on original_source's metronome_player usage
// (`self.metronome.1.add_to_buffer(&mut self.data_buffer)` gated by an
// enabled flag, with bpm/volume fields set directly by command
// dispatch).
type Metronome struct {
	BPM        uint32
	Volume     float32
	sampleRate float64

	samplesPerBeat float64
	samplesSinceClick float64
	clickPos       int
	clickLenSamples int
}

const metronomeClickFreq = 1800.0
const metronomeClickMs = 15.0

func NewMetronome(sampleRate float64) *Metronome {
	m := &Metronome{BPM: 120, Volume: 0.6, sampleRate: sampleRate}
	m.Reconfigure(sampleRate)
	return m
}

func (m *Metronome) Reconfigure(sampleRate float64) {
	m.sampleRate = sampleRate
	m.clickLenSamples = int(metronomeClickMs * sampleRate / 1000.0)
	m.samplesSinceClick = 0
	m.clickPos = m.clickLenSamples // starts "finished", waits for first beat
}

// AddToBuffer mixes click energy additively into buf.
func (m *Metronome) AddToBuffer(buf []float32) {
	if m.BPM == 0 {
		return
	}
	m.samplesPerBeat = 60.0 / float64(m.BPM) * m.sampleRate

	for i := range buf {
		m.samplesSinceClick++
		if m.samplesSinceClick >= m.samplesPerBeat {
			m.samplesSinceClick = 0
			m.clickPos = 0
		}
		if m.clickPos < m.clickLenSamples {
			t := float64(m.clickPos) / float64(m.clickLenSamples)
			envelope := math.Exp(-6 * t)
			click := math.Sin(2*math.Pi*metronomeClickFreq*float64(m.clickPos)/m.sampleRate) * envelope
			buf[i] += float32(click) * m.Volume
			m.clickPos++
		}
	}
}
