package pedal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() { Register("ImpulseResponse", func() Pedal { return NewImpulseResponse() }) }

// ImpulseResponse convolves the signal against a loaded WAV impulse
// response via overlap-add FFT convolution.
type ImpulseResponse struct {
	Base
	conv       *dsp.Convolver
	ir         []float64
	sampleRate float64
	maxBlock   int
	loadErr    string
}

func NewImpulseResponse() *ImpulseResponse {
	ir := &ImpulseResponse{Base: NewBase()}
	ir.addParam(param.NewString("path", ""))
	ir.addParam(param.NewBoundedFloat("mix", 1.0, 0, 1, 0.01))
	return ir
}

func (ir *ImpulseResponse) Kind() string { return "ImpulseResponse" }

func (ir *ImpulseResponse) SetConfig(maxBlock int, sampleRate float64) {
	ir.sampleRate = sampleRate
	ir.maxBlock = maxBlock
	if maxBlock <= 0 {
		maxBlock = 512
	}
	if ir.ir == nil {
		if path := ir.params["path"].String(); path != "" {
			ir.loadIR(path)
		}
	}
	if len(ir.ir) > 0 {
		ir.conv = dsp.NewConvolver(ir.ir, maxBlock)
	}
}

func (ir *ImpulseResponse) loadIR(path string) {
	samples, err := loadMonoWAV(path)
	if err != nil {
		ir.loadErr = err.Error()
		return
	}
	ir.ir = samples
	ir.loadErr = ""
}

func (ir *ImpulseResponse) Reset() {
	ir.ir = nil
	ir.conv = nil
	ir.SetConfig(ir.maxBlock, ir.sampleRate)
}

func (ir *ImpulseResponse) Process(buf []float32, msgs *[]string) {
	if ir.conv == nil {
		if ir.loadErr != "" {
			*msgs = append(*msgs, fmt.Sprintf("ImpulseResponse: %s", ir.loadErr))
		}
		return
	}
	if len(buf) > ir.conv.MaxBlock() {
		ir.conv = dsp.NewConvolver(ir.ir, len(buf))
	}

	mix := float32(ir.params["mix"].Float())
	dry := make([]float32, len(buf))
	copy(dry, buf)
	ir.conv.Process(buf)
	for i := range buf {
		buf[i] = dry[i]*(1-mix) + buf[i]*mix
	}
}

// wavHeader mirrors the canonical 44-byte PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// loadMonoWAV reads a 16-bit PCM WAV file and returns its samples,
// downmixed to mono and scaled to [-1, 1].
func loadMonoWAV(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read impulse response: %w", err)
	}
	if len(data) < 44 {
		return nil, fmt.Errorf("impulse response %q: too short to be a WAV file", path)
	}

	var hdr wavHeader
	if err := binary.Read(bytes.NewReader(data[:44]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("impulse response %q: %w", path, err)
	}
	if string(hdr.ChunkID[:]) != "RIFF" || string(hdr.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("impulse response %q: not a RIFF/WAVE file", path)
	}
	if hdr.AudioFormat != 1 || hdr.BitsPerSample != 16 {
		return nil, fmt.Errorf("impulse response %q: only 16-bit PCM is supported", path)
	}

	body := data[44:]
	frames := len(body) / (2 * int(hdr.NumChannels))
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < int(hdr.NumChannels); ch++ {
			off := i*int(hdr.NumChannels)*2 + ch*2
			sum += int32(int16(binary.LittleEndian.Uint16(body[off : off+2])))
		}
		out[i] = float64(sum) / float64(int(hdr.NumChannels)) / 32768.0
	}
	return out, nil
}
