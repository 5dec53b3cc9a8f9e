// Package resampler converts mono 16-bit PCM between sample rates by
// wrapping an io.Reader. It is used where a fixed wire rate meets a
// device that runs at a different one, e.g. feeding the 24 kHz agent
// speech stream to an output device opened at 48 kHz.
package resampler

import (
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

const sampleBytes = 2 // mono, 16-bit

// Resampler wraps an io.Reader of mono PCM16LE at srcRate and exposes
// the same audio at dstRate. It must be closed to release resources.
type Resampler interface {
	io.ReadCloser
	CloseWithError(error) error
}

type mono struct {
	src     io.Reader
	srcRate int
	dstRate int

	mu        sync.Mutex
	closeErr  error
	resampler resampling.Resampler
	readBuf   []byte
	leftover  []byte
}

// New creates a Resampler reading mono PCM16LE at srcRate from src and
// producing mono PCM16LE at dstRate. Equal rates pass data through
// unchanged.
func New(src io.Reader, srcRate, dstRate int) (Resampler, error) {
	m := &mono{
		src:     newSampleReader(src, sampleBytes),
		srcRate: srcRate,
		dstRate: dstRate,
	}
	if srcRate != dstRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcRate),
			OutputRate: float64(dstRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
		m.resampler = rs
	}
	return m, nil
}

// Read copies resampled audio into p. Not safe for concurrent use.
func (m *mono) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < sampleBytes {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/sampleBytes*sampleBytes]

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.leftover) > 0 {
		n := copy(p, m.leftover)
		m.leftover = m.leftover[n:]
		return n, nil
	}
	if m.closeErr != nil {
		return 0, m.closeErr
	}
	if m.resampler == nil {
		return m.src.Read(p)
	}
	return m.readResampled(p)
}

func (m *mono) readResampled(p []byte) (int, error) {
	ratio := float64(m.srcRate) / float64(m.dstRate)
	need := int(float64(len(p))*ratio) + sampleBytes*4
	need = need / sampleBytes * sampleBytes
	if cap(m.readBuf) < need {
		m.readBuf = make([]byte, need)
	}

	rn, readErr := m.src.Read(m.readBuf[:need])
	if rn == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	input := make([]float64, rn/2)
	for i := range input {
		v := int16(m.readBuf[i*2]) | int16(m.readBuf[i*2+1])<<8
		input[i] = float64(v) / 32768.0
	}

	output, err := m.resampler.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resampler: process: %w", err)
	}
	if len(output) == 0 {
		return 0, readErr
	}

	outBytes := make([]byte, len(output)*2)
	for i, f := range output {
		v := int16(f * 32767.0)
		if f > 1.0 {
			v = 32767
		} else if f < -1.0 {
			v = -32768
		}
		outBytes[i*2] = byte(v)
		outBytes[i*2+1] = byte(v >> 8)
	}

	n := copy(p, outBytes)
	if len(outBytes) > n {
		m.leftover = append(m.leftover, outBytes[n:]...)
	}
	return n, readErr
}

// Close releases resources. Subsequent reads return io.ErrClosedPipe.
func (m *mono) Close() error {
	return m.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError releases resources with a custom error returned by
// subsequent reads.
func (m *mono) CloseWithError(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closeErr == nil {
		m.closeErr = err
	}
	m.resampler = nil
	return nil
}
