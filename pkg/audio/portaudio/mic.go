package portaudio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tomoai/tomo/pkg/audio/capture"
)

const micFrameDuration = 20 * time.Millisecond

// Microphone opens the default input device at its native sample rate.
// It implements capture.Device; the recorder downsamples to the wire
// rate itself.
type Microphone struct{}

// Open opens the default input device. The processing options are
// accepted for interface compatibility; PortAudio exposes no voice
// processing hooks, so they have no effect here.
func (Microphone) Open(_ capture.Options) (capture.Stream, error) {
	info, err := DefaultInputDevice()
	if err != nil {
		return nil, err
	}
	rate := int(info.DefaultSampleRate)
	if rate <= 0 {
		return nil, fmt.Errorf("portaudio: device %q reports sample rate %d", info.Name, rate)
	}

	frames := rate * int(micFrameDuration) / int(time.Second)
	s, err := openStream(true, float64(rate), frames)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		s.Close()
		return nil, err
	}
	return &micStream{stream: s, rate: rate, frames: frames}, nil
}

type micStream struct {
	stream *stream
	rate   int
	frames int

	mu     sync.Mutex
	closed bool
}

func (m *micStream) SampleRate() int { return m.rate }

// Read fills p with normalized float32 samples at the device rate.
func (m *micStream) Read(p []float32) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, io.EOF
	}
	m.mu.Unlock()

	frames := m.frames
	if len(p) < frames {
		frames = len(p)
	}
	samples, err := m.stream.Read(frames)
	if err != nil {
		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return 0, io.EOF
		}
		return 0, err
	}
	for i, s := range samples {
		p[i] = float32(s) / 32768.0
	}
	return len(samples), nil
}

func (m *micStream) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()
	return m.stream.Close()
}
