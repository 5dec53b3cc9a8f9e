package portaudio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tomoai/tomo/pkg/audio/pcm"
	"github.com/tomoai/tomo/pkg/audio/playback"
	"github.com/tomoai/tomo/pkg/audio/resampler"
)

const speakerFrameDuration = 20 * time.Millisecond

// Speaker plays scheduled agent speech on the default output device.
// It implements playback.Output: once started, a writer goroutine pulls
// rendered 24 kHz audio from the source, resamples it to the device
// rate and writes it out. The blocking device writes provide pacing.
type Speaker struct {
	mu      sync.Mutex
	stream  *stream
	rs      resampler.Resampler
	done    chan struct{}
	started bool
}

// Start opens the output device and begins pulling from src.
func (sp *Speaker) Start(src playback.Source) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.started {
		return nil
	}

	info, err := DefaultOutputDevice()
	if err != nil {
		return err
	}
	rate := int(info.DefaultSampleRate)
	if rate <= 0 {
		return fmt.Errorf("portaudio: device %q reports sample rate %d", info.Name, rate)
	}

	frames := rate * int(speakerFrameDuration) / int(time.Second)
	s, err := openStream(false, float64(rate), frames)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		s.Close()
		return err
	}

	rs, err := resampler.New(&sourceReader{src: src}, pcm.L16Mono24K.SampleRate(), rate)
	if err != nil {
		s.Close()
		return err
	}

	sp.stream = s
	sp.rs = rs
	sp.done = make(chan struct{})
	sp.started = true
	go sp.writeLoop(frames)
	return nil
}

// Resume is a no-op: blocking PortAudio streams do not suspend.
func (sp *Speaker) Resume() error { return nil }

// Close stops the writer goroutine and releases the device.
func (sp *Speaker) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if !sp.started {
		return nil
	}
	sp.started = false

	sp.rs.Close()
	err := sp.stream.Close()
	<-sp.done
	sp.stream = nil
	sp.rs = nil
	return err
}

func (sp *Speaker) writeLoop(frames int) {
	defer close(sp.done)

	stream := sp.stream
	rs := sp.rs
	buf := make([]byte, frames*2)
	samples := make([]int16, frames)

	for {
		n, err := io.ReadFull(rs, buf)
		if n == 0 {
			return
		}
		for i := 0; i < n/2; i++ {
			samples[i] = int16(buf[i*2]) | int16(buf[i*2+1])<<8
		}
		if werr := stream.Write(samples[:n/2]); werr != nil {
			return
		}
		if err != nil {
			return
		}
	}
}

// sourceReader adapts a playback source to an io.Reader of 24 kHz mono
// PCM16LE. The source zero-fills gaps, so reads never block or run
// short.
type sourceReader struct {
	src     playback.Source
	samples []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n := len(p) / 2
	if n == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(r.samples) < n {
		r.samples = make([]float32, n)
	}
	r.src.Render(r.samples[:n])

	for i, f := range r.samples[:n] {
		v := int16(f * 32767.0)
		if f > 1.0 {
			v = 32767
		} else if f < -1.0 {
			v = -32768
		}
		p[i*2] = byte(v)
		p[i*2+1] = byte(v >> 8)
	}
	return n * 2, nil
}
