// Package capture acquires microphone audio and turns it into 16 kHz
// mono 16-bit PCM chunks ready to send upstream.
package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tomoai/tomo/pkg/audio/pcm"
)

// frameDivisor splits a second of device audio into 20ms reads.
const frameDivisor = 50

// Recorder captures from a Device, downsamples to the fixed 16 kHz wire
// rate, encodes to PCM16 and queues encoded chunks until drained.
//
// The microphone is owned exclusively by one Recorder at a time; Start
// while recording is a no-op and Stop is idempotent.
type Recorder struct {
	dev    Device
	target pcm.Format

	mu        sync.Mutex
	stream    Stream
	recording bool
	queue     [][]byte

	wg sync.WaitGroup
}

// NewRecorder creates a Recorder capturing from dev. Output chunks are
// always pcm.L16Mono16K regardless of the device's native rate.
func NewRecorder(dev Device) *Recorder {
	return &Recorder{dev: dev, target: pcm.L16Mono16K}
}

// Start opens the microphone with echo cancellation, noise suppression
// and auto gain requested, and begins continuous capture. It returns an
// error if the device is unavailable or permission is denied; the caller
// decides whether to retry or abort the call. Calling Start while already
// recording is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return nil
	}

	stream, err := r.dev.Open(Options{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	})
	if err != nil {
		return fmt.Errorf("capture: open microphone: %w", err)
	}

	r.stream = stream
	r.recording = true
	r.wg.Add(1)
	go r.loop(stream)
	return nil
}

func (r *Recorder) loop(s Stream) {
	defer r.wg.Done()

	native := s.SampleRate()
	frame := make([]float32, max(native/frameDivisor, 1))
	for {
		n, err := s.Read(frame)
		if n > 0 {
			chunk := EncodePCM16(Downsample(frame[:n], native, r.target.SampleRate()))
			r.mu.Lock()
			if r.recording {
				r.queue = append(r.queue, chunk)
			}
			r.mu.Unlock()
		}
		if err != nil {
			if r.Recording() {
				slog.Warn("capture: device read failed", "err", err)
			}
			return
		}
	}
}

// DrainChunks atomically removes and returns all queued encoded chunks
// in capture order. It returns nil when nothing is queued. This is the
// only way to extract chunks; there is no peek.
func (r *Recorder) DrainChunks() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queue
	r.queue = nil
	return q
}

// Stop halts capture, releases the microphone and discards any chunks
// not yet drained. It is idempotent.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	r.recording = false
	stream := r.stream
	r.stream = nil
	r.queue = nil
	r.mu.Unlock()

	stream.Close()
	r.wg.Wait()
}

// Recording reports whether capture is currently active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Format returns the fixed output format of drained chunks.
func (r *Recorder) Format() pcm.Format {
	return r.target
}
