// Package playback schedules agent speech chunks for gapless sequential
// playback against an output clock.
package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/tomoai/tomo/pkg/audio/pcm"
)

// Output is a playback device pulling rendered audio from a Source.
// Implementations are selected by the application at construction time.
type Output interface {
	// Start begins pulling from src. Called once, on the scheduler's
	// lazy init.
	Start(src Source) error

	// Resume wakes the device if the host suspended it. Called on init
	// and again on every fed chunk, since suspension can happen at any
	// point between chunks.
	Resume() error

	// Close releases the device.
	Close() error
}

// Source renders scheduled audio into a driver buffer.
type Source interface {
	// Render fills p with the audio scheduled at the current clock
	// time, zero-filling any gaps, and returns len(p).
	Render(p []float32) int
}

type segment struct {
	start   time.Time
	samples []float32
}

// Scheduler accepts 24 kHz mono PCM16 chunks and schedules them
// back-to-back: each chunk starts either immediately (queue drained) or
// exactly when the previous one ends. There is no explicit queue data
// structure for timing purposes; the clock cursor is the queue.
type Scheduler struct {
	format pcm.Format
	clock  Clock
	out    Output

	mu     sync.Mutex
	inited bool
	cursor time.Time
	segs   []segment
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock substitutes the output clock. Used by tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithOutput attaches a playback device. Without one the scheduler
// still tracks timing, which is all the orchestrator observes.
func WithOutput(out Output) Option {
	return func(s *Scheduler) { s.out = out }
}

// NewScheduler creates a Scheduler for the fixed 24 kHz agent speech
// format. The output device is not touched until the first Feed.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		format: pcm.L16Mono24K,
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed decodes a PCM16LE chunk and schedules it to start at the later
// of the cursor and the current clock time, then advances the cursor by
// the chunk's duration. The output device is lazily started on the
// first call and re-resumed on every call.
func (s *Scheduler) Feed(pcmBytes []byte) error {
	if len(pcmBytes) == 0 {
		return nil
	}
	samples := decodeS16LE(pcmBytes)

	s.mu.Lock()
	needStart := !s.inited
	if needStart {
		s.inited = true
		s.cursor = s.clock.Now()
	}

	now := s.clock.Now()
	start := s.cursor
	if start.Before(now) {
		start = now
	}
	s.segs = append(s.segs, segment{start: start, samples: samples})
	s.cursor = start.Add(s.format.SamplesDuration(int64(len(samples))))
	out := s.out
	s.mu.Unlock()

	if out == nil {
		return nil
	}
	if needStart {
		if err := out.Start(s); err != nil {
			return fmt.Errorf("playback: start output: %w", err)
		}
	}
	if err := out.Resume(); err != nil {
		return fmt.Errorf("playback: resume output: %w", err)
	}
	return nil
}

// Stop resets the scheduling baseline to the current clock time and
// discards scheduled-but-unrendered audio, cutting the utterance short
// on barge-in. Playing reports false immediately afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = s.clock.Now()
	s.segs = nil
}

// Playing reports whether the cursor is still ahead of the output
// clock, i.e. scheduled audio has not finished yet.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now().Before(s.cursor)
}

// Close stops scheduling and releases the output device if one is
// attached.
func (s *Scheduler) Close() error {
	s.Stop()
	if s.out != nil {
		return s.out.Close()
	}
	return nil
}

// Render fills p with the audio scheduled at the current clock time.
// Gaps between segments come out as silence. Fully played segments are
// trimmed. Render always fills the whole buffer and returns len(p).
func (s *Scheduler) Render(p []float32) int {
	for i := range p {
		p[i] = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	rate := s.format.SampleRate()
	windowEnd := now.Add(s.format.SamplesDuration(int64(len(p))))

	kept := s.segs[:0]
	for _, seg := range s.segs {
		segEnd := seg.start.Add(s.format.SamplesDuration(int64(len(seg.samples))))
		if !segEnd.After(now) {
			continue // fully played
		}
		if !seg.start.Before(windowEnd) {
			kept = append(kept, seg)
			continue // entirely in the future
		}

		src := 0
		dst := 0
		if seg.start.Before(now) {
			src = int(int64(rate) * int64(now.Sub(seg.start)) / int64(time.Second))
		} else {
			dst = int(int64(rate) * int64(seg.start.Sub(now)) / int64(time.Second))
		}
		if src < len(seg.samples) && dst < len(p) {
			copy(p[dst:], seg.samples[src:])
		}
		kept = append(kept, seg)
	}
	s.segs = kept
	return len(p)
}

// decodeS16LE converts little-endian PCM16 bytes to normalized float32
// samples (int16 / 32768).
func decodeS16LE(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = float32(v) / 32768.0
	}
	return out
}
