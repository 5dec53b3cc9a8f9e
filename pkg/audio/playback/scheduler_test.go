package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/tomoai/tomo/pkg/audio/pcm"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingOutput struct {
	mu      sync.Mutex
	starts  int
	resumes int
	closes  int
	src     Source
}

func (o *countingOutput) Start(src Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
	o.src = src
	return nil
}

func (o *countingOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resumes++
	return nil
}

func (o *countingOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closes++
	return nil
}

// chunk returns PCM16 bytes lasting d at 24 kHz, all samples set to v.
func chunk(d time.Duration, v int16) []byte {
	n := pcm.L16Mono24K.SamplesInDuration(d)
	b := make([]byte, n*2)
	for i := int64(0); i < n; i++ {
		b[i*2] = byte(v)
		b[i*2+1] = byte(v >> 8)
	}
	return b
}

func TestScheduler_GaplessStarts(t *testing.T) {
	clk := newManualClock()
	s := NewScheduler(WithClock(clk))

	t0 := clk.Now()
	for i := 0; i < 3; i++ {
		if err := s.Feed(chunk(100*time.Millisecond, 1000)); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}

	if len(s.segs) != 3 {
		t.Fatalf("scheduled %d segments; want 3", len(s.segs))
	}
	for i, seg := range s.segs {
		want := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		if !seg.start.Equal(want) {
			t.Errorf("segment %d start = %v; want %v", i, seg.start, want)
		}
	}
	if want := t0.Add(300 * time.Millisecond); !s.cursor.Equal(want) {
		t.Errorf("cursor = %v; want %v", s.cursor, want)
	}
}

func TestScheduler_NeverSchedulesIntoThePast(t *testing.T) {
	clk := newManualClock()
	s := NewScheduler(WithClock(clk))

	if err := s.Feed(chunk(50*time.Millisecond, 1)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	// Let the queue drain, then feed again: the new chunk starts now,
	// not at the stale cursor... and never before now.
	clk.Advance(500 * time.Millisecond)
	if err := s.Feed(chunk(50*time.Millisecond, 2)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	last := s.segs[len(s.segs)-1]
	if last.start.Before(clk.Now()) {
		t.Errorf("segment scheduled into the past: start %v, now %v", last.start, clk.Now())
	}
	if !last.start.Equal(clk.Now()) {
		t.Errorf("drained queue should restart at now; start %v, now %v", last.start, clk.Now())
	}
}

func TestScheduler_StartsNonDecreasingNoOverlap(t *testing.T) {
	clk := newManualClock()
	s := NewScheduler(WithClock(clk))

	durations := []time.Duration{20, 100, 40, 10, 250, 60}
	for i, ms := range durations {
		if err := s.Feed(chunk(ms*time.Millisecond, int16(i))); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if i%2 == 1 {
			clk.Advance(35 * time.Millisecond)
		}
	}

	for i := 1; i < len(s.segs); i++ {
		prev, cur := s.segs[i-1], s.segs[i]
		if cur.start.Before(prev.start) {
			t.Errorf("start times decreased at segment %d", i)
		}
		prevEnd := prev.start.Add(pcm.L16Mono24K.SamplesDuration(int64(len(prev.samples))))
		if cur.start.Before(prevEnd) {
			t.Errorf("segment %d overlaps previous: start %v, previous end %v", i, cur.start, prevEnd)
		}
	}
}

func TestScheduler_Playing(t *testing.T) {
	clk := newManualClock()
	s := NewScheduler(WithClock(clk))

	if s.Playing() {
		t.Error("Playing before any Feed")
	}

	s.Feed(chunk(100*time.Millisecond, 1))
	if !s.Playing() {
		t.Error("not Playing right after Feed")
	}

	clk.Advance(99 * time.Millisecond)
	if !s.Playing() {
		t.Error("not Playing before the chunk ends")
	}

	clk.Advance(time.Millisecond)
	if s.Playing() {
		t.Error("still Playing after the chunk ended")
	}
}

func TestScheduler_StopCutsPlayback(t *testing.T) {
	clk := newManualClock()
	s := NewScheduler(WithClock(clk))

	s.Feed(chunk(500*time.Millisecond, 1))
	s.Stop()

	if s.Playing() {
		t.Error("Playing after Stop")
	}
	if len(s.segs) != 0 {
		t.Errorf("%d segments survive Stop; want 0", len(s.segs))
	}

	// Feeding after Stop restarts from now.
	clk.Advance(10 * time.Millisecond)
	s.Feed(chunk(50*time.Millisecond, 2))
	if !s.segs[0].start.Equal(clk.Now()) {
		t.Errorf("post-Stop segment start = %v; want %v", s.segs[0].start, clk.Now())
	}
}

func TestScheduler_OutputLifecycle(t *testing.T) {
	clk := newManualClock()
	out := &countingOutput{}
	s := NewScheduler(WithClock(clk), WithOutput(out))

	s.Feed(chunk(20*time.Millisecond, 1))
	s.Feed(chunk(20*time.Millisecond, 2))
	s.Feed(chunk(20*time.Millisecond, 3))

	if out.starts != 1 {
		t.Errorf("output started %d times; want 1 (lazy init)", out.starts)
	}
	if out.resumes != 3 {
		t.Errorf("output resumed %d times; want once per Feed (3)", out.resumes)
	}
	if out.src == nil {
		t.Error("output was not given a render source")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if out.closes != 1 {
		t.Errorf("output closed %d times; want 1", out.closes)
	}
}

func TestScheduler_RenderAudioAndSilence(t *testing.T) {
	clk := newManualClock()
	s := NewScheduler(WithClock(clk))

	s.Feed(chunk(20*time.Millisecond, 16384)) // 0.5 amplitude

	// First 20ms window: all audio.
	buf := make([]float32, pcm.L16Mono24K.SamplesInDuration(20*time.Millisecond))
	if n := s.Render(buf); n != len(buf) {
		t.Fatalf("Render returned %d; want %d", n, len(buf))
	}
	for i, v := range buf {
		if v != 0.5 {
			t.Fatalf("sample %d = %v; want 0.5", i, v)
		}
	}

	// Past the segment: silence, and the segment is trimmed.
	clk.Advance(20 * time.Millisecond)
	s.Render(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %v; want silence", i, v)
		}
	}
	if len(s.segs) != 0 {
		t.Errorf("%d segments after being fully played; want 0", len(s.segs))
	}
}

func TestScheduler_RenderFutureSegmentOffset(t *testing.T) {
	clk := newManualClock()
	s := NewScheduler(WithClock(clk))

	// Two 10ms chunks: the second starts 10ms into the window.
	s.Feed(chunk(10*time.Millisecond, 8192))
	s.Feed(chunk(10*time.Millisecond, 16384))

	buf := make([]float32, pcm.L16Mono24K.SamplesInDuration(20*time.Millisecond))
	s.Render(buf)

	half := len(buf) / 2
	if buf[0] != 0.25 {
		t.Errorf("first half starts with %v; want 0.25", buf[0])
	}
	if buf[half] != 0.5 {
		t.Errorf("second half starts with %v; want 0.5", buf[half])
	}
}
