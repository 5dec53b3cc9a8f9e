package companion

import (
	"testing"
	"time"
)

func TestGate_BurstCollapsesToLatest(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(DefaultSnapshot(), t0)

	happy := Snapshot{Label: "happy", Intensity: IntensityMid, Valence: 0.7, Arousal: 0.5}
	sad := Snapshot{Label: "sad", Intensity: IntensityHigh, Valence: -0.7, Arousal: 0.8}

	changed, wait := g.Update(happy, t0.Add(500*time.Millisecond))
	if changed {
		t.Error("happy applied immediately inside the display window")
	}
	if wait != 1500*time.Millisecond {
		t.Errorf("wait = %v; want 1500ms", wait)
	}
	if !g.Visible().SameLook(DefaultSnapshot()) {
		t.Errorf("visible = %v; want neutral/low", g.Visible())
	}

	changed, wait = g.Update(sad, t0.Add(700*time.Millisecond))
	if changed {
		t.Error("sad applied immediately inside the display window")
	}
	if wait != 1300*time.Millisecond {
		t.Errorf("wait = %v; want 1300ms", wait)
	}
	if !g.Visible().SameLook(DefaultSnapshot()) {
		t.Errorf("visible = %v; want neutral/low before the window closes", g.Visible())
	}

	// The timer fires at t0+2000ms; the latest candidate wins.
	snap, applied := g.Fire(t0.Add(2000 * time.Millisecond))
	if !applied {
		t.Fatal("Fire applied nothing")
	}
	if !snap.SameLook(sad) {
		t.Errorf("visible after fire = %s/%s; want sad/high", snap.Label, snap.Intensity)
	}
	if !snap.ChangedAt.Equal(t0.Add(2000 * time.Millisecond)) {
		t.Errorf("ChangedAt = %v; want fire time", snap.ChangedAt)
	}
}

func TestGate_AppliesImmediatelyAfterInterval(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(DefaultSnapshot(), t0)

	happy := Snapshot{Label: "happy", Intensity: IntensityMid}
	changed, wait := g.Update(happy, t0.Add(2500*time.Millisecond))
	if !changed || wait != 0 {
		t.Fatalf("changed=%v wait=%v; want immediate apply", changed, wait)
	}
	if !g.Visible().SameLook(happy) {
		t.Errorf("visible = %v; want happy/mid", g.Visible())
	}
}

func TestGate_NumericRefreshKeepsWindow(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(DefaultSnapshot(), t0)

	nudge := Snapshot{Label: "neutral", Intensity: IntensityLow, Valence: 0.1, Arousal: 0.3}
	changed, wait := g.Update(nudge, t0.Add(300*time.Millisecond))
	if changed || wait != 0 {
		t.Fatalf("changed=%v wait=%v; want in-place refresh", changed, wait)
	}
	v := g.Visible()
	if v.Valence != 0.1 || v.Arousal != 0.3 {
		t.Errorf("valence/arousal = %v/%v; want 0.1/0.3", v.Valence, v.Arousal)
	}
	if !v.ChangedAt.Equal(t0) {
		t.Error("numeric refresh must not reset the display window")
	}

	// The window still ends at t0+2000ms for a real transition.
	happy := Snapshot{Label: "happy", Intensity: IntensityMid}
	if changed, _ := g.Update(happy, t0.Add(2000*time.Millisecond)); !changed {
		t.Error("transition at the window boundary should apply immediately")
	}
}

func TestGate_FireWithNothingQueued(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(DefaultSnapshot(), t0)
	if _, applied := g.Fire(t0.Add(3 * time.Second)); applied {
		t.Error("Fire with an empty queue applied something")
	}
}

func TestGate_ImmediateApplyClearsQueue(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(DefaultSnapshot(), t0)

	g.Update(Snapshot{Label: "happy", Intensity: IntensityMid}, t0.Add(time.Second))
	g.Update(Snapshot{Label: "sad", Intensity: IntensityHigh}, t0.Add(2500*time.Millisecond))

	if _, applied := g.Fire(t0.Add(3 * time.Second)); applied {
		t.Error("stale queued candidate survived an immediate apply")
	}
	if !g.Visible().SameLook(Snapshot{Label: "sad", Intensity: IntensityHigh}) {
		t.Errorf("visible = %v; want sad/high", g.Visible())
	}
}
