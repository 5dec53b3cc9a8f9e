package companion

import "time"

// MinEmotionDisplay is how long an emotion must stay visible before the
// next label/intensity change may show. Remote classification can flip
// several times across one utterance; without this floor the artwork
// flickers faster than perceptible.
const MinEmotionDisplay = 2000 * time.Millisecond

// Gate rate-limits visible emotion transitions. It is pure state over
// an explicit clock reading: Update and Fire take now as a parameter
// and report how long to wait, and the caller owns the single one-shot
// timer. At most one candidate is queued; later candidates within the
// same window replace it, so a burst collapses to its last member.
type Gate struct {
	interval time.Duration
	visible  Snapshot
	queued   *Snapshot
}

// NewGate creates a gate showing initial, with its display window
// starting at now.
func NewGate(initial Snapshot, now time.Time) *Gate {
	initial.ChangedAt = now
	return &Gate{interval: MinEmotionDisplay, visible: initial}
}

// Visible returns the currently visible snapshot.
func (g *Gate) Visible() Snapshot {
	return g.visible
}

// Update offers a candidate snapshot. The return values tell the
// caller what happened:
//   - changed true, wait 0: the candidate became visible immediately;
//     cancel any pending timer.
//   - changed false, wait > 0: the candidate was queued; rearm the
//     timer to call Fire after wait.
//   - changed false, wait 0: only valence/arousal were refreshed (same
//     label and intensity as the visible snapshot); no timer action.
func (g *Gate) Update(candidate Snapshot, now time.Time) (changed bool, wait time.Duration) {
	if candidate.SameLook(g.visible) {
		// Numeric nuance updates continuously without retriggering
		// the transition animation.
		g.visible.Valence = candidate.Valence
		g.visible.Arousal = candidate.Arousal
		return false, 0
	}

	elapsed := now.Sub(g.visible.ChangedAt)
	if elapsed >= g.interval {
		candidate.ChangedAt = now
		g.visible = candidate
		g.queued = nil
		return true, 0
	}

	c := candidate
	g.queued = &c
	return false, g.interval - elapsed
}

// Fire applies whatever candidate is queued when the timer expires.
// The applied candidate is the latest one offered, not necessarily the
// one that armed the timer.
func (g *Gate) Fire(now time.Time) (Snapshot, bool) {
	if g.queued == nil {
		return g.visible, false
	}
	next := *g.queued
	next.ChangedAt = now
	g.visible = next
	g.queued = nil
	return g.visible, true
}
