package playback

import "time"

// Clock is the scheduler's notion of the output timeline. The real
// implementation is the wall clock; tests substitute a manual one.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
