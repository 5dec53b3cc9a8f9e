package companion

import (
	"sort"
	"time"
)

// Intensity buckets an emotion's arousal for artwork selection.
type Intensity string

const (
	IntensityLow  Intensity = "low"
	IntensityMid  Intensity = "mid"
	IntensityHigh Intensity = "high"
)

// IntensityFromArousal buckets arousal on Russell's circumplex:
// below 0.35 is low, up to 0.65 mid, above that high.
func IntensityFromArousal(arousal float64) Intensity {
	switch {
	case arousal < 0.35:
		return IntensityLow
	case arousal <= 0.65:
		return IntensityMid
	default:
		return IntensityHigh
	}
}

// circumplex holds the canonical valence/arousal coordinates for each
// emotion label the server may send.
var circumplex = map[string][2]float64{
	"excited":      {0.8, 0.9},
	"happy":        {0.7, 0.5},
	"loving":       {0.8, 0.4},
	"neutral":      {0.0, 0.2},
	"thinking":     {0.1, 0.4},
	"surprised":    {0.3, 0.85},
	"jealous":      {-0.5, 0.75},
	"shy":          {0.3, 0.35},
	"anxious":      {-0.4, 0.8},
	"sad":          {-0.7, 0.2},
	"angry":        {-0.8, 0.9},
	"disappointed": {-0.6, 0.35},
	"frustrated":   {-0.5, 0.65},
	"proud":        {0.7, 0.65},
	"grateful":     {0.65, 0.25},
	"bored":        {-0.3, 0.1},
	"curious":      {0.3, 0.55},
	"embarrassed":  {-0.3, 0.55},
	"playful":      {0.55, 0.75},
	"lonely":       {-0.55, 0.15},
	"confused":     {-0.15, 0.45},
}

var intensities = []Intensity{IntensityLow, IntensityMid, IntensityHigh}

// Snapshot is the visible emotional state of the agent at one moment.
type Snapshot struct {
	Label     string
	Intensity Intensity
	Valence   float64
	Arousal   float64
	ChangedAt time.Time
}

// DefaultSnapshot is the state every session starts in.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Label:     "neutral",
		Intensity: IntensityLow,
		Valence:   0.0,
		Arousal:   0.2,
	}
}

// Key derives the artwork lookup key "<label>_<intensity>". Labels
// outside the circumplex table fall back to neutral so a novel server
// label can never produce a key with no artwork behind it.
func (s Snapshot) Key() string {
	label := s.Label
	if _, ok := circumplex[label]; !ok {
		label = "neutral"
	}
	intensity := s.Intensity
	switch intensity {
	case IntensityLow, IntensityMid, IntensityHigh:
	default:
		intensity = IntensityLow
	}
	return label + "_" + string(intensity)
}

// SameLook reports whether two snapshots select the same artwork, i.e.
// share label and intensity regardless of numeric nuance.
func (s Snapshot) SameLook(other Snapshot) bool {
	return s.Label == other.Label && s.Intensity == other.Intensity
}

// AllKeys enumerates every artwork key an emotion pack provides, in
// sorted order: each known label crossed with the three intensities.
func AllKeys() []string {
	labels := make([]string, 0, len(circumplex))
	for label := range circumplex {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	keys := make([]string, 0, len(labels)*len(intensities))
	for _, label := range labels {
		for _, intensity := range intensities {
			keys = append(keys, label+"_"+string(intensity))
		}
	}
	return keys
}
