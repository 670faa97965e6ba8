// Package pattern implements the traffic-pattern state machine that
// drives the shape of generated telemetry: which named condition is
// active, how long it lasts, and when a calm system spontaneously
// degrades into an incident.
package pattern

import "time"

// Pattern is a named traffic condition. The set is closed: every sample
// the simulator emits is tagged with exactly one of these values.
type Pattern string

const (
	Normal        Pattern = "normal"
	Spike         Pattern = "spike"
	Outage        Pattern = "outage"
	SlowResponse  Pattern = "slow_response"
	HighErrorRate Pattern = "high_error_rate"
)

// All returns every pattern, normal first.
func All() []Pattern {
	return []Pattern{Normal, Spike, Outage, SlowResponse, HighErrorRate}
}

// Incidents returns every non-normal pattern.
func Incidents() []Pattern {
	return []Pattern{Spike, Outage, SlowResponse, HighErrorRate}
}

// Valid reports whether p is a member of the closed pattern set.
func (p Pattern) Valid() bool {
	switch p {
	case Normal, Spike, Outage, SlowResponse, HighErrorRate:
		return true
	}
	return false
}

// IsIncident reports whether p is a non-normal condition.
func (p Pattern) IsIncident() bool {
	return p.Valid() && p != Normal
}

// DefaultDurations is how long each spontaneous incident lasts unless
// overridden by configuration.
func DefaultDurations() map[Pattern]time.Duration {
	return map[Pattern]time.Duration{
		Spike:         30 * time.Second,
		Outage:        20 * time.Second,
		SlowResponse:  40 * time.Second,
		HighErrorRate: 35 * time.Second,
	}
}
