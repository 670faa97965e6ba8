package pattern

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/faultline/internal/config"
)

// State is a point-in-time snapshot of the machine.
type State struct {
	Current   Pattern
	StartedAt time.Time
	// Duration is how long the current pattern should last. Zero means
	// indefinite, which only the normal pattern is allowed to carry.
	Duration time.Duration
}

// Remaining returns how much of the current pattern is left at now, or
// zero for an indefinite pattern.
func (s State) Remaining(now time.Time) time.Duration {
	if s.Duration == 0 {
		return 0
	}
	left := s.Duration - now.Sub(s.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Machine owns the simulation state and decides, once per tick, whether
// the active pattern must change. The scheduler loop is the only caller
// of Update; the mutex exists so the control plane can read snapshots
// and force transitions while the loop is running.
type Machine struct {
	baseRate    float64
	probability float64
	calmPeriod  time.Duration
	durations   map[Pattern]time.Duration

	rng *rand.Rand

	mu    sync.Mutex
	state State

	// onTransition, when set, observes every pattern change.
	onTransition func(p Pattern, d time.Duration)
}

// Option configures a Machine.
type Option func(*Machine)

// WithRand injects a seeded random source for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(m *Machine) { m.rng = rng }
}

// WithTransitionHook registers an observer called on every transition.
func WithTransitionHook(fn func(p Pattern, d time.Duration)) Option {
	return func(m *Machine) { m.onTransition = fn }
}

// NewMachine creates a machine starting in the normal pattern at now.
func NewMachine(cfg config.Simulator, now time.Time, opts ...Option) *Machine {
	durations := DefaultDurations()
	for name, d := range cfg.IncidentDurations {
		durations[Pattern(name)] = time.Duration(d)
	}

	m := &Machine{
		baseRate:    cfg.BaseRate,
		probability: cfg.IncidentProbability,
		calmPeriod:  time.Duration(cfg.CalmPeriod),
		durations:   durations,
		state: State{
			Current:   Normal,
			StartedAt: now,
		},
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		m.rng = rand.New(rand.NewSource(seed))
	}

	return m
}

// Update advances the machine by one tick. Expiry of the active pattern
// is checked first; only a system that is (still, or again) normal may
// then spontaneously degrade into an incident.
func (m *Machine) Update(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Duration > 0 && now.Sub(m.state.StartedAt) > m.state.Duration {
		m.transition(Normal, 0, now)
	}

	if m.state.Current != Normal {
		return
	}
	if m.rng.Float64() < m.probability && now.Sub(m.state.StartedAt) > m.calmPeriod {
		incidents := Incidents()
		p := incidents[m.rng.Intn(len(incidents))]
		m.transition(p, m.durations[p], now)
	}
}

// TransitionTo unconditionally switches the machine to the given pattern.
// A zero duration is coerced to the pattern's configured duration for
// incidents; only normal may run indefinitely.
func (m *Machine) TransitionTo(p Pattern, d time.Duration, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.IsIncident() && d == 0 {
		d = m.durations[p]
	}
	if p == Normal {
		d = 0
	}
	m.transition(p, d, now)
}

// transition mutates state. Callers hold m.mu.
func (m *Machine) transition(p Pattern, d time.Duration, now time.Time) {
	m.state = State{
		Current:   p,
		StartedAt: now,
		Duration:  d,
	}

	if d > 0 {
		log.Printf("[pattern] switching to %s for %s", p, d)
	} else {
		log.Printf("[pattern] switching to %s", p)
	}
	if m.onTransition != nil {
		m.onTransition(p, d)
	}
}

// Current returns the active pattern.
func (m *Machine) Current() Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Current
}

// Snapshot returns a copy of the machine state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BaseRate returns the configured baseline request rate.
func (m *Machine) BaseRate() float64 {
	return m.baseRate
}

// NextInterval computes the delay before the next tick from the active
// pattern: spikes run at five times the base rate, outages at half, and
// everything else at the base rate with up to 300ms of jitter either way.
func (m *Machine) NextInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := 1.0 / m.baseRate

	var seconds float64
	switch m.state.Current {
	case Spike:
		seconds = base * 0.2
	case Outage:
		seconds = base * 2.0
	default:
		seconds = base + (m.rng.Float64()*0.6 - 0.3)
	}
	if seconds < 0 {
		seconds = 0
	}

	return time.Duration(seconds * float64(time.Second))
}
