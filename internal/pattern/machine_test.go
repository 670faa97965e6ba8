package pattern

import (
	"math/rand"
	"testing"
	"time"

	"github.com/faultline/internal/config"
)

func testConfig() config.Simulator {
	return config.Simulator{
		BaseRate:            1.0,
		IncidentProbability: 0.05,
		CalmPeriod:          config.Duration(30 * time.Second),
	}
}

func newTestMachine(t *testing.T, cfg config.Simulator, seed int64) *Machine {
	t.Helper()
	return NewMachine(cfg, time.Unix(0, 0), WithRand(rand.New(rand.NewSource(seed))))
}

func TestMachine_StartsNormal(t *testing.T) {
	m := newTestMachine(t, testConfig(), 1)

	state := m.Snapshot()
	if state.Current != Normal {
		t.Errorf("expected normal, got %s", state.Current)
	}
	if state.Duration != 0 {
		t.Errorf("normal must be indefinite, got duration %s", state.Duration)
	}
}

func TestMachine_ExpiryLaw(t *testing.T) {
	tests := []struct {
		pattern  Pattern
		duration time.Duration
	}{
		{Spike, 30 * time.Second},
		{Outage, 20 * time.Second},
		{SlowResponse, 40 * time.Second},
		{HighErrorRate, 35 * time.Second},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			cfg := testConfig()
			cfg.IncidentProbability = 0 // exclude spontaneous transitions
			m := newTestMachine(t, cfg, 1)

			start := time.Unix(100, 0)
			m.TransitionTo(tt.pattern, tt.duration, start)

			// Exactly at the deadline the pattern must survive.
			m.Update(start.Add(tt.duration))
			if got := m.Current(); got != tt.pattern {
				t.Fatalf("pattern expired early: got %s", got)
			}

			// One tick past the deadline it must decay to normal.
			m.Update(start.Add(tt.duration + time.Second))
			state := m.Snapshot()
			if state.Current != Normal {
				t.Fatalf("expected normal after expiry, got %s", state.Current)
			}
			if state.Duration != 0 {
				t.Errorf("expected indefinite normal, got duration %s", state.Duration)
			}
		})
	}
}

func TestMachine_TransitionResetsStartTime(t *testing.T) {
	m := newTestMachine(t, testConfig(), 1)

	at := time.Unix(500, 0)
	m.TransitionTo(Spike, 30*time.Second, at)

	state := m.Snapshot()
	if !state.StartedAt.Equal(at) {
		t.Errorf("start time not reset: got %s, want %s", state.StartedAt, at)
	}
}

func TestMachine_TransitionToIncidentUsesConfiguredDuration(t *testing.T) {
	tests := []struct {
		pattern Pattern
		want    time.Duration
	}{
		{Spike, 30 * time.Second},
		{Outage, 20 * time.Second},
		{SlowResponse, 40 * time.Second},
		{HighErrorRate, 35 * time.Second},
	}

	for _, tt := range tests {
		m := newTestMachine(t, testConfig(), 1)
		m.TransitionTo(tt.pattern, 0, time.Unix(0, 0))

		if got := m.Snapshot().Duration; got != tt.want {
			t.Errorf("%s: duration = %s, want %s", tt.pattern, got, tt.want)
		}
	}
}

func TestMachine_DurationOverridesFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentDurations = map[string]config.Duration{
		"outage": config.Duration(90 * time.Second),
	}
	m := newTestMachine(t, cfg, 1)

	m.TransitionTo(Outage, 0, time.Unix(0, 0))
	if got := m.Snapshot().Duration; got != 90*time.Second {
		t.Errorf("duration = %s, want 90s", got)
	}

	// Patterns without an override keep their defaults.
	m.TransitionTo(Spike, 0, time.Unix(0, 0))
	if got := m.Snapshot().Duration; got != 30*time.Second {
		t.Errorf("duration = %s, want 30s", got)
	}
}

func TestMachine_NormalIsAlwaysIndefinite(t *testing.T) {
	m := newTestMachine(t, testConfig(), 1)

	m.TransitionTo(Normal, 45*time.Second, time.Unix(0, 0))
	if got := m.Snapshot().Duration; got != 0 {
		t.Errorf("normal accepted a duration: %s", got)
	}
}

func TestMachine_NoIncidentDuringCalmPeriod(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentProbability = 1.0 // would fire every tick if allowed
	m := newTestMachine(t, cfg, 1)

	start := time.Unix(0, 0)
	for elapsed := time.Second; elapsed <= 30*time.Second; elapsed += time.Second {
		m.Update(start.Add(elapsed))
		if got := m.Current(); got != Normal {
			t.Fatalf("incident fired %s after going normal, inside calm period", elapsed)
		}
	}

	// Past the calm period the guaranteed trigger must fire.
	m.Update(start.Add(31 * time.Second))
	if got := m.Current(); got == Normal {
		t.Fatal("expected an incident after the calm period with probability 1")
	}
}

func TestMachine_IncidentCarriesTableDuration(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentProbability = 1.0

	want := DefaultDurations()

	// Different seeds land on different incidents; every entry must
	// match its table duration.
	for seed := int64(0); seed < 20; seed++ {
		m := newTestMachine(t, cfg, seed)
		m.Update(time.Unix(0, 0).Add(31 * time.Second))

		state := m.Snapshot()
		if !state.Current.IsIncident() {
			t.Fatalf("seed %d: expected incident, got %s", seed, state.Current)
		}
		if state.Duration != want[state.Current] {
			t.Errorf("seed %d: %s duration = %s, want %s",
				seed, state.Current, state.Duration, want[state.Current])
		}
	}
}

func TestMachine_AllIncidentsReachable(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentProbability = 1.0

	seen := make(map[Pattern]bool)
	for seed := int64(0); seed < 100; seed++ {
		m := newTestMachine(t, cfg, seed)
		m.Update(time.Unix(0, 0).Add(31 * time.Second))
		seen[m.Current()] = true
	}

	for _, p := range Incidents() {
		if !seen[p] {
			t.Errorf("incident %s never selected across 100 seeds", p)
		}
	}
}

func TestMachine_NoSpontaneousTriggerOutsideNormal(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentProbability = 1.0
	m := newTestMachine(t, cfg, 1)

	start := time.Unix(0, 0)
	m.TransitionTo(Outage, 20*time.Second, start)

	// Ticks inside the outage must never chain into another incident.
	for elapsed := time.Second; elapsed <= 19*time.Second; elapsed += time.Second {
		m.Update(start.Add(elapsed))
		if got := m.Current(); got != Outage {
			t.Fatalf("pattern changed mid-outage at %s: %s", elapsed, got)
		}
	}
}

func TestMachine_ExpiryRestartsCalmPeriod(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentProbability = 1.0
	m := newTestMachine(t, cfg, 1)

	start := time.Unix(0, 0)
	m.TransitionTo(Outage, 20*time.Second, start)

	// The tick that expires the outage goes back to normal and must not
	// immediately degrade again: the calm clock restarted at expiry.
	m.Update(start.Add(25 * time.Second))
	if got := m.Current(); got != Normal {
		t.Fatalf("expected normal after expiry, got %s", got)
	}

	m.Update(start.Add(30 * time.Second))
	if got := m.Current(); got != Normal {
		t.Fatal("incident fired before the post-expiry calm period elapsed")
	}
}

func TestMachine_ZeroProbabilityNeverDegrades(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentProbability = 0
	m := newTestMachine(t, cfg, 1)

	start := time.Unix(0, 0)
	for i := 1; i <= 1000; i++ {
		m.Update(start.Add(time.Duration(i) * time.Minute))
		if got := m.Current(); got != Normal {
			t.Fatalf("incident fired with zero probability: %s", got)
		}
	}
}

func TestMachine_NextIntervalLaw(t *testing.T) {
	const baseRate = 2.0
	base := 1.0 / baseRate

	cfg := testConfig()
	cfg.BaseRate = baseRate
	cfg.IncidentProbability = 0

	t.Run("spike is exactly 5x rate", func(t *testing.T) {
		m := newTestMachine(t, cfg, 1)
		m.TransitionTo(Spike, 0, time.Unix(0, 0))

		want := time.Duration(base * 0.2 * float64(time.Second))
		for i := 0; i < 100; i++ {
			if got := m.NextInterval(); got != want {
				t.Fatalf("interval = %s, want %s", got, want)
			}
		}
	})

	t.Run("outage is exactly half rate", func(t *testing.T) {
		m := newTestMachine(t, cfg, 1)
		m.TransitionTo(Outage, 0, time.Unix(0, 0))

		want := time.Duration(base * 2.0 * float64(time.Second))
		for i := 0; i < 100; i++ {
			if got := m.NextInterval(); got != want {
				t.Fatalf("interval = %s, want %s", got, want)
			}
		}
	})

	t.Run("other patterns jitter around base", func(t *testing.T) {
		for _, p := range []Pattern{Normal, SlowResponse, HighErrorRate} {
			m := newTestMachine(t, cfg, 1)
			m.TransitionTo(p, 0, time.Unix(0, 0))

			min := time.Duration((base - 0.3) * float64(time.Second))
			max := time.Duration((base + 0.3) * float64(time.Second))
			for i := 0; i < 1000; i++ {
				got := m.NextInterval()
				if got < 0 {
					t.Fatalf("%s: negative interval %s", p, got)
				}
				if got < min || got > max {
					t.Fatalf("%s: interval %s outside [%s, %s]", p, got, min, max)
				}
			}
		}
	})

	t.Run("jitter clamps to zero for fast rates", func(t *testing.T) {
		fast := cfg
		fast.BaseRate = 10.0 // base interval 100ms, jitter can push below zero
		m := newTestMachine(t, fast, 1)

		for i := 0; i < 1000; i++ {
			if got := m.NextInterval(); got < 0 {
				t.Fatalf("negative interval %s", got)
			}
		}
	})
}

func TestState_Remaining(t *testing.T) {
	start := time.Unix(0, 0)
	state := State{Current: Outage, StartedAt: start, Duration: 20 * time.Second}

	if got := state.Remaining(start.Add(5 * time.Second)); got != 15*time.Second {
		t.Errorf("remaining = %s, want 15s", got)
	}
	if got := state.Remaining(start.Add(25 * time.Second)); got != 0 {
		t.Errorf("remaining past deadline = %s, want 0", got)
	}

	indefinite := State{Current: Normal, StartedAt: start}
	if got := indefinite.Remaining(start.Add(time.Hour)); got != 0 {
		t.Errorf("indefinite remaining = %s, want 0", got)
	}
}

func TestPattern_Validity(t *testing.T) {
	for _, p := range All() {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Pattern("meltdown").Valid() {
		t.Error("unknown pattern accepted")
	}
	if Normal.IsIncident() {
		t.Error("normal is not an incident")
	}
	for _, p := range Incidents() {
		if !p.IsIncident() {
			t.Errorf("%s should be an incident", p)
		}
	}
}

func TestMachine_ForcedOutageTimeline(t *testing.T) {
	cfg := testConfig()
	cfg.IncidentProbability = 0
	m := newTestMachine(t, cfg, 1)

	m.TransitionTo(Outage, 20*time.Second, time.Unix(5, 0))

	// 19s in, the outage is still active and ticks run at twice the
	// base interval, exactly.
	m.Update(time.Unix(24, 0))
	if got := m.Current(); got != Outage {
		t.Fatalf("at t=24s pattern = %s, want outage", got)
	}
	if got := m.NextInterval(); got != 2*time.Second {
		t.Errorf("outage interval = %s, want 2s", got)
	}

	// 21s in, the outage has expired and normal runs indefinitely.
	m.Update(time.Unix(26, 0))
	state := m.Snapshot()
	if state.Current != Normal {
		t.Fatalf("at t=26s pattern = %s, want normal", state.Current)
	}
	if state.Duration != 0 {
		t.Errorf("recovered normal carries duration %s, want 0", state.Duration)
	}
}

func TestMachine_TransitionHook(t *testing.T) {
	var got []Pattern
	m := NewMachine(testConfig(), time.Unix(0, 0),
		WithRand(rand.New(rand.NewSource(1))),
		WithTransitionHook(func(p Pattern, _ time.Duration) {
			got = append(got, p)
		}),
	)

	m.TransitionTo(Outage, 0, time.Unix(5, 0))
	m.Update(time.Unix(26, 0))

	want := []Pattern{Outage, Normal}
	if len(got) != len(want) {
		t.Fatalf("hook fired %d times, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, got[i], want[i])
		}
	}
}
