// Package sim contains the scheduler loop that drives the traffic
// simulation in real time: one state update, one sample, one dispatch
// and one pattern-dependent delay per tick.
package sim

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/faultline/internal/generator"
	"github.com/faultline/internal/health"
	"github.com/faultline/internal/pattern"
	"github.com/faultline/internal/sink"
)

// Status is a point-in-time view of the simulation, serialized over the
// control socket for the CLI.
type Status struct {
	Pattern      pattern.Pattern `json:"pattern"`
	PatternSince time.Time       `json:"pattern_since"`
	Remaining    time.Duration   `json:"remaining"`
	BaseRate     float64         `json:"base_rate"`
	Samples      int64           `json:"samples"`
	LatencyP50   int64           `json:"latency_p50_ms"`
	LatencyP95   int64           `json:"latency_p95_ms"`
	LatencyP99   int64           `json:"latency_p99_ms"`
	Sinks        []sink.Stats    `json:"sinks"`
}

// Simulator owns the pattern machine, the sample generator and the sink
// dispatcher, and is the only component that blocks between ticks. It is
// also the sole writer of simulation state: the control plane reaches
// the machine only through Inject.
type Simulator struct {
	machine *pattern.Machine
	gen     *generator.Generator
	disp    *sink.Dispatcher
	clock   Clock
	metrics *health.Metrics

	mu      sync.Mutex
	hist    *hdrhistogram.Histogram
	samples int64
}

// New assembles a simulator. A nil clock defaults to the system clock.
func New(machine *pattern.Machine, gen *generator.Generator, disp *sink.Dispatcher, clock Clock, metrics *health.Metrics) *Simulator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Simulator{
		machine: machine,
		gen:     gen,
		disp:    disp,
		clock:   clock,
		metrics: metrics,
		// Synthetic latencies span 50ms to 10s; leave headroom.
		hist: hdrhistogram.New(1, 60_000, 3),
	}
}

// Run drives the simulation until ctx is cancelled. Sinks are closed on
// every exit path; cancellation is honored both between ticks and during
// the end-of-tick sleep, and never leaves a partially dispatched sample.
func (s *Simulator) Run(ctx context.Context) error {
	defer s.disp.Close()

	s.disp.Start(ctx)
	log.Printf("[sim] started at %.2f req/s baseline", s.machine.BaseRate())

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sim] stopped")
			return nil
		default:
		}

		now := s.clock.Now()
		s.machine.Update(now)

		sample := s.gen.Generate(s.machine.Current(), now)
		s.disp.Dispatch(sample)
		s.record(sample)

		interval := s.machine.NextInterval()
		if s.metrics != nil {
			s.metrics.SetTickInterval(interval)
		}

		if err := s.clock.Sleep(ctx, interval); err != nil {
			log.Printf("[sim] stopped")
			return nil
		}
	}
}

// Inject forces an immediate transition, the explicit-command way into
// an incident. A zero duration uses the pattern's configured duration.
func (s *Simulator) Inject(p pattern.Pattern, d time.Duration) {
	s.machine.TransitionTo(p, d, s.clock.Now())
}

func (s *Simulator) record(sample generator.Sample) {
	if s.metrics != nil {
		s.metrics.RecordSample(sample.Pattern, sample.Method, sample.Status, sample.LatencyMS)
	}

	s.mu.Lock()
	s.samples++
	// RecordValue only fails outside the histogram's range, which the
	// latency tables cannot produce.
	s.hist.RecordValue(int64(sample.LatencyMS))
	s.mu.Unlock()
}

// Status snapshots the simulation for operator display.
func (s *Simulator) Status() Status {
	state := s.machine.Snapshot()
	now := s.clock.Now()

	s.mu.Lock()
	samples := s.samples
	p50 := s.hist.ValueAtQuantile(50)
	p95 := s.hist.ValueAtQuantile(95)
	p99 := s.hist.ValueAtQuantile(99)
	s.mu.Unlock()

	return Status{
		Pattern:      state.Current,
		PatternSince: state.StartedAt,
		Remaining:    state.Remaining(now),
		BaseRate:     s.machine.BaseRate(),
		Samples:      samples,
		LatencyP50:   p50,
		LatencyP95:   p95,
		LatencyP99:   p99,
		Sinks:        s.disp.Stats(),
	}
}
