package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/faultline/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeSink is a probe target whose ping result tests control.
type fakeSink struct {
	name string

	mu  sync.Mutex
	err error
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeSink) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// blockingSink never answers a ping; only the probe timeout ends it.
type blockingSink struct{}

func (blockingSink) Name() string { return "stuck" }

func (blockingSink) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func testHealthConfig() config.Health {
	return config.Health{
		Enabled:  true,
		Interval: config.Duration(time.Hour), // probes driven manually via CheckAll
		Timeout:  config.Duration(50 * time.Millisecond),
	}
}

func newTestChecker(sinks ...Pingable) (*Checker, *Metrics) {
	metrics := NewMetricsWith(prometheus.NewRegistry())
	return NewChecker(testHealthConfig(), sinks, metrics), metrics
}

func TestChecker_TracksStatusChanges(t *testing.T) {
	sink := &fakeSink{name: "influxdb"}
	c, metrics := newTestChecker(sink)
	c.Start(context.Background())
	defer c.Stop()

	if !c.IsHealthy("influxdb") {
		t.Fatal("sink not healthy at start")
	}

	sink.setErr(errors.New("connection refused"))
	c.CheckAll(context.Background())
	if c.IsHealthy("influxdb") {
		t.Error("sink still healthy after failed probe")
	}
	if v := testutil.ToFloat64(metrics.SinkHealthy.WithLabelValues("influxdb")); v != 0 {
		t.Errorf("health gauge = %f, want 0", v)
	}

	sink.setErr(nil)
	c.CheckAll(context.Background())
	if !c.IsHealthy("influxdb") {
		t.Error("sink not healthy after recovery")
	}
	if v := testutil.ToFloat64(metrics.SinkHealthy.WithLabelValues("influxdb")); v != 1 {
		t.Errorf("health gauge = %f, want 1", v)
	}
}

func TestChecker_HangingProbeTimesOut(t *testing.T) {
	c, _ := newTestChecker(blockingSink{})
	c.Start(context.Background())
	defer c.Stop()

	done := make(chan struct{})
	go func() {
		c.CheckAll(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not time out")
	}

	if c.IsHealthy("stuck") {
		t.Error("hanging sink reported healthy")
	}
}

func TestChecker_ProbesSinksIndependently(t *testing.T) {
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", err: errors.New("boom")}
	c, _ := newTestChecker(good, bad)
	c.Start(context.Background())
	defer c.Stop()

	c.CheckAll(context.Background())

	if !c.IsHealthy("good") {
		t.Error("healthy sink dragged down by failing one")
	}
	if c.IsHealthy("bad") {
		t.Error("failing sink reported healthy")
	}
}

func TestChecker_DisabledStartReturnsImmediately(t *testing.T) {
	metrics := NewMetricsWith(prometheus.NewRegistry())
	c := NewChecker(config.Health{Enabled: false}, []Pingable{&fakeSink{name: "x"}}, metrics)

	c.Start(context.Background())
	c.Stop() // must not hang on the never-started loop
}

func TestChecker_UnknownSinkIsUnhealthy(t *testing.T) {
	c, _ := newTestChecker()
	if c.IsHealthy("nonexistent") {
		t.Error("unknown sink reported healthy")
	}
}
