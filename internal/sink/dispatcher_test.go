package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/faultline/internal/config"
	"github.com/faultline/internal/generator"
	"github.com/faultline/internal/pattern"
)

// captureSink records every accepted sample in arrival order.
type captureSink struct {
	name string

	mu      sync.Mutex
	samples []generator.Sample
	closed  bool
}

func (c *captureSink) Name() string { return c.name }

func (c *captureSink) Accept(_ context.Context, sample generator.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, sample)
	return nil
}

func (c *captureSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureSink) received() []generator.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]generator.Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// failingSink rejects every sample.
type failingSink struct {
	mu       sync.Mutex
	attempts int
}

func (f *failingSink) Name() string { return "broken" }

func (f *failingSink) Accept(context.Context, generator.Sample) error {
	f.mu.Lock()
	f.attempts++
	f.mu.Unlock()
	return errors.New("disk on fire")
}

func (f *failingSink) Close() error { return nil }

func testSample(i int) generator.Sample {
	return generator.Sample{
		Timestamp: time.Unix(int64(i), 0).UTC(),
		RequestID: fmt.Sprintf("req-%04d", i),
		Method:    "GET",
		Endpoint:  "/health",
		Status:    200,
		LatencyMS: 100,
		Pattern:   pattern.Normal,
	}
}

func TestDispatcher_PreservesOrderPerSink(t *testing.T) {
	capture := &captureSink{name: "capture"}
	d := NewDispatcher(config.Sinks{QueueSize: 128}, []Sink{capture}, nil)
	d.Start(context.Background())

	const n = 100
	for i := 0; i < n; i++ {
		d.Dispatch(testSample(i))
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	got := capture.received()
	if len(got) != n {
		t.Fatalf("delivered %d samples, want %d", len(got), n)
	}
	for i, s := range got {
		if want := fmt.Sprintf("req-%04d", i); s.RequestID != want {
			t.Fatalf("sample %d is %s, want %s", i, s.RequestID, want)
		}
	}
}

func TestDispatcher_FailingSinkDoesNotAffectOthers(t *testing.T) {
	capture := &captureSink{name: "capture"}
	broken := &failingSink{}
	d := NewDispatcher(config.Sinks{QueueSize: 64}, []Sink{broken, capture}, nil)
	d.Start(context.Background())

	const n = 50
	for i := 0; i < n; i++ {
		d.Dispatch(testSample(i))
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if got := len(capture.received()); got != n {
		t.Errorf("healthy sink received %d samples, want %d", got, n)
	}

	var brokenStats, captureStats Stats
	for _, s := range d.Stats() {
		switch s.Sink {
		case "broken":
			brokenStats = s
		case "capture":
			captureStats = s
		}
	}
	if brokenStats.Failed != n {
		t.Errorf("broken sink failed = %d, want %d", brokenStats.Failed, n)
	}
	if brokenStats.Delivered != 0 {
		t.Errorf("broken sink delivered = %d, want 0", brokenStats.Delivered)
	}
	if captureStats.Delivered != n {
		t.Errorf("capture sink delivered = %d, want %d", captureStats.Delivered, n)
	}
}

func TestDispatcher_FullQueueDropsForThatSinkOnly(t *testing.T) {
	capture := &captureSink{name: "capture"}
	d := NewDispatcher(config.Sinks{QueueSize: 4}, []Sink{capture}, nil)
	// Not started: nothing drains the queue, so enqueues past the
	// capacity must drop.
	const n = 10
	for i := 0; i < n; i++ {
		d.Dispatch(testSample(i))
	}

	stats := d.Stats()[0]
	if stats.Dropped != n-4 {
		t.Errorf("dropped = %d, want %d", stats.Dropped, n-4)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestDispatcher_CloseIsIdempotentAndStopsDispatch(t *testing.T) {
	capture := &captureSink{name: "capture"}
	d := NewDispatcher(config.Sinks{QueueSize: 8}, []Sink{capture}, nil)
	d.Start(context.Background())

	d.Dispatch(testSample(0))
	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	// Dispatch after Close must be a no-op, not a panic on a closed
	// channel.
	d.Dispatch(testSample(1))

	if got := len(capture.received()); got != 1 {
		t.Errorf("received %d samples, want 1", got)
	}
	if !capture.closed {
		t.Error("sink was not closed")
	}

	for _, s := range d.Stats() {
		if s.Dropped != 0 {
			t.Errorf("post-close dispatch counted as drop: %+v", s)
		}
	}
}

func TestDispatcher_CancelledContextStillDrainsQueues(t *testing.T) {
	// The normal shutdown path cancels the run context before Close, so
	// the backlog must still reach the sinks and the counters.
	capture := &captureSink{name: "capture"}
	d := NewDispatcher(config.Sinks{QueueSize: 256, MaxWriteRate: 1000}, []Sink{capture}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	const n = 100
	for i := 0; i < n; i++ {
		d.Dispatch(testSample(i))
	}
	cancel()
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if got := len(capture.received()); got != n {
		t.Fatalf("delivered %d samples after cancel, want %d", got, n)
	}

	stats := d.Stats()[0]
	if stats.Delivered != n {
		t.Errorf("delivered counter = %d, want %d", stats.Delivered, n)
	}
	if stats.Failed != 0 || stats.Dropped != 0 {
		t.Errorf("failed = %d dropped = %d, want 0/0", stats.Failed, stats.Dropped)
	}
}

func TestDispatcher_WriteRateCapsThroughput(t *testing.T) {
	capture := &captureSink{name: "capture"}
	d := NewDispatcher(config.Sinks{QueueSize: 64, MaxWriteRate: 20}, []Sink{capture}, nil)
	d.Start(context.Background())

	start := time.Now()
	const n = 10
	for i := 0; i < n; i++ {
		d.Dispatch(testSample(i))
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	elapsed := time.Since(start)

	if got := len(capture.received()); got != n {
		t.Fatalf("delivered %d samples, want %d", got, n)
	}
	// 10 writes at 20/s need at least ~450ms after the initial token.
	if elapsed < 400*time.Millisecond {
		t.Errorf("10 writes at 20/s finished in %s, limiter not applied", elapsed)
	}
}
