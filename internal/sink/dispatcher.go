package sink

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/faultline/internal/config"
	"github.com/faultline/internal/generator"
	"github.com/faultline/internal/health"
	"golang.org/x/time/rate"
)

// Stats summarizes dispatch outcomes for one sink.
type Stats struct {
	Sink      string `json:"sink"`
	Delivered int64  `json:"delivered"`
	Failed    int64  `json:"failed"`
	Dropped   int64  `json:"dropped"`
}

// worker pairs a sink with its own bounded queue and goroutine so one
// slow or failed sink never blocks or corrupts the others.
type worker struct {
	sink      Sink
	queue     chan generator.Sample
	delivered int64
	failed    int64
	dropped   int64
}

// Dispatcher fans each sample out to all configured sinks. Samples reach
// each sink in generation order; delivery itself is asynchronous.
type Dispatcher struct {
	workers []*worker
	limiter *rate.Limiter
	metrics *health.Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher for the given sinks. maxWriteRate
// caps total sink writes per second; 0 disables the cap.
func NewDispatcher(cfg config.Sinks, sinks []Sink, metrics *health.Metrics) *Dispatcher {
	limit := rate.Inf
	if cfg.MaxWriteRate > 0 {
		limit = rate.Limit(cfg.MaxWriteRate)
	}

	d := &Dispatcher{
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
	}

	for _, s := range sinks {
		d.workers = append(d.workers, &worker{
			sink:  s,
			queue: make(chan generator.Sample, cfg.QueueSize),
		})
	}

	return d
}

// Start launches one delivery goroutine per sink.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	for _, w := range d.workers {
		d.wg.Add(1)
		go d.run(ctx, w)
	}

	log.Printf("[sink] dispatching to %d sinks", len(d.workers))
}

func (d *Dispatcher) run(ctx context.Context, w *worker) {
	defer d.wg.Done()

	for sample := range w.queue {
		if err := d.limiter.Wait(ctx); err != nil {
			// Cancelled mid-shutdown. Queued samples are still
			// delivered and counted, just without the rate cap.
			d.deliver(context.Background(), w, sample)
			continue
		}
		d.deliver(ctx, w, sample)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, w *worker, sample generator.Sample) {
	err := w.sink.Accept(ctx, sample)
	if d.metrics != nil {
		d.metrics.RecordSinkWrite(w.sink.Name(), err)
	}

	if err != nil {
		atomic.AddInt64(&w.failed, 1)
		log.Printf("[sink] %s: %v", w.sink.Name(), err)
		return
	}
	atomic.AddInt64(&w.delivered, 1)
}

// Dispatch enqueues the sample for every sink without blocking. A full
// queue drops the sample for that sink only.
func (d *Dispatcher) Dispatch(sample generator.Sample) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	for _, w := range d.workers {
		select {
		case w.queue <- sample:
		default:
			atomic.AddInt64(&w.dropped, 1)
			if d.metrics != nil {
				d.metrics.RecordSinkDrop(w.sink.Name())
			}
		}
	}
	d.mu.Unlock()
}

// Stats returns per-sink delivery counters.
func (d *Dispatcher) Stats() []Stats {
	stats := make([]Stats, 0, len(d.workers))
	for _, w := range d.workers {
		stats = append(stats, Stats{
			Sink:      w.sink.Name(),
			Delivered: atomic.LoadInt64(&w.delivered),
			Failed:    atomic.LoadInt64(&w.failed),
			Dropped:   atomic.LoadInt64(&w.dropped),
		})
	}
	return stats
}

// Close drains the queues, stops the workers and closes every sink.
// Safe to call once; Dispatch calls after Close are ignored.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, w := range d.workers {
		close(w.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}

	var firstErr error
	for _, w := range d.workers {
		if err := w.sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
