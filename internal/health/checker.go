package health

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/faultline/internal/config"
)

// Pingable is a sink that can be probed for connectivity.
type Pingable interface {
	Name() string
	Ping(ctx context.Context) error
}

// Checker periodically probes sinks and tracks their health. A sink
// going unhealthy is reported, never fatal: samples keep flowing to the
// remaining sinks.
type Checker struct {
	cfg      config.Health
	sinks    []Pingable
	metrics  *Metrics
	statuses map[string]bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewChecker creates a checker for the given sinks.
func NewChecker(cfg config.Health, sinks []Pingable, metrics *Metrics) *Checker {
	return &Checker{
		cfg:      cfg,
		sinks:    sinks,
		metrics:  metrics,
		statuses: make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Start begins periodic probing.
func (c *Checker) Start(ctx context.Context) {
	if !c.cfg.Enabled || len(c.sinks) == 0 {
		close(c.done)
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)

	for _, s := range c.sinks {
		c.statuses[s.Name()] = true
		c.metrics.SetSinkHealth(s.Name(), true)
	}

	go c.run(ctx)
}

func (c *Checker) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(time.Duration(c.cfg.Interval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll probes every sink concurrently.
func (c *Checker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup

	for _, s := range c.sinks {
		wg.Add(1)
		go func(s Pingable) {
			defer wg.Done()
			c.check(ctx, s)
		}(s)
	}

	wg.Wait()
}

// check probes a single sink and records status changes.
func (c *Checker) check(ctx context.Context, s Pingable) {
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Timeout))
	defer cancel()

	err := s.Ping(probeCtx)
	healthy := err == nil

	c.mu.Lock()
	prev, seen := c.statuses[s.Name()]
	c.statuses[s.Name()] = healthy
	c.mu.Unlock()

	c.metrics.SetSinkHealth(s.Name(), healthy)

	if !seen || prev != healthy {
		if healthy {
			log.Printf("[health] sink %s is now healthy", s.Name())
		} else {
			log.Printf("[health] sink %s is now unhealthy: %v", s.Name(), err)
		}
	}
}

// IsHealthy returns whether a sink passed its last probe.
func (c *Checker) IsHealthy(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses[name]
}

// Stop stops the checker and waits for the probe loop to exit.
func (c *Checker) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
}
