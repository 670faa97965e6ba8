// Package sink delivers telemetry samples to their destinations: plain
// and JSON request logs, a time-series store, and the console. Sinks sit
// behind a narrow interface so the scheduler loop treats every
// destination uniformly and a failure in one never reaches the others.
package sink

import (
	"context"

	"github.com/faultline/internal/generator"
)

// Sink is a destination for telemetry samples.
type Sink interface {
	// Name identifies the sink in logs, metrics and status output.
	Name() string

	// Accept records one sample. Errors are reported to the caller and
	// must leave the sink usable for subsequent samples.
	Accept(ctx context.Context, s generator.Sample) error

	// Close releases the sink's resources.
	Close() error
}
