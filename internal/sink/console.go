package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/faultline/internal/generator"
	"github.com/faultline/internal/tui"
)

// ConsoleSink prints one line per sample with a colored pattern badge so
// an operator watching the terminal can see incidents as they happen.
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a console sink writing to stdout.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stdout}
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Accept(_ context.Context, sample generator.Sample) error {
	_, err := fmt.Fprintf(s.out, "%s %s\n",
		tui.PatternBadge(string(sample.Pattern)), sample.LogLine())
	return err
}

func (s *ConsoleSink) Close() error { return nil }
