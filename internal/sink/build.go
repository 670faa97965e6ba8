package sink

import (
	"path/filepath"

	"github.com/faultline/internal/config"
	"github.com/faultline/internal/health"
)

// Build constructs the configured sinks. It also returns the subset that
// supports health probing.
func Build(cfg config.Sinks) ([]Sink, []health.Pingable, error) {
	var sinks []Sink
	var pingable []health.Pingable

	if cfg.Console {
		sinks = append(sinks, NewConsoleSink())
	}

	if cfg.TextLog != "" {
		text, err := NewTextFileSink(filepath.Join(cfg.LogDir, cfg.TextLog))
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, text)
	}

	if cfg.JSONLog != "" {
		jsonl, err := NewJSONFileSink(filepath.Join(cfg.LogDir, cfg.JSONLog))
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, jsonl)
	}

	if cfg.Influx.Enabled {
		influx := NewInfluxSink(cfg.Influx)
		sinks = append(sinks, influx)
		pingable = append(pingable, influx)
	}

	return sinks, pingable, nil
}
