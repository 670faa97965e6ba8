package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML as either a Go
// duration string ("30s", "1m30s") or an integer nanosecond count.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (interface{}, error) { return d.String(), nil }

// UnmarshalYAML accepts both representations.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!str":
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		*d = Duration(parsed)
		return nil
	case "!!int":
		n, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration: unexpected %s value", value.Tag)
}

// Config is the root configuration structure.
type Config struct {
	Simulator Simulator `yaml:"simulator"`
	Sinks     Sinks     `yaml:"sinks"`
	Health    Health    `yaml:"health"`
	Metrics   Metrics   `yaml:"metrics"`
	Webhook   Webhook   `yaml:"webhook"`
}

// Simulator configures the traffic-pattern engine.
type Simulator struct {
	// BaseRate is the baseline request rate in requests per second.
	BaseRate float64 `yaml:"base_rate"`

	// IncidentProbability is the chance, evaluated once per tick, that a
	// calm system degrades into an incident. It is per tick, not per
	// wall-clock second, so the effective incident frequency scales with
	// the configured request rate.
	IncidentProbability float64 `yaml:"incident_probability"`

	// CalmPeriod is the minimum time the system must have been normal
	// before a spontaneous incident may start.
	CalmPeriod Duration `yaml:"calm_period"`

	// IncidentDurations overrides how long each incident pattern lasts.
	// Keys are pattern names (spike, outage, slow_response, high_error_rate).
	IncidentDurations map[string]Duration `yaml:"incident_durations,omitempty"`

	// Seed seeds the random source. 0 means seed from the current time.
	Seed int64 `yaml:"seed,omitempty"`
}

// Sinks configures the sample destinations.
type Sinks struct {
	Console bool   `yaml:"console"`
	LogDir  string `yaml:"log_dir"`
	TextLog string `yaml:"text_log"`
	JSONLog string `yaml:"json_log"`

	// QueueSize is the per-sink dispatch queue depth. A full queue drops
	// samples for that sink only.
	QueueSize int `yaml:"queue_size"`

	// MaxWriteRate caps sink writes per second. 0 disables the cap.
	MaxWriteRate float64 `yaml:"max_write_rate"`

	Influx Influx `yaml:"influx"`
}

// Influx configures the time-series sink.
type Influx struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// Health configures periodic sink health probing.
type Health struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	Timeout  Duration `yaml:"timeout"`
}

// Metrics configures the Prometheus metrics server.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// Webhook configures the alert ingestion endpoint.
type Webhook struct {
	Address string `yaml:"address"`
	LogFile string `yaml:"log_file"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Simulator: Simulator{
			BaseRate:            1.0,
			IncidentProbability: 0.05,
			CalmPeriod:          Duration(30 * time.Second),
		},
		Sinks: Sinks{
			Console:      true,
			LogDir:       "logs",
			TextLog:      "api_requests.log",
			JSONLog:      "api_requests.jsonl",
			QueueSize:    256,
			MaxWriteRate: 0,
			Influx: Influx{
				Enabled:     false,
				URL:         "http://localhost:8086",
				Org:         "my-org",
				Bucket:      "my-bucket",
				Measurement: "api_logs",
			},
		},
		Health: Health{
			Enabled:  true,
			Interval: Duration(10 * time.Second),
			Timeout:  Duration(5 * time.Second),
		},
		Metrics: Metrics{
			Enabled: true,
			Address: ":9090",
			Path:    "/metrics",
		},
		Webhook: Webhook{
			Address: "localhost:8080",
			LogFile: "logs/alerts.log",
		},
	}
}
