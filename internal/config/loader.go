package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	if cfg.Simulator.BaseRate <= 0 {
		return fmt.Errorf("simulator.base_rate must be positive")
	}
	if cfg.Simulator.IncidentProbability < 0 || cfg.Simulator.IncidentProbability > 1 {
		return fmt.Errorf("simulator.incident_probability must be between 0 and 1")
	}
	if cfg.Simulator.CalmPeriod < 0 {
		return fmt.Errorf("simulator.calm_period must not be negative")
	}

	for name, d := range cfg.Simulator.IncidentDurations {
		if !validIncidentName(name) {
			return fmt.Errorf("simulator.incident_durations: unknown pattern %q", name)
		}
		if d <= 0 {
			return fmt.Errorf("simulator.incident_durations[%s] must be positive", name)
		}
	}

	if cfg.Sinks.QueueSize <= 0 {
		cfg.Sinks.QueueSize = 256
	}
	if cfg.Sinks.MaxWriteRate < 0 {
		return fmt.Errorf("sinks.max_write_rate must not be negative")
	}

	if cfg.Sinks.Influx.Enabled {
		if cfg.Sinks.Influx.URL == "" {
			return fmt.Errorf("sinks.influx.url is required")
		}
		if cfg.Sinks.Influx.Org == "" || cfg.Sinks.Influx.Bucket == "" {
			return fmt.Errorf("sinks.influx.org and sinks.influx.bucket are required")
		}
		if cfg.Sinks.Influx.Measurement == "" {
			cfg.Sinks.Influx.Measurement = "api_logs"
		}
	}

	if cfg.Health.Enabled {
		if cfg.Health.Interval <= 0 {
			return fmt.Errorf("health.interval must be positive")
		}
		if cfg.Health.Timeout <= 0 {
			return fmt.Errorf("health.timeout must be positive")
		}
	}

	if cfg.Webhook.Address == "" {
		return fmt.Errorf("webhook.address is required")
	}

	return nil
}

// validIncidentName reports whether name is an incident pattern that can
// carry a configured duration. The normal pattern is excluded: it is the
// only pattern allowed to run indefinitely.
func validIncidentName(name string) bool {
	switch name {
	case "spike", "outage", "slow_response", "high_error_rate":
		return true
	}
	return false
}
