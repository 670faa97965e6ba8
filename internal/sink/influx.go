package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/faultline/internal/config"
	"github.com/faultline/internal/generator"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxSink writes one point per sample to an InfluxDB 2.x bucket.
// Connection failures degrade gracefully: the error is reported per
// sample and the sink stays usable, so a recovered database picks the
// stream back up without a restart.
type InfluxSink struct {
	cfg      config.Influx
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink creates a sink for the configured InfluxDB instance. No
// connection is attempted here; the first write or health probe reports
// reachability.
func NewInfluxSink(cfg config.Influx) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		cfg:      cfg,
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (s *InfluxSink) Name() string { return "influxdb" }

// Accept writes the sample as a point: pattern, method, endpoint and
// status code as tags, latency and request id as fields, nanosecond
// timestamp.
func (s *InfluxSink) Accept(ctx context.Context, sample generator.Sample) error {
	point := influxdb2.NewPoint(
		s.cfg.Measurement,
		map[string]string{
			"method":          sample.Method,
			"api":             sample.Endpoint,
			"status_code":     strconv.Itoa(sample.Status),
			"traffic_pattern": string(sample.Pattern),
		},
		map[string]interface{}{
			"latency_ms": sample.LatencyMS,
			"request_id": sample.RequestID,
		},
		sample.Timestamp,
	)

	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influxdb write failed: %w", err)
	}
	return nil
}

// Ping probes the InfluxDB instance for connectivity.
func (s *InfluxSink) Ping(ctx context.Context) error {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influxdb ping failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("influxdb ping returned not ready")
	}
	return nil
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
