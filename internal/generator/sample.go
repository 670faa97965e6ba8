package generator

import (
	"fmt"
	"time"

	"github.com/faultline/internal/pattern"
)

// Sample is one synthetic telemetry record. It is born fully formed,
// handed to the sinks, and never mutated.
type Sample struct {
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id"`
	Method    string          `json:"method"`
	Endpoint  string          `json:"endpoint"`
	Status    int             `json:"status"`
	LatencyMS int             `json:"latency_ms"`
	Pattern   pattern.Pattern `json:"pattern"`
}

// LogLine renders the sample in the plain-text request-log format.
func (s Sample) LogLine() string {
	return fmt.Sprintf("[%s] request_id=%s method=%s api=%s status=%d latency=%dms pattern=%s",
		s.Timestamp.Format(time.RFC3339Nano), s.RequestID, s.Method, s.Endpoint,
		s.Status, s.LatencyMS, s.Pattern)
}
