package cli

import "testing"

func TestLogSeverity(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"[sim] started at 1.00 req/s baseline", "success"},
		{"[daemon] started", "success"},
		{"[health] sink influxdb is now healthy", "success"},
		{"[health] sink influxdb is now unhealthy: connection refused", "error"},
		{"[sink] text_log: failed to append log line: disk full", "error"},
		{"[daemon] metrics server error: listen tcp :9090: address in use", "error"},
		{"[pattern] switching to outage for 20s", "warning"},
		{"[pattern] switching to normal", "warning"},
		{"[sim] stopped", ""},
		{"[sink] dispatching to 3 sinks", ""},
		// Sample-like text must stay neutral even when it contains
		// words like "health" or "error" in paths and pattern names.
		{"request_id=abc method=GET api=/health status=200 latency=120ms pattern=normal", ""},
		{"request_id=abc method=GET api=/login status=500 latency=90ms pattern=high_error_rate", ""},
	}

	for _, tt := range tests {
		if got := logSeverity(tt.line); got != tt.want {
			t.Errorf("logSeverity(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
