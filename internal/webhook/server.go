// Package webhook implements the alert ingestion endpoint: a small HTTP
// server that receives Grafana-style webhook payloads, persists them
// verbatim and prints an operator-readable summary. It consumes nothing
// from the simulator; it is an independent validation target for
// whatever alerting stack observes the emitted telemetry.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/faultline/internal/config"
	"github.com/faultline/internal/tui"
)

// Alert is one alert inside a webhook payload.
type Alert struct {
	Status      string            `json:"status"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	ValueString string            `json:"valueString,omitempty"`
}

// Payload is the body of a webhook POST.
type Payload struct {
	Alerts []Alert `json:"alerts"`
}

// Server receives alert webhooks on POST /alerts.
type Server struct {
	server  *http.Server
	logPath string

	mu      sync.Mutex
	logFile *os.File
	out     io.Writer
}

// NewServer creates an alert ingestion server for the given config.
func NewServer(cfg config.Webhook) *Server {
	s := &Server{
		logPath: cfg.LogFile,
		out:     os.Stdout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	s.server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}

	return s
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// openLog opens the append-only alert log.
func (s *Server) openLog() error {
	if dir := filepath.Dir(s.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create alert log directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open alert log: %w", err)
	}

	s.mu.Lock()
	s.logFile = f
	s.mu.Unlock()
	return nil
}

// Start opens the alert log and serves until the listener is closed.
func (s *Server) Start() error {
	if err := s.openLog(); err != nil {
		return err
	}

	log.Printf("[webhook] listening on %s", s.server.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down and closes the alert log.
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)

	s.mu.Lock()
	if s.logFile != nil {
		s.logFile.Close()
		s.logFile = nil
	}
	s.mu.Unlock()

	return err
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[webhook] malformed payload: %v", err)
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	s.persist(body)
	s.display(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "received"}`))
}

// persist appends the raw payload, timestamp-prefixed, to the alert log.
func (s *Server) persist(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logFile == nil {
		return
	}

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), body)
	if _, err := s.logFile.WriteString(line); err != nil {
		log.Printf("[webhook] failed to persist alert: %v", err)
	}
}

// display prints a severity-colored summary of each alert.
func (s *Server) display(payload Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, tui.Divider(60))
	fmt.Fprintf(s.out, "%s %s\n",
		tui.TitleStyle.Render(" ALERT "),
		tui.DimStyle.Render(time.Now().Format("2006-01-02 15:04:05")))

	for _, alert := range payload.Alerts {
		name := alert.Labels["alertname"]
		if name == "" {
			name = "Unknown Alert"
		}
		severity := alert.Labels["severity"]

		fmt.Fprintf(s.out, "%s %s: %s\n",
			severityStyle(severity).Render("●"),
			alert.Status, name)
		if severity != "" {
			fmt.Fprintf(s.out, "   Severity: %s\n", severity)
		}
		if desc := alert.Annotations["description"]; desc != "" {
			fmt.Fprintf(s.out, "   Description: %s\n", desc)
		}
		if alert.ValueString != "" {
			fmt.Fprintf(s.out, "   Value: %s\n", alert.ValueString)
		}
	}

	fmt.Fprintln(s.out, tui.Divider(60))
}

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return tui.ErrorStyle
	case "warning":
		return tui.WarningStyle
	case "info":
		return tui.SuccessStyle
	}
	return tui.DimStyle
}
