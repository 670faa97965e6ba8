package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/faultline/internal/generator"
)

// appendFile is a line-oriented append-only log file. Writes go straight
// to the file descriptor so every line is durable before Accept returns.
type appendFile struct {
	mu   sync.Mutex
	file *os.File
}

func openAppendFile(path string) (*appendFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &appendFile{file: f}, nil
}

func (a *appendFile) writeLine(line []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append log line: %w", err)
	}
	return nil
}

func (a *appendFile) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// TextFileSink appends one human-readable, pattern-annotated line per
// sample to a plain-text request log.
type TextFileSink struct {
	path string
	file *appendFile
}

// NewTextFileSink opens (or creates) the plain-text request log at path.
func NewTextFileSink(path string) (*TextFileSink, error) {
	f, err := openAppendFile(path)
	if err != nil {
		return nil, err
	}
	return &TextFileSink{path: path, file: f}, nil
}

func (s *TextFileSink) Name() string { return "text_log" }

func (s *TextFileSink) Accept(_ context.Context, sample generator.Sample) error {
	return s.file.writeLine([]byte(sample.LogLine()))
}

func (s *TextFileSink) Close() error { return s.file.close() }

// JSONFileSink appends one JSON object per sample to a newline-delimited
// JSON request log.
type JSONFileSink struct {
	path string
	file *appendFile
}

// NewJSONFileSink opens (or creates) the NDJSON request log at path.
func NewJSONFileSink(path string) (*JSONFileSink, error) {
	f, err := openAppendFile(path)
	if err != nil {
		return nil, err
	}
	return &JSONFileSink{path: path, file: f}, nil
}

func (s *JSONFileSink) Name() string { return "json_log" }

func (s *JSONFileSink) Accept(_ context.Context, sample generator.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}
	return s.file.writeLine(data)
}

func (s *JSONFileSink) Close() error { return s.file.close() }
