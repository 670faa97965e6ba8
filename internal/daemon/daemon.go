// Package daemon runs the simulator as a background service with a
// unix-socket control plane for the CLI: status queries, incident
// injection and shutdown.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/faultline/internal/config"
	"github.com/faultline/internal/generator"
	"github.com/faultline/internal/health"
	"github.com/faultline/internal/pattern"
	"github.com/faultline/internal/sim"
	"github.com/faultline/internal/sink"
)

const (
	SocketName = "faultline.sock"
	PidFile    = "faultline.pid"
	LogFile    = "faultline.log"
)

// Status is the daemon's response to a status command.
type Status struct {
	Running   bool       `json:"running"`
	StartTime time.Time  `json:"start_time"`
	Uptime    string     `json:"uptime"`
	Sim       sim.Status `json:"sim"`
}

// InjectRequest asks the daemon to force a pattern transition.
type InjectRequest struct {
	Pattern  string        `json:"pattern"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Command is a request sent over the control socket.
type Command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the daemon's reply to a command.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Daemon wires the simulator, its sinks and the observability servers
// together and owns their lifetimes.
type Daemon struct {
	cfg           *config.Config
	simulator     *sim.Simulator
	dispatcher    *sink.Dispatcher
	checker       *health.Checker
	metrics       *health.Metrics
	metricsServer *health.Server

	startTime  time.Time
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	listener   net.Listener
	socketPath string
	simDone    chan struct{}
}

// RuntimeDir returns the directory holding the socket, pid and log files.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "faultline")
	}
	return filepath.Join(os.TempDir(), "faultline")
}

// SocketPath returns the full path to the control socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), SocketName)
}

// PidPath returns the full path to the pid file.
func PidPath() string {
	return filepath.Join(RuntimeDir(), PidFile)
}

// LogPath returns the full path to the daemon log file.
func LogPath() string {
	return filepath.Join(RuntimeDir(), LogFile)
}

// New creates a daemon from configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if err := os.MkdirAll(RuntimeDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		socketPath: SocketPath(),
		simDone:    make(chan struct{}),
	}, nil
}

// Start assembles the components, opens the control socket and begins
// generating traffic.
func (d *Daemon) Start() error {
	if err := os.WriteFile(PidPath(), []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}

	os.Remove(d.socketPath)

	var err error
	d.listener, err = net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}

	sinks, pingable, err := sink.Build(d.cfg.Sinks)
	if err != nil {
		d.listener.Close()
		return err
	}

	d.metrics = health.NewMetrics()
	d.dispatcher = sink.NewDispatcher(d.cfg.Sinks, sinks, d.metrics)
	d.checker = health.NewChecker(d.cfg.Health, pingable, d.metrics)

	seed := d.cfg.Simulator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	clock := sim.SystemClock{}
	machine := pattern.NewMachine(d.cfg.Simulator, clock.Now(),
		pattern.WithRand(rng),
		pattern.WithTransitionHook(func(p pattern.Pattern, _ time.Duration) {
			d.metrics.RecordTransition(p)
		}),
	)
	d.metrics.SetCurrentPattern(pattern.Normal)

	d.simulator = sim.New(machine, generator.New(rng), d.dispatcher, clock, d.metrics)

	if d.cfg.Metrics.Enabled {
		d.metricsServer = health.NewServer(d.cfg.Metrics)
		go func() {
			if err := d.metricsServer.Start(); err != nil {
				log.Printf("[daemon] metrics server error: %v", err)
			}
		}()
	}

	d.checker.Start(d.ctx)

	d.startTime = time.Now()
	go d.acceptConnections()
	go func() {
		defer close(d.simDone)
		d.simulator.Run(d.ctx)
	}()

	log.Printf("[daemon] started")
	return nil
}

// Status returns the daemon's current status.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return Status{
		Running:   true,
		StartTime: d.startTime,
		Uptime:    time.Since(d.startTime).Round(time.Second).String(),
		Sim:       d.simulator.Status(),
	}
}

// Inject forces a pattern transition from an operator command.
func (d *Daemon) Inject(req InjectRequest) error {
	p := pattern.Pattern(req.Pattern)
	if !p.Valid() {
		return fmt.Errorf("unknown pattern %q", req.Pattern)
	}

	d.simulator.Inject(p, req.Duration)
	return nil
}

// Stop shuts everything down: the loop first, then the observability
// servers, then the socket. The dispatcher closes the sinks when the
// simulator's Run returns.
func (d *Daemon) Stop() {
	log.Printf("[daemon] stopping...")

	d.cancel()
	<-d.simDone

	if d.checker != nil {
		d.checker.Stop()
	}
	if d.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.metricsServer.Stop(ctx)
	}
	if d.listener != nil {
		d.listener.Close()
	}

	os.Remove(d.socketPath)
	os.Remove(PidPath())

	log.Printf("[daemon] stopped")
}

func (d *Daemon) acceptConnections() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.ctx.Done():
				return
			default:
				log.Printf("[daemon] accept error: %v", err)
				continue
			}
		}
		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(conn net.Conn) {
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd Command
	if err := decoder.Decode(&cmd); err != nil {
		encoder.Encode(Response{Success: false, Message: err.Error()})
		return
	}

	var resp Response

	switch cmd.Type {
	case "status":
		resp = Response{Success: true, Data: d.Status()}

	case "inject":
		var req InjectRequest
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			resp = Response{Success: false, Message: "invalid inject request: " + err.Error()}
			break
		}
		if err := d.Inject(req); err != nil {
			resp = Response{Success: false, Message: err.Error()}
			break
		}
		resp = Response{Success: true, Message: "pattern injected"}

	case "stop":
		resp = Response{Success: true, Message: "stopping daemon..."}
		encoder.Encode(resp)
		go func() {
			time.Sleep(100 * time.Millisecond)
			d.Stop()
			os.Exit(0)
		}()
		return

	default:
		resp = Response{Success: false, Message: "unknown command: " + cmd.Type}
	}

	encoder.Encode(resp)
}

// IsRunning checks whether a daemon is already listening on the socket.
func IsRunning() bool {
	conn, err := net.Dial("unix", SocketPath())
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// SendCommand sends one command to the running daemon and returns its
// response.
func SendCommand(cmd Command) (*Response, error) {
	conn, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, fmt.Errorf("daemon not running: %w", err)
	}
	defer conn.Close()

	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	if err := encoder.Encode(cmd); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}

	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &resp, nil
}
