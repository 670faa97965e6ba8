package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/faultline/internal/config"
	"github.com/faultline/internal/daemon"
	"github.com/faultline/internal/tui"
	"github.com/spf13/cobra"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the traffic simulator",
	Long: `Start the traffic simulator using a YAML configuration file.
Generation begins immediately and continues until interrupted.

Example:
  faultline run --config faultline.yaml`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "faultline.yaml", "Path to configuration file")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if daemon.IsRunning() {
		fmt.Println()
		fmt.Println(tui.WarningStyle.Render("  faultline is already running"))
		fmt.Println()
		return nil
	}

	var cfg *config.Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		cfg = config.DefaultConfig()
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Daemon internals log to the runtime log file so `faultline logs`
	// works; the console stays reserved for the sample stream.
	os.MkdirAll(daemon.RuntimeDir(), 0755)
	if logFile, err := os.OpenFile(daemon.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	fmt.Printf("~ faultline starting (config: %s)\n", configPath)
	fmt.Printf("  Base rate: %.2f req/s\n", cfg.Simulator.BaseRate)
	fmt.Printf("  Incident probability: %.0f%% per tick after %s calm\n",
		cfg.Simulator.IncidentProbability*100, cfg.Simulator.CalmPeriod)
	fmt.Println()

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	fmt.Println()
	fmt.Println(tui.WarningStyle.Render("  Shutting down..."))
	d.Stop()

	return nil
}
