package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "faultline",
	Short: "Synthetic API-traffic simulator for alert-pipeline validation",
	Long: `
    ███████╗ █████╗ ██╗   ██╗██╗  ████████╗██╗     ██╗███╗   ██╗███████╗
    ██╔════╝██╔══██╗██║   ██║██║  ╚══██╔══╝██║     ██║████╗  ██║██╔════╝
    █████╗  ███████║██║   ██║██║     ██║   ██║     ██║██╔██╗ ██║█████╗
    ██╔══╝  ██╔══██║██║   ██║██║     ██║   ██║     ██║██║╚██╗██║██╔══╝
    ██║     ██║  ██║╚██████╔╝███████╗██║   ███████╗██║██║ ╚████║███████╗
    ╚═╝     ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝   ╚══════╝╚═╝╚═╝  ╚═══╝╚══════╝

faultline emits realistic HTTP-request telemetry and deliberately injects
incident patterns - spikes, outages, slow responses, error storms - so
dashboards and alert rules can be validated against controlled failures.

Get started:
  faultline run         Start the simulator (config file)
  faultline status      Check current pattern and sink health
  faultline inject      Force an incident pattern
  faultline webhook     Run the alert ingestion endpoint
  faultline logs        View simulator logs
  faultline stop        Stop the simulator`,
	Version: fmt.Sprintf("%s (built %s)", version, buildTime),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// SetVersion sets the version info
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}
