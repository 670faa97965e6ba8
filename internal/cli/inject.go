package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/faultline/internal/daemon"
	"github.com/faultline/internal/pattern"
	"github.com/faultline/internal/tui"
	"github.com/spf13/cobra"
)

var injectDuration time.Duration

var injectCmd = &cobra.Command{
	Use:   "inject <pattern>",
	Short: "Force an incident pattern on the running simulator",
	Long: `Force the running simulator into a named traffic pattern.
Without --duration the pattern's configured duration applies; injecting
"normal" clears any active incident.

Patterns: normal, spike, outage, slow_response, high_error_rate

Examples:
  faultline inject outage
  faultline inject spike --duration 2m
  faultline inject normal`,
	Args: cobra.ExactArgs(1),
	RunE: runInject,
}

func init() {
	injectCmd.Flags().DurationVarP(&injectDuration, "duration", "d", 0, "How long the pattern lasts (default: configured duration)")
	rootCmd.AddCommand(injectCmd)
}

func runInject(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(args[0])
	if !pattern.Pattern(name).Valid() {
		return fmt.Errorf("unknown pattern %q (one of: normal, spike, outage, slow_response, high_error_rate)", name)
	}

	data, _ := json.Marshal(daemon.InjectRequest{
		Pattern:  name,
		Duration: injectDuration,
	})

	resp, err := daemon.SendCommand(daemon.Command{Type: "inject", Data: data})
	if err != nil {
		fmt.Println()
		fmt.Println(tui.ErrorStyle.Render("  " + tui.CrossMark + " faultline is not running"))
		fmt.Println(tui.DimStyle.Render("  Start with: faultline run"))
		fmt.Println()
		return nil
	}

	if !resp.Success {
		fmt.Println()
		fmt.Println(tui.ErrorStyle.Render("  " + resp.Message))
		fmt.Println()
		return nil
	}

	fmt.Println()
	fmt.Printf("  %s %s injected\n", tui.SuccessStyle.Render(tui.CheckMark), tui.PatternBadge(name))
	if injectDuration > 0 {
		fmt.Println(tui.DimStyle.Render(fmt.Sprintf("    duration: %s", injectDuration)))
	} else if name != "normal" {
		fmt.Println(tui.DimStyle.Render("    duration: configured default"))
	}
	fmt.Println()

	return nil
}
