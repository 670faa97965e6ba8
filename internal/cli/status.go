package cli

import (
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/faultline/internal/daemon"
	"github.com/faultline/internal/tui"
	"github.com/spf13/cobra"
)

var (
	statusJSON  bool
	statusWatch bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show simulator status",
	Long: `Display the current pattern, sample counters and sink health.

Examples:
  faultline status          Show current status
  faultline status -w       Live dashboard (refreshes every second)
  faultline status --json   Output as JSON`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Live dashboard")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusWatch {
		return watchStatus()
	}
	return showStatus()
}

func fetchStatus() (daemon.Status, error) {
	var status daemon.Status

	resp, err := daemon.SendCommand(daemon.Command{Type: "status"})
	if err != nil {
		return status, err
	}

	data, err := json.Marshal(resp.Data)
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return status, err
	}

	return status, nil
}

func showStatus() error {
	status, err := fetchStatus()
	if err != nil {
		fmt.Println()
		fmt.Println(tui.ErrorStyle.Render("  " + tui.CrossMark + " faultline is not running"))
		fmt.Println()
		fmt.Println(tui.DimStyle.Render("  Start with: faultline run"))
		fmt.Println()
		return nil
	}

	if statusJSON {
		output, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printStatus(status)
	return nil
}

func watchStatus() error {
	dashboard := tui.NewDashboard(func() (tui.DashboardData, error) {
		status, err := fetchStatus()
		if err != nil {
			return tui.DashboardData{}, err
		}
		return toDashboardData(status), nil
	})

	_, err := tea.NewProgram(dashboard).Run()
	return err
}

func toDashboardData(status daemon.Status) tui.DashboardData {
	data := tui.DashboardData{
		Pattern:   string(status.Sim.Pattern),
		Since:     time.Since(status.Sim.PatternSince),
		Remaining: status.Sim.Remaining,
		BaseRate:  status.Sim.BaseRate,
		Samples:   status.Sim.Samples,
		P50:       status.Sim.LatencyP50,
		P95:       status.Sim.LatencyP95,
		P99:       status.Sim.LatencyP99,
	}
	if status.Sim.Remaining > 0 {
		data.Duration = time.Since(status.Sim.PatternSince) + status.Sim.Remaining
	}
	for _, s := range status.Sim.Sinks {
		data.Sinks = append(data.Sinks, tui.SinkRow{
			Name:      s.Sink,
			Delivered: s.Delivered,
			Failed:    s.Failed,
			Dropped:   s.Dropped,
		})
	}
	return data
}

func printStatus(status daemon.Status) {
	fmt.Println()
	fmt.Println("  " + tui.TitleStyle.Render(" faultline status "))
	fmt.Println()

	fmt.Printf("  %s %s\n", tui.PatternBadge(string(status.Sim.Pattern)),
		tui.DimStyle.Render("since "+status.Sim.PatternSince.Format("15:04:05")))
	if status.Sim.Remaining > 0 {
		fmt.Printf("  %s\n", tui.LabelStyle.Render(
			fmt.Sprintf("reverts to normal in %s", status.Sim.Remaining.Round(time.Second))))
	}
	fmt.Println()

	fmt.Println("  " + tui.SubtitleStyle.Render("Traffic"))
	fmt.Printf("    Base rate: %s\n", tui.ValueStyle.Render(fmt.Sprintf("%.2f req/s", status.Sim.BaseRate)))
	fmt.Printf("    Samples:   %s\n", tui.ValueStyle.Render(fmt.Sprintf("%d", status.Sim.Samples)))
	fmt.Printf("    Latency:   %s\n", tui.ValueStyle.Render(
		fmt.Sprintf("p50 %dms | p95 %dms | p99 %dms",
			status.Sim.LatencyP50, status.Sim.LatencyP95, status.Sim.LatencyP99)))
	fmt.Println()

	fmt.Println("  " + tui.SubtitleStyle.Render("Sinks"))
	for _, s := range status.Sim.Sinks {
		marker := tui.SuccessStyle.Render(tui.CheckMark)
		if s.Failed > 0 {
			marker = tui.ErrorStyle.Render(tui.CrossMark)
		}
		fmt.Printf("    %s %-10s delivered %-8d failed %-6d dropped %d\n",
			marker, s.Sink, s.Delivered, s.Failed, s.Dropped)
	}
	fmt.Println()

	fmt.Printf("  %s %s\n", tui.LabelStyle.Render("Uptime:"), tui.ValueStyle.Render(status.Uptime))
	fmt.Println()
}
