package cli

import (
	"fmt"

	"github.com/faultline/internal/daemon"
	"github.com/faultline/internal/tui"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running simulator",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := daemon.SendCommand(daemon.Command{Type: "stop"})
		if err != nil {
			fmt.Println()
			fmt.Println(tui.WarningStyle.Render("  faultline is not running"))
			fmt.Println()
			return nil
		}

		fmt.Println()
		if resp.Success {
			fmt.Println(tui.SuccessStyle.Render("  " + tui.CheckMark + " faultline stopped"))
		} else {
			fmt.Println(tui.ErrorStyle.Render("  " + resp.Message))
		}
		fmt.Println()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
