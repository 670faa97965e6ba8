package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faultline/internal/config"
	"github.com/faultline/internal/tui"
	"github.com/faultline/internal/webhook"
	"github.com/spf13/cobra"
)

var (
	webhookAddress string
	webhookLogFile string
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Run the alert ingestion endpoint",
	Long: `Run the webhook server that receives alerts from Grafana (or any
compatible alerting system), prints them and persists them to an
append-only log. Point your alert notification channel at
POST http://<address>/alerts.

Example:
  faultline webhook --address localhost:8080`,
	RunE: runWebhook,
}

func init() {
	defaults := config.DefaultConfig().Webhook
	webhookCmd.Flags().StringVarP(&webhookAddress, "address", "a", defaults.Address, "Listen address")
	webhookCmd.Flags().StringVarP(&webhookLogFile, "log-file", "l", defaults.LogFile, "Alert log file")
	rootCmd.AddCommand(webhookCmd)
}

func runWebhook(cmd *cobra.Command, args []string) error {
	server := webhook.NewServer(config.Webhook{
		Address: webhookAddress,
		LogFile: webhookLogFile,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Println()
	fmt.Println(tui.SuccessStyle.Render("  " + tui.CheckMark + " Alert webhook listening on http://" + webhookAddress))
	fmt.Println(tui.DimStyle.Render("    POST /alerts  ->  " + webhookLogFile))
	fmt.Println(tui.DimStyle.Render("    Ctrl+C to stop"))
	fmt.Println()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	fmt.Println()
	fmt.Println(tui.WarningStyle.Render("  Shutting down..."))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(ctx)
}
