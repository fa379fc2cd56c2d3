package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/venuepulse/venuepulse/cli/internal/client"
	"github.com/venuepulse/venuepulse/cli/pkg/output"
)

var (
	agentVenueID  string
	agentSecret   string
	agentInterval time.Duration
	agentCount    int
	agentMinTxns  int
	agentMaxTxns  int
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Generate signed synthetic traffic",
	Long: `Simulate a venue terminal posting transaction events to the gateway.

Each event carries a random transaction count and is signed with the
venue's secret key. Runs until the count is reached or interrupted.

Examples:
  vpulse agent --venue <id> --secret <key>
  vpulse agent --venue <id> --secret <key> --interval 2s --count 100`,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)

	agentCmd.Flags().StringVar(&agentVenueID, "venue", "", "venue ID to report for (required)")
	agentCmd.Flags().StringVar(&agentSecret, "secret", "", "venue secret key (required)")
	agentCmd.Flags().DurationVar(&agentInterval, "interval", 5*time.Second, "delay between events")
	agentCmd.Flags().IntVar(&agentCount, "count", 0, "number of events to send (0 = until interrupted)")
	agentCmd.Flags().IntVar(&agentMinTxns, "min", 0, "minimum transaction count per event")
	agentCmd.Flags().IntVar(&agentMaxTxns, "max", 12, "maximum transaction count per event")

	agentCmd.MarkFlagRequired("venue")
	agentCmd.MarkFlagRequired("secret")
}

func runAgent(cmd *cobra.Command, args []string) error {
	if agentMaxTxns < agentMinTxns {
		return fmt.Errorf("--max must be >= --min")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := client.NewGatewayClient(cfg.GatewayURL)
	output.Info("Sending events for venue %s to %s every %s", agentVenueID, cfg.GatewayURL, agentInterval)

	ticker := time.NewTicker(agentInterval)
	defer ticker.Stop()

	sent := 0
	for {
		count := agentMinTxns + rand.Intn(agentMaxTxns-agentMinTxns+1)
		if err := gateway.SendTransaction(ctx, agentVenueID, agentSecret, time.Now(), count); err != nil {
			output.Error("Send failed: %v", err)
		} else {
			sent++
			output.Info("Sent event %d (%d transactions)", sent, count)
		}

		if agentCount > 0 && sent >= agentCount {
			output.Success("Sent %d events", sent)
			return nil
		}

		select {
		case <-ctx.Done():
			output.Info("Interrupted after %d events", sent)
			return nil
		case <-ticker.C:
		}
	}
}
