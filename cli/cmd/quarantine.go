package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/venuepulse/venuepulse/cli/pkg/output"
)

var (
	quarantineKey   string
	quarantineLimit int
	quarantineJSON  bool
)

var quarantineCmd = &cobra.Command{
	Use:   "quarantine",
	Short: "Inspect quarantined entries",
}

var quarantineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered entries",
	Long: `Show entries the workers gave up on after exhausting retries.

Records are read from the Redis dead-letter list, newest first.`,
	RunE: runQuarantineList,
}

// deadLetterRecord mirrors the JSON the workers write on quarantine.
type deadLetterRecord struct {
	EntryID         string            `json:"entry_id"`
	OriginalMessage map[string]string `json:"original_message"`
	Error           string            `json:"error"`
}

func init() {
	rootCmd.AddCommand(quarantineCmd)
	quarantineCmd.AddCommand(quarantineListCmd)

	quarantineListCmd.Flags().StringVar(&quarantineKey, "key", "stream:dlq", "dead-letter list key")
	quarantineListCmd.Flags().IntVar(&quarantineLimit, "limit", 20, "maximum records to show")
	quarantineListCmd.Flags().BoolVar(&quarantineJSON, "json", false, "print raw records as JSON")
}

func runQuarantineList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	raw, err := rdb.LRange(ctx, quarantineKey, 0, int64(quarantineLimit)-1).Result()
	if err != nil {
		return fmt.Errorf("read dead-letter list: %w", err)
	}

	if len(raw) == 0 {
		output.Info("Quarantine is empty")
		return nil
	}

	records := make([]deadLetterRecord, 0, len(raw))
	for _, item := range raw {
		var record deadLetterRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			output.Warn("Skipping undecodable record: %v", err)
			continue
		}
		records = append(records, record)
	}

	if quarantineJSON {
		return output.JSON(records)
	}

	table := output.NewTable([]string{"ENTRY ID", "VENUE", "ERROR"})
	for _, record := range records {
		table.AddRow([]string{record.EntryID, record.OriginalMessage["venue_id"], record.Error})
	}
	table.Render()
	output.Info("%d quarantined entries", len(records))

	return nil
}
