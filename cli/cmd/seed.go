package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/venuepulse/venuepulse/cli/internal/seeder"
	"github.com/venuepulse/venuepulse/cli/pkg/output"
)

var (
	seedVenueCount   int
	seedUserEmail    string
	seedUserPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo venues and users",
	Long: `Populate the database with generated venues for local development.

Each venue is created with a fresh secret key, printed once so agents can
sign traffic for it. Optionally creates a dashboard login as well.

Examples:
  vpulse seed --venues 5
  vpulse seed --venues 3 --user owner@example.com --password correct-horse`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedVenueCount, "venues", 3, "number of venues to create")
	seedCmd.Flags().StringVar(&seedUserEmail, "user", "", "email for a demo dashboard login")
	seedCmd.Flags().StringVar(&seedUserPassword, "password", "", "password for the demo login")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	s := seeder.New(pool)

	venues, err := s.SeedVenues(ctx, seedVenueCount)
	if err != nil {
		return err
	}

	table := output.NewTable([]string{"ID", "NAME", "CAPACITY", "SECRET KEY"})
	for _, venue := range venues {
		table.AddRow([]string{venue.ID, venue.Name, strconv.Itoa(venue.Capacity), venue.SecretKey})
	}
	table.Render()
	output.Success("Created %d venues", len(venues))
	output.Warn("Secret keys are only shown once, store them now")

	if seedUserEmail != "" {
		if seedUserPassword == "" {
			return fmt.Errorf("--password is required with --user")
		}
		id, err := s.SeedUser(ctx, seedUserEmail, seedUserPassword)
		if err != nil {
			return err
		}
		output.Success("Created user %s (%s)", seedUserEmail, id)
	}

	return nil
}
