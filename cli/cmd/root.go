package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/venuepulse/venuepulse/cli/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vpulse",
	Short: "VenuePulse CLI",
	Long: `vpulse is the command-line interface for the VenuePulse pipeline.

Seed venues and users, generate signed synthetic traffic against the
ingestion gateway, and inspect quarantined entries.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.vpulse/config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}
