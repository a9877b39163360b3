package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ems-codex/brand-sentiment/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "brand-sentiment",
	Short: "Search-query sentiment pipeline",
	Long:  "Fetches distinct search queries per client, classifies their sentiment with keyword rules over a VADER lexicon, and merges the results idempotently into the warehouse.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
