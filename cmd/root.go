package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/baystate-data/arrestlog/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "arrestlog",
	Short: "Analytics API over Massachusetts police arrest logs",
	Long:  "Serves filtered arrest listings, ranked city counts, and aggregate statistics from an append-only arrest_logs table.",
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
