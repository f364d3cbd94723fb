package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vserve-leads",
	Short: "Bayut and Dubizzle lead ingestion pipeline",
	Long:  "Fetches call, email and WhatsApp leads from the Bayut and Dubizzle portals, deduplicates them against a persistent ledger, and creates leads, contacts and call recordings in Bitrix24.",
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
