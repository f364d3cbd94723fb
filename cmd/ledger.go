package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the processed-lead ledger",
}

var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the ledger backend and the number of processed leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		led, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer led.Close()

		if err := led.Load(ctx); err != nil {
			return err
		}

		fmt.Printf("driver:          %s\n", cfg.Ledger.Driver)
		fmt.Printf("processed leads: %d\n", led.Count())
		return nil
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerStatusCmd)
	rootCmd.AddCommand(ledgerCmd)
}
