package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/directory"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/feed"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/ledger"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/normalize"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/pipeline"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/resolver"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/pkg/bitrix"
)

var runSince string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch and ingest new leads from both portals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		since := runSince
		if since == "" {
			since = cfg.Feed.Since
		}
		if since == "" {
			since = time.Now().Format("2006-01-02")
		}

		led, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer led.Close()

		feedClient := feed.NewClient(feed.Config{
			AuthToken: cfg.Feed.AuthToken,
			BaseURLs: map[model.Platform]string{
				model.PlatformBayut:    cfg.Feed.BayutBaseURL,
				model.PlatformDubizzle: cfg.Feed.DubizzleBaseURL,
			},
			Timeout:    time.Duration(cfg.Feed.TimeoutSecs) * time.Second,
			RatePerSec: cfg.Feed.RatePerSec,
		})
		crmClient := bitrix.NewClient(cfg.Bitrix.WebhookURL, bitrix.WithRateLimit(cfg.Bitrix.RatePerSec))

		dir := directory.New(crmClient, directory.Config{
			ListingsEntityTypeID: cfg.Bitrix.ListingsEntityTypeID,
		})
		owners := resolver.New(dir, resolver.Config{
			DefaultOwnerID:  cfg.Owner.DefaultOwnerID,
			ExcludedUserIDs: cfg.Owner.ExcludedUserIDs,
			UnknownUserID:   cfg.Owner.UnknownUserID,
		})
		norm := normalize.New(owners, dir)

		summary, err := pipeline.New(feedClient, crmClient, norm, led, since).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "run pipeline")
		}

		for _, b := range summary.Batches {
			fmt.Printf("%-10s %-15s fetched=%-4d created=%-4d duplicates=%-4d unhandled=%-4d failed=%d\n",
				b.Platform, b.Type, b.Fetched, b.Created, b.Duplicates, b.Unhandled, b.Failed)
		}
		fmt.Printf("total: created=%d failed=%d\n", summary.Created(), summary.Failed())

		if summary.Failed() > 0 {
			return eris.Errorf("%d leads failed", summary.Failed())
		}
		return nil
	},
}

// initLedger opens the configured ledger backend.
func initLedger(ctx context.Context) (ledger.Ledger, error) {
	switch cfg.Ledger.Driver {
	case "file":
		return ledger.NewFile(cfg.Ledger.Path), nil
	case "sqlite":
		led, err := ledger.NewSQLite(cfg.Ledger.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite ledger")
		}
		return led, nil
	case "postgres":
		led, err := ledger.NewPostgres(ctx, cfg.Ledger.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open postgres ledger")
		}
		return led, nil
	default:
		return nil, eris.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
}

func init() {
	runCmd.Flags().StringVar(&runSince, "since", "", "fetch leads updated since this date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(runCmd)
}
