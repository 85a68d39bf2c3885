package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

// errAllSourcesFailed is returned by scrape when no source succeeded.
var errAllSourcesFailed = errors.New("every source failed")

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape pass over every configured source and exit",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := app.Close(cmd.Context()); cerr != nil && err == nil {
					err = fmt.Errorf("close application: %w", cerr)
				}
			}()

			summaries := app.ScrapeOnce(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summaries); err != nil {
				return fmt.Errorf("write summaries: %w", err)
			}
			if allFailed(summaries) {
				return errAllSourcesFailed
			}
			return nil
		},
	}
}

func allFailed(summaries []event.SourceSummary) bool {
	if len(summaries) == 0 {
		return false
	}
	for _, s := range summaries {
		if s.Error == "" {
			return false
		}
	}
	return true
}
