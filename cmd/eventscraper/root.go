package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/city-events-scraper/internal/config"
	"github.com/JakeFAU/city-events-scraper/internal/event"
	"github.com/JakeFAU/city-events-scraper/internal/server"
)

// application is the subset of server.App the commands use.
type application interface {
	Run(ctx context.Context) error
	ScrapeOnce(ctx context.Context) []event.SourceSummary
	Close(ctx context.Context) error
}

type appKeyType struct{}

// newApp is the application factory. Tests replace it with a fake.
var newApp = func(ctx context.Context, cfg *config.Config) (application, error) {
	return server.Build(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "eventscraper",
		Short: "Scrapes Sydney event listings and serves them over HTTP.",
		Long: `eventscraper periodically collects public event listings from a configured
set of websites, normalizes them into a single event shape, and keeps an
idempotently updated store of events that the HTTP API serves.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			app, err := newApp(cmd.Context(), &cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKeyType{}, app))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file exported before loading config")
	cmd.AddCommand(newServeCmd(), newScrapeCmd())
	return cmd
}

func resolveApp(ctx context.Context) (application, error) {
	app, ok := ctx.Value(appKeyType{}).(application)
	if !ok || app == nil {
		return nil, errors.New("application not initialized")
	}
	return app, nil
}
