package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/bitewise/bitewise"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run executes the command line and returns only after the embedding cache is
// closed and the logger flushed.
func run() error {
	logger, err := bitewise.NewLogger(os.Getenv("LOG_MODE"))
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := bitewise.LoadConfig()
	if err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		return err
	}
	settings, err := bitewise.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Errorf("Invalid settings: %v", err)
		return err
	}

	app := bitewise.NewApp(cfg, settings, logger)
	defer app.Close()

	rootCmd := &cobra.Command{
		Use:           "bitewise",
		Short:         "News aggregation and topic clustering CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(app.Commands()...)
	rootCmd.AddCommand(runCmd(app))
	rootCmd.AddCommand(cleanCmd(app))

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		return err
	}
	return nil
}

func runCmd(app *bitewise.App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daily pipeline: crawl -> cluster-topics -> summarize -> generate-report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app.Log.Info("Running full pipeline...")
			if err := app.Crawl(ctx); err != nil {
				return fmt.Errorf("crawl failed: %w", err)
			}
			// Nothing can be clustered without the models.
			if _, err := app.Pipeline(ctx); err != nil {
				return fmt.Errorf("failed to load models: %w", err)
			}
			if err := app.ClusterTopics(ctx); err != nil {
				return fmt.Errorf("clustering failed: %w", err)
			}
			if err := app.Summarize(ctx); err != nil {
				return fmt.Errorf("summarization failed: %w", err)
			}
			if err := app.GenerateReport(time.Now()); err != nil {
				return fmt.Errorf("report generation failed: %w", err)
			}
			app.Log.Info("Pipeline complete.")
			return nil
		},
	}
}

func cleanCmd(app *bitewise.App) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove snapshots, clusters, summaries and the report",
		Run: func(cmd *cobra.Command, args []string) {
			removed := app.Clean()
			app.Log.Infof("Cleaned snapshots, clusters, summaries and report (%d files).", removed)
		},
	}
}
