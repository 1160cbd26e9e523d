package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/honey-quality-etl/internal/config"
	"github.com/jonathan/honey-quality-etl/internal/extract"
	"github.com/jonathan/honey-quality-etl/internal/monitoring"
	"github.com/jonathan/honey-quality-etl/internal/observability"
	"github.com/jonathan/honey-quality-etl/internal/pipeline"
	"github.com/jonathan/honey-quality-etl/internal/sink"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full ETL pipeline over one batch of records",
	Long: `Runs the complete pipeline: extract -> validate -> score -> categorize -> load.

Invalid records are tallied and dropped; the batch is committed atomically to
the configured sinks. The run report is written to the output directory and
is the single source of truth for what happened.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runSourcePath  string
	runBatchKey    string
	runExportPath  string
	runDatabaseURL string
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to etl_config.json (defaults are used when omitted)")
	runCommand.Flags().StringVarP(&runSourcePath, "source", "s", "", "Path to the source file (.csv or .jsonl)")
	runCommand.Flags().StringVarP(&runBatchKey, "batch", "b", "", "Batch key (defaults to the source file name)")
	runCommand.Flags().StringVar(&runExportPath, "export", "", "Path for a flat CSV export of the finalized batch")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "Postgres connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed run information")

	_ = runCommand.MarkFlagRequired("source")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}

	databaseURL := runDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		databaseURL = cfg.Database.URL
	}

	batchKey := runBatchKey
	if batchKey == "" {
		batchKey = strings.TrimSuffix(filepath.Base(runSourcePath), filepath.Ext(runSourcePath))
	}

	source, err := extract.FromFile(runSourcePath)
	if err != nil {
		return err
	}

	var sinks sink.Multi
	var pg *sink.Postgres
	if databaseURL != "" {
		pg, err = sink.ConnectPostgres(ctx, databaseURL, cfg.Database.Table)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, pg)
	}
	if runExportPath != "" {
		sinks = append(sinks, &sink.CSVExport{Path: runExportPath})
	}
	if len(sinks) == 0 {
		fmt.Printf("Warning: no database or export configured; running against an in-memory sink\n")
		sinks = append(sinks, sink.NewMemory())
	}

	var metrics *monitoring.Metrics
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetrics()
		srv := metrics.Serve(cfg.Monitoring.MetricsPort)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		fmt.Printf("Metrics available on :%d/metrics\n", cfg.Monitoring.MetricsPort)
	}

	p, err := pipeline.New(pipeline.Options{
		Config:     cfg,
		Source:     source,
		Sink:       sinks,
		BatchKey:   batchKey,
		SourcePath: runSourcePath,
		Metrics:    metrics,
		OnProgress: func(event pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s\n", event.State, event.Message)
		},
	})
	if err != nil {
		return err
	}

	report, runErr := p.Run(ctx)

	if runVerbose {
		observability.NewPrinter(os.Stdout).PrintRunReport(report)
	}

	if path, err := pipeline.WriteReportFile(report, cfg.OutputDir); err != nil {
		fmt.Printf("Warning: failed to write run report: %v\n", err)
	} else {
		fmt.Printf("Run report written to %s\n", path)
	}
	if pg != nil {
		if err := pg.SaveRunReport(ctx, report); err != nil {
			fmt.Printf("Warning: failed to persist run report: %v\n", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("pipeline run %s failed: %w", report.RunID, runErr)
	}
	fmt.Printf("Run %s finished: %s (%d/%d records loaded)\n",
		report.RunID, report.Status, report.Loaded, report.Extracted)
	return nil
}

// loadConfig loads the config file when given, otherwise the built-in
// defaults.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
