package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/honey-quality-etl/internal/extract"
	"github.com/jonathan/honey-quality-etl/internal/observability"
	"github.com/jonathan/honey-quality-etl/internal/pipeline"
	"github.com/jonathan/honey-quality-etl/internal/sink"
)

var demoCommand = &cobra.Command{
	Use:   "demo",
	Short: "Generate sample laboratory data and run the pipeline over it",
	RunE:  runDemoCmd,
}

var (
	demoConfigPath string
	demoDataPath   string
	demoCount      int
	demoSeed       int64
)

func init() {
	demoCommand.Flags().StringVar(&demoConfigPath, "config", "", "Path to etl_config.json (defaults are used when omitted)")
	demoCommand.Flags().StringVar(&demoDataPath, "data", "data/sample_honey_data.csv", "Where to write the generated sample CSV")
	demoCommand.Flags().IntVar(&demoCount, "count", 100, "Number of sample records to generate")
	demoCommand.Flags().Int64Var(&demoSeed, "seed", 42, "Random seed for the sample generator")

	rootCmd.AddCommand(demoCommand)
}

func runDemoCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(demoConfigPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(demoDataPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	records := extract.GenerateSample(demoCount, demoSeed)
	if err := extract.WriteSampleCSV(demoDataPath, records); err != nil {
		return err
	}
	fmt.Printf("Sample data generated: %s (%d records)\n", demoDataPath, len(records))

	memory := sink.NewMemory()
	p, err := pipeline.New(pipeline.Options{
		Config:     cfg,
		Source:     &extract.CSVSource{Path: demoDataPath},
		Sink:       memory,
		BatchKey:   "demo",
		SourcePath: demoDataPath,
		OnProgress: func(event pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s\n", event.State, event.Message)
		},
	})
	if err != nil {
		return err
	}

	report, runErr := p.Run(ctx)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRunReport(report)
	printer.PrintCategorizedRecords(memory.Rows("demo"))

	if path, err := pipeline.WriteReportFile(report, cfg.OutputDir); err != nil {
		fmt.Printf("Warning: failed to write run report: %v\n", err)
	} else {
		fmt.Printf("Run report written to %s\n", path)
	}

	if runErr != nil {
		return fmt.Errorf("demo run failed: %w", runErr)
	}
	return nil
}
