package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/honey-quality-etl/internal/sink"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show engine configuration and collaborator availability",
	RunE:  runStatusCmd,
}

var statusConfigPath string

func init() {
	statusCommand.Flags().StringVar(&statusConfigPath, "config", "", "Path to etl_config.json")

	rootCmd.AddCommand(statusCommand)
}

func runStatusCmd(_ *cobra.Command, _ []string) error {
	fmt.Println("Engine Status")
	fmt.Println("==================================================")

	cfg, err := loadConfig(statusConfigPath)
	if err != nil {
		fmt.Printf("Configuration:  INVALID (%v)\n", err)
	} else if statusConfigPath != "" {
		fmt.Printf("Configuration:  loaded from %s\n", statusConfigPath)
	} else {
		fmt.Println("Configuration:  built-in defaults")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = cfg.Database.URL
	}
	if databaseURL == "" {
		fmt.Println("Database:       not configured")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pg, err := sink.ConnectPostgres(ctx, databaseURL, cfg.Database.Table)
		if err != nil {
			fmt.Printf("Database:       unreachable (%v)\n", err)
		} else {
			pg.Close()
			fmt.Printf("Database:       reachable (table %s)\n", cfg.Database.Table)
		}
	}

	if cfg.Monitoring.Enabled {
		fmt.Printf("Monitoring:     enabled on port %d\n", cfg.Monitoring.MetricsPort)
	} else {
		fmt.Println("Monitoring:     disabled")
	}
	fmt.Printf("Output dir:     %s\n", cfg.OutputDir)

	fmt.Println("==================================================")
	return nil
}
