// Package main provides the entry point for the honey quality ETL engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "honey_etl",
	Short: "Honey quality ETL engine",
	Long:  "Honey quality ETL engine ingests laboratory measurements, validates and scores them, assigns quality categories and compliance statuses, and loads the finalized dataset into a queryable store or flat export.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
