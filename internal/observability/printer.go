// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxRecordsToShow is the default number of records to display in lists
	maxRecordsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunReport outputs a human-readable summary of a finalized run.
func (p *Printer) PrintRunReport(report *types.RunReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Batch:     %s\n", report.BatchKey))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", report.Status))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", report.Duration().Round(time.Millisecond)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Extracted: %d\n", report.Extracted))
	sb.WriteString(fmt.Sprintf("Valid:     %d\n", report.Valid))
	sb.WriteString(fmt.Sprintf("Invalid:   %d\n", report.Invalid))
	sb.WriteString(fmt.Sprintf("Loaded:    %d\n", report.Loaded))

	if len(report.Rejections) > 0 {
		sb.WriteString("\nRejections:\n")
		reasons := make([]string, 0, len(report.Rejections))
		for reason := range report.Rejections {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			sb.WriteString(fmt.Sprintf("  %dx %s\n", report.Rejections[reason], reason))
		}
	}
	if report.FailureCause != "" {
		sb.WriteString(fmt.Sprintf("\nCause: %s\n", report.FailureCause))
	}

	p.printBox("Run Report", strings.TrimRight(sb.String(), "\n"))
}

// PrintCategorizedRecords outputs the first few finalized records.
func (p *Printer) PrintCategorizedRecords(records []types.CategorizedRecord) {
	if len(records) == 0 {
		return
	}

	var sb strings.Builder
	shown := len(records)
	if shown > maxRecordsToShow {
		shown = maxRecordsToShow
	}
	for _, rec := range records[:shown] {
		sb.WriteString(fmt.Sprintf("%s/%s  score=%.1f  %s  %s\n",
			rec.Raw.BatchID, rec.Raw.SampleID, rec.QualityScore,
			rec.QualityCategory, rec.ComplianceStatus))
	}
	if len(records) > shown {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(records)-shown))
	}

	p.printBox(fmt.Sprintf("Categorized Records (%d)", len(records)), strings.TrimRight(sb.String(), "\n"))
}
