package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// WriteReportFile persists the finalized run report as a timestamped JSON
// file under dir and returns the file path.
func WriteReportFile(report *types.RunReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("run_report_%s.json", report.FinishedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write run report %s: %w", path, err)
	}
	return path, nil
}
