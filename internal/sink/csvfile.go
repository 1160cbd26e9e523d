package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// exportColumns is the fixed flat schema consumed by reporting tools. The
// column set and order must match the database table.
var exportColumns = []string{
	"batch_id", "sample_id", "moisture", "ph", "diastase_activity", "h_m_f",
	"quality_score", "quality_category", "compliance_status",
	"lab_id", "analyst", "region", "collection_date",
}

// CSVExport writes the finalized batch to a flat CSV file. The file is
// written to a temporary sibling and renamed into place, so readers never
// observe a partial batch and reloading an identical batch reproduces an
// identical file.
type CSVExport struct {
	Path string
}

// Load writes all records atomically.
func (e *CSVExport) Load(ctx context.Context, batchKey string, records []types.CategorizedRecord) error {
	if err := ctx.Err(); err != nil {
		return &LoadError{BatchKey: batchKey, Message: "load cancelled", Retryable: true, Cause: err}
	}

	dir := filepath.Dir(e.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &LoadError{BatchKey: batchKey, Message: "cannot create export directory", Retryable: false, Cause: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(e.Path)+".tmp-*")
	if err != nil {
		return &LoadError{BatchKey: batchKey, Message: "cannot create export file", Retryable: false, Cause: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(exportColumns); err != nil {
		_ = tmp.Close()
		return &LoadError{BatchKey: batchKey, Message: "cannot write export header", Retryable: false, Cause: err}
	}
	for _, rec := range records {
		if err := w.Write(exportRow(rec)); err != nil {
			_ = tmp.Close()
			return &LoadError{BatchKey: batchKey, Message: "cannot write export row", Retryable: false, Cause: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return &LoadError{BatchKey: batchKey, Message: "cannot flush export file", Retryable: false, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &LoadError{BatchKey: batchKey, Message: "cannot close export file", Retryable: false, Cause: err}
	}

	if err := os.Rename(tmpPath, e.Path); err != nil {
		return &LoadError{BatchKey: batchKey, Message: "cannot finalize export file", Retryable: false, Cause: err}
	}
	return nil
}

func exportRow(rec types.CategorizedRecord) []string {
	m := rec.Measurements
	return []string{
		rec.Raw.BatchID,
		rec.Raw.SampleID,
		formatFloat(m.Moisture),
		formatFloat(m.PH),
		formatFloat(m.DiastaseActivity),
		formatFloat(m.HMF),
		formatFloat(rec.QualityScore),
		string(rec.QualityCategory),
		string(rec.ComplianceStatus),
		rec.Raw.LabID,
		rec.Raw.Analyst,
		rec.Raw.Region,
		rec.CollectionDate.Format(time.RFC3339),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
