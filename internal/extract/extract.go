// Package extract pulls raw laboratory records from external sources.
//
// Extraction never validates: every row it can read becomes a RawRecord with
// fields carried verbatim, and the validator decides legality. Only failure
// to reach or parse the source itself is an error, and that error is fatal
// for the run.
package extract

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Source pulls one batch of raw records from an external origin.
type Source interface {
	Extract(ctx context.Context) ([]types.RawRecord, error)
}

// FromFile returns a Source for the given path, chosen by extension.
// Supported: .csv and .jsonl.
func FromFile(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &CSVSource{Path: path}, nil
	case ".jsonl":
		return &JSONLSource{Path: path}, nil
	default:
		return nil, &SourceError{Path: path, Message: fmt.Sprintf("unsupported file format %q", filepath.Ext(path))}
	}
}

// CSVSource reads records from a CSV file with a header row. Columns are
// matched by header name, so column order does not matter; missing columns
// yield empty fields for the validator to reject.
type CSVSource struct {
	Path string
}

// Extract reads the whole file into memory; batches are processed as one
// in-memory unit per run.
func (s *CSVSource) Extract(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SourceError{Path: s.Path, Message: "extraction cancelled", Cause: err}
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &SourceError{Path: s.Path, Message: "cannot open source", Cause: err}
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows pass through to validation

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &SourceError{Path: s.Path, Message: "source is empty"}
	}
	if err != nil {
		return nil, &SourceError{Path: s.Path, Message: "cannot read header", Cause: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []types.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SourceError{Path: s.Path, Message: "cannot read row", Cause: err}
		}
		records = append(records, types.RawRecord{
			BatchID:          field(row, "batch_id"),
			SampleID:         field(row, "sample_id"),
			Moisture:         field(row, "moisture"),
			PH:               field(row, "ph"),
			DiastaseActivity: field(row, "diastase_activity"),
			HMF:              field(row, "h_m_f"),
			CollectionDate:   field(row, "collection_date"),
			LabID:            field(row, "lab_id"),
			Analyst:          field(row, "analyst"),
			Region:           field(row, "region"),
		})
	}
	return records, nil
}

// JSONLSource reads one JSON object per line. Numeric measurement fields may
// be JSON numbers or strings; both are carried as their textual form.
type JSONLSource struct {
	Path string
}

// jsonRow accepts loosely typed fields so upstream feeds that emit numbers
// instead of strings still extract cleanly.
type jsonRow struct {
	BatchID          any `json:"batch_id"`
	SampleID         any `json:"sample_id"`
	Moisture         any `json:"moisture"`
	PH               any `json:"ph"`
	DiastaseActivity any `json:"diastase_activity"`
	HMF              any `json:"h_m_f"`
	CollectionDate   any `json:"collection_date"`
	LabID            any `json:"lab_id"`
	Analyst          any `json:"analyst"`
	Region           any `json:"region"`
}

// Extract reads and decodes every line of the file.
func (s *JSONLSource) Extract(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SourceError{Path: s.Path, Message: "extraction cancelled", Cause: err}
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &SourceError{Path: s.Path, Message: "cannot open source", Cause: err}
	}
	defer func() { _ = f.Close() }()

	decoder := json.NewDecoder(f)
	decoder.UseNumber()

	var records []types.RawRecord
	for {
		var row jsonRow
		if err := decoder.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, &SourceError{Path: s.Path, Message: "cannot decode record", Cause: err}
		}
		records = append(records, types.RawRecord{
			BatchID:          asString(row.BatchID),
			SampleID:         asString(row.SampleID),
			Moisture:         asString(row.Moisture),
			PH:               asString(row.PH),
			DiastaseActivity: asString(row.DiastaseActivity),
			HMF:              asString(row.HMF),
			CollectionDate:   asString(row.CollectionDate),
			LabID:            asString(row.LabID),
			Analyst:          asString(row.Analyst),
			Region:           asString(row.Region),
		})
	}
	return records, nil
}

// asString renders a loosely typed JSON field to its textual form.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
