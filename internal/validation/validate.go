// Package validation provides per-record legality checks for ingested laboratory measurements.
//
// Validation is a pure function: malformed input is reported through the
// verdict on the returned record, never through an error. Structural checks
// (identifiers, timestamp, numeric parsing) short-circuit on the first
// failure; physical range checks do not, so a record can carry several
// simultaneous range reasons.
package validation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Admissible physical ranges. These are hard legality bounds, not the
// configurable compliance bands used for scoring.
const (
	MoistureRangeMin = 0.0
	MoistureRangeMax = 100.0
	PHRangeMin       = 0.0
	PHRangeMax       = 14.0
)

// Rejection reason strings. These double as tally keys in the run report,
// so they must stay stable.
const (
	ReasonMissingBatchID      = "batch_id is required"
	ReasonMissingSampleID     = "sample_id is required"
	ReasonBadTimestamp        = "collection_date is not a parseable timestamp"
	ReasonMoistureNotNumeric  = "moisture is not numeric"
	ReasonPHNotNumeric        = "ph is not numeric"
	ReasonDiastaseNotNumeric  = "diastase_activity is not numeric"
	ReasonHMFNotNumeric       = "h_m_f is not numeric"
	ReasonMoistureOutOfRange  = "moisture out of range [0,100]"
	ReasonPHOutOfRange        = "ph out of range [0,14]"
	ReasonDiastaseOutOfRange  = "diastase_activity must be non-negative"
	ReasonHMFOutOfRange       = "h_m_f must be non-negative"
)

// timestampLayouts are the accepted collection_date formats, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// Validate checks one raw record and returns it with a verdict. A record is
// valid only if zero reasons accumulated; an invalid record carries no
// parsed measurements that downstream stages may rely on.
func Validate(raw types.RawRecord) types.ValidatedRecord {
	rec := types.ValidatedRecord{Raw: raw}

	if strings.TrimSpace(raw.BatchID) == "" {
		return invalid(rec, ReasonMissingBatchID)
	}
	if strings.TrimSpace(raw.SampleID) == "" {
		return invalid(rec, ReasonMissingSampleID)
	}

	ts, ok := parseTimestamp(raw.CollectionDate)
	if !ok {
		return invalid(rec, ReasonBadTimestamp)
	}
	rec.CollectionDate = ts

	moisture, ok := parseMeasurement(raw.Moisture)
	if !ok {
		return invalid(rec, ReasonMoistureNotNumeric)
	}
	ph, ok := parseMeasurement(raw.PH)
	if !ok {
		return invalid(rec, ReasonPHNotNumeric)
	}
	diastase, ok := parseMeasurement(raw.DiastaseActivity)
	if !ok {
		return invalid(rec, ReasonDiastaseNotNumeric)
	}
	hmf, ok := parseMeasurement(raw.HMF)
	if !ok {
		return invalid(rec, ReasonHMFNotNumeric)
	}

	rec.Measurements = types.Measurements{
		Moisture:         moisture,
		PH:               ph,
		DiastaseActivity: diastase,
		HMF:              hmf,
	}

	// Range checks accumulate: all four parameters are always checked.
	if moisture < MoistureRangeMin || moisture > MoistureRangeMax {
		rec.Reasons = append(rec.Reasons, ReasonMoistureOutOfRange)
	}
	if ph < PHRangeMin || ph > PHRangeMax {
		rec.Reasons = append(rec.Reasons, ReasonPHOutOfRange)
	}
	if diastase < 0 {
		rec.Reasons = append(rec.Reasons, ReasonDiastaseOutOfRange)
	}
	if hmf < 0 {
		rec.Reasons = append(rec.Reasons, ReasonHMFOutOfRange)
	}

	rec.Valid = len(rec.Reasons) == 0
	return rec
}

// invalid marks the record with a single structural reason.
func invalid(rec types.ValidatedRecord, reason string) types.ValidatedRecord {
	rec.Valid = false
	rec.Reasons = append(rec.Reasons, reason)
	return rec
}

// parseTimestamp tries the accepted layouts in order.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseMeasurement parses a numeric field. NaN and infinities are rejected:
// they parse as floats but are not laboratory measurements.
func parseMeasurement(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
