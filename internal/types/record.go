// Package types provides type definitions for the record lifecycle used throughout the honey quality ETL engine.
package types

import "time"

// RawRecord represents one laboratory measurement exactly as ingested.
// Measurement fields are kept as raw strings so that unparsable input is
// representable; parsing happens during validation and the raw record is
// never mutated.
type RawRecord struct {
	BatchID          string `json:"batch_id"`
	SampleID         string `json:"sample_id"`
	Moisture         string `json:"moisture"`
	PH               string `json:"ph"`
	DiastaseActivity string `json:"diastase_activity"`
	HMF              string `json:"h_m_f"`
	CollectionDate   string `json:"collection_date"`
	LabID            string `json:"lab_id"`
	Analyst          string `json:"analyst"`
	Region           string `json:"region"`
}

// Measurements holds the four physicochemical parameters after parsing.
type Measurements struct {
	Moisture         float64 `json:"moisture"`
	PH               float64 `json:"ph"`
	DiastaseActivity float64 `json:"diastase_activity"`
	HMF              float64 `json:"h_m_f"`
}

// ValidatedRecord is a RawRecord accompanied by a validity verdict.
// Measurements and CollectionDate are only meaningful when Valid is true.
type ValidatedRecord struct {
	Raw            RawRecord    `json:"raw"`
	Valid          bool         `json:"valid"`
	Reasons        []string     `json:"reasons,omitempty"`
	Measurements   Measurements `json:"measurements"`
	CollectionDate time.Time    `json:"collection_date"`
}

// ComplianceFlags holds the per-parameter pass/fail gates. These are strict
// band checks, distinct from the smooth sub-scores used for the composite.
type ComplianceFlags struct {
	MoistureOK bool `json:"moisture_ok"`
	PHOK       bool `json:"ph_ok"`
	DiastaseOK bool `json:"diastase_ok"`
	HMFOK      bool `json:"hmf_ok"`
}

// AllOK reports whether every parameter passed its compliance band.
func (f ComplianceFlags) AllOK() bool {
	return f.MoistureOK && f.PHOK && f.DiastaseOK && f.HMFOK
}

// ScoredRecord is a valid record plus its composite quality score and
// compliance flags.
type ScoredRecord struct {
	ValidatedRecord
	QualityScore float64         `json:"quality_score"`
	Compliance   ComplianceFlags `json:"compliance"`
}

// CategorizedRecord is a scored record plus its categorical labels. This is
// the only record shape that gets persisted.
type CategorizedRecord struct {
	ScoredRecord
	QualityCategory  QualityCategory  `json:"quality_category"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	ProcessedAt      time.Time        `json:"processed_at"`
}
