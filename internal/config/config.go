// Package config provides configuration loading and validation for the ETL engine.
//
// Configuration is a JSON document (thresholds, tolerance bands, scoring
// weights, severity margins) loaded at startup. The raw document is checked
// against an embedded JSON Schema first, then the decoded struct is checked
// with field tags and cross-field rules. Components receive the relevant
// sections at construction; nothing reads configuration from global state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// weightSumTolerance absorbs float formatting noise when checking that the
// four scoring weights sum to 1.
const weightSumTolerance = 1e-6

// BandRule configures a parameter scored by distance from a target inside a
// tolerance band. SeverityMargin is how far outside the band a value may sit
// before a compliance failure escalates from Warning to Non-Compliant.
type BandRule struct {
	Target         float64 `json:"target"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	SeverityMargin float64 `json:"severity_margin" validate:"gte=0"`
}

// FloorRule configures a minimum-is-better parameter: full score at or above
// Floor, degrading linearly to zero at zero. SeverityMargin is how far below
// the floor a value may sit before escalating to Non-Compliant.
type FloorRule struct {
	Floor          float64 `json:"floor" validate:"gt=0"`
	SeverityMargin float64 `json:"severity_margin" validate:"gte=0"`
}

// CeilingRule configures a maximum-is-better parameter: full score at or
// below Ceiling, degrading linearly to zero over FalloffMargin beyond it.
// SeverityRatio is the multiple of the ceiling beyond which a compliance
// failure escalates to Non-Compliant (2.0 means "more than double").
type CeilingRule struct {
	Ceiling       float64 `json:"ceiling" validate:"gt=0"`
	FalloffMargin float64 `json:"falloff_margin" validate:"gt=0"`
	SeverityRatio float64 `json:"severity_ratio" validate:"gte=1"`
}

// ParameterRules holds the per-parameter targets, bands and severity margins.
type ParameterRules struct {
	Moisture BandRule    `json:"moisture"`
	PH       BandRule    `json:"ph"`
	Diastase FloorRule   `json:"diastase_activity"`
	HMF      CeilingRule `json:"h_m_f"`
}

// Weights holds the contribution of each parameter to the composite score.
// The four weights must sum to 1.
type Weights struct {
	Moisture float64 `json:"moisture" validate:"gte=0,lte=1"`
	PH       float64 `json:"ph" validate:"gte=0,lte=1"`
	Diastase float64 `json:"diastase_activity" validate:"gte=0,lte=1"`
	HMF      float64 `json:"h_m_f" validate:"gte=0,lte=1"`
}

// CategoryThresholds holds the inclusive lower score bound of each quality
// category above Poor. Thresholds must be strictly descending.
type CategoryThresholds struct {
	Premium   float64 `json:"premium" validate:"gte=0,lte=100"`
	Excellent float64 `json:"excellent" validate:"gte=0,lte=100"`
	Good      float64 `json:"good" validate:"gte=0,lte=100"`
	Fair      float64 `json:"fair" validate:"gte=0,lte=100"`
}

// Database configures the Postgres sink.
type Database struct {
	URL   string `json:"url"`
	Table string `json:"table"`
}

// Monitoring configures the metrics endpoint.
type Monitoring struct {
	Enabled     bool `json:"enabled"`
	MetricsPort int  `json:"metrics_port" validate:"gte=0,lte=65535"`
}

// Config is the full ETL engine configuration.
type Config struct {
	Database   Database           `json:"database"`
	Rules      ParameterRules     `json:"rules"`
	Weights    Weights            `json:"weights"`
	Categories CategoryThresholds `json:"categories"`
	Monitoring Monitoring         `json:"monitoring"`
	OutputDir  string             `json:"output_dir"`
	Workers    int                `json:"workers" validate:"gte=0"`
}

// Default returns the built-in configuration mirroring the published honey
// quality business rules: moisture 15-20% around 17.5, pH 3.5-6.5 around
// 5.0, diastase floor 8.0, HMF ceiling 40.0 mg/kg, equal scoring weights.
func Default() Config {
	return Config{
		Database: Database{Table: "honey_quality_data"},
		Rules: ParameterRules{
			Moisture: BandRule{Target: 17.5, Min: 15.0, Max: 20.0, SeverityMargin: 2.0},
			PH:       BandRule{Target: 5.0, Min: 3.5, Max: 6.5, SeverityMargin: 0.5},
			Diastase: FloorRule{Floor: 8.0, SeverityMargin: 2.0},
			HMF:      CeilingRule{Ceiling: 40.0, FalloffMargin: 40.0, SeverityRatio: 2.0},
		},
		Weights: Weights{Moisture: 0.25, PH: 0.25, Diastase: 0.25, HMF: 0.25},
		Categories: CategoryThresholds{
			Premium:   95.0,
			Excellent: 90.0,
			Good:      80.0,
			Fair:      70.0,
		},
		Monitoring: Monitoring{Enabled: false, MetricsPort: 9090},
		OutputDir:  "output",
	}
}

// Load reads, schema-checks and decodes a configuration file. Values missing
// from the file keep their defaults. Returns an error for unreadable files,
// schema violations and inconsistent values; a run must abort on any of
// these before extraction starts.
func Load(path string) (Config, error) {
	cfg := Default()

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return cfg, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := validateSchema(data); err != nil {
		return cfg, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validateSchema checks the raw config document against the embedded schema
// before decoding, so structural mistakes surface with field paths instead
// of silently becoming zero values.
func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("config schema validation failed: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		sb.WriteString("config does not match schema:")
		for _, desc := range result.Errors() {
			sb.WriteString("\n  - ")
			sb.WriteString(desc.String())
		}
		return fmt.Errorf("%s", sb.String())
	}
	return nil
}

// Validate checks decoded values: field tags first, then cross-field rules
// the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Rules.Moisture.Min >= c.Rules.Moisture.Max {
		return fmt.Errorf("config error: moisture band min (%.2f) must be below max (%.2f)", c.Rules.Moisture.Min, c.Rules.Moisture.Max)
	}
	if c.Rules.PH.Min >= c.Rules.PH.Max {
		return fmt.Errorf("config error: ph band min (%.2f) must be below max (%.2f)", c.Rules.PH.Min, c.Rules.PH.Max)
	}
	if t := c.Rules.Moisture.Target; t < c.Rules.Moisture.Min || t > c.Rules.Moisture.Max {
		return fmt.Errorf("config error: moisture target %.2f lies outside band [%.2f, %.2f]", t, c.Rules.Moisture.Min, c.Rules.Moisture.Max)
	}
	if t := c.Rules.PH.Target; t < c.Rules.PH.Min || t > c.Rules.PH.Max {
		return fmt.Errorf("config error: ph target %.2f lies outside band [%.2f, %.2f]", t, c.Rules.PH.Min, c.Rules.PH.Max)
	}

	sum := c.Weights.Moisture + c.Weights.PH + c.Weights.Diastase + c.Weights.HMF
	if sum < 1.0-weightSumTolerance || sum > 1.0+weightSumTolerance {
		return fmt.Errorf("config error: scoring weights must sum to 1.0, got %.4f", sum)
	}

	t := c.Categories
	if !(t.Premium > t.Excellent && t.Excellent > t.Good && t.Good > t.Fair) {
		return fmt.Errorf("config error: category thresholds must be strictly descending (premium > excellent > good > fair), got %.1f/%.1f/%.1f/%.1f",
			t.Premium, t.Excellent, t.Good, t.Fair)
	}

	return nil
}
