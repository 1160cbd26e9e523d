// Package categorize maps scored records to discrete quality categories and compliance statuses.
package categorize

import (
	"time"

	"github.com/jonathan/honey-quality-etl/internal/config"
	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Categorizer assigns the quality category from the composite score and the
// compliance status from the four compliance flags. The two labels are
// independent: category never looks at the flags, status never looks at the
// score.
type Categorizer struct {
	thresholds config.CategoryThresholds
	rules      config.ParameterRules
	now        func() time.Time
}

// NewCategorizer constructs a Categorizer from explicit configuration.
func NewCategorizer(thresholds config.CategoryThresholds, rules config.ParameterRules) *Categorizer {
	return &Categorizer{thresholds: thresholds, rules: rules, now: time.Now}
}

// Categorize labels one scored record.
func (c *Categorizer) Categorize(rec types.ScoredRecord) types.CategorizedRecord {
	return types.CategorizedRecord{
		ScoredRecord:     rec,
		QualityCategory:  c.category(rec.QualityScore),
		ComplianceStatus: c.complianceStatus(rec),
		ProcessedAt:      c.now().UTC(),
	}
}

// category partitions the score axis with inclusive lower bounds: a score
// exactly on a threshold belongs to the higher category.
func (c *Categorizer) category(score float64) types.QualityCategory {
	switch {
	case score >= c.thresholds.Premium:
		return types.CategoryPremium
	case score >= c.thresholds.Excellent:
		return types.CategoryExcellent
	case score >= c.thresholds.Good:
		return types.CategoryGood
	case score >= c.thresholds.Fair:
		return types.CategoryFair
	default:
		return types.CategoryPoor
	}
}

// complianceStatus applies the three-tier split: Compliant when every flag
// passes, Non-Compliant when any failing parameter exceeds its configured
// severity margin, Warning for failures within the minor-deviation margin.
func (c *Categorizer) complianceStatus(rec types.ScoredRecord) types.ComplianceStatus {
	if rec.Compliance.AllOK() {
		return types.StatusCompliant
	}

	m := rec.Measurements
	severe := false

	if !rec.Compliance.MoistureOK {
		rule := c.rules.Moisture
		if m.Moisture < rule.Min-rule.SeverityMargin || m.Moisture > rule.Max+rule.SeverityMargin {
			severe = true
		}
	}
	if !rec.Compliance.PHOK {
		rule := c.rules.PH
		if m.PH < rule.Min-rule.SeverityMargin || m.PH > rule.Max+rule.SeverityMargin {
			severe = true
		}
	}
	if !rec.Compliance.DiastaseOK {
		rule := c.rules.Diastase
		if m.DiastaseActivity < rule.Floor-rule.SeverityMargin {
			severe = true
		}
	}
	if !rec.Compliance.HMFOK {
		rule := c.rules.HMF
		if m.HMF > rule.Ceiling*rule.SeverityRatio {
			severe = true
		}
	}

	if severe {
		return types.StatusNonCompliant
	}
	return types.StatusWarning
}
