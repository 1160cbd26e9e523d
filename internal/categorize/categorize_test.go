package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/honey-quality-etl/internal/config"
	"github.com/jonathan/honey-quality-etl/internal/types"
)

func defaultCategorizer() *Categorizer {
	cfg := config.Default()
	return NewCategorizer(cfg.Categories, cfg.Rules)
}

func scoredRecord(score float64, m types.Measurements, flags types.ComplianceFlags) types.ScoredRecord {
	return types.ScoredRecord{
		ValidatedRecord: types.ValidatedRecord{
			Raw:          types.RawRecord{BatchID: "BATCH_001", SampleID: "SAMPLE_000001"},
			Valid:        true,
			Measurements: m,
		},
		QualityScore: score,
		Compliance:   flags,
	}
}

func allOK() types.ComplianceFlags {
	return types.ComplianceFlags{MoistureOK: true, PHOK: true, DiastaseOK: true, HMFOK: true}
}

func TestCategorize_ThresholdBoundariesAreInclusive(t *testing.T) {
	c := defaultCategorizer()

	cases := []struct {
		score float64
		want  types.QualityCategory
	}{
		{94.9, types.CategoryExcellent},
		{95.0, types.CategoryPremium},
		{95.1, types.CategoryPremium},
		{89.9, types.CategoryGood},
		{90.0, types.CategoryExcellent},
		{90.1, types.CategoryExcellent},
		{79.9, types.CategoryFair},
		{80.0, types.CategoryGood},
		{80.1, types.CategoryGood},
		{69.9, types.CategoryPoor},
		{70.0, types.CategoryFair},
		{70.1, types.CategoryFair},
		{0.0, types.CategoryPoor},
		{100.0, types.CategoryPremium},
	}
	for _, tc := range cases {
		rec := c.Categorize(scoredRecord(tc.score, types.Measurements{}, allOK()))
		assert.Equal(t, tc.want, rec.QualityCategory, "score %.1f", tc.score)
	}
}

func TestCategorize_AllFlagsPassIsCompliant(t *testing.T) {
	c := defaultCategorizer()

	rec := c.Categorize(scoredRecord(100.0, types.Measurements{
		Moisture: 17.5, PH: 5.0, DiastaseActivity: 8.0, HMF: 40.0,
	}, allOK()))

	assert.Equal(t, types.StatusCompliant, rec.ComplianceStatus)
}

func TestCategorize_MinorHMFDeviationIsWarning(t *testing.T) {
	c := defaultCategorizer()

	// HMF 1 mg/kg over the 40.0 ceiling: failed gate, minor margin.
	flags := allOK()
	flags.HMFOK = false
	rec := c.Categorize(scoredRecord(99.4, types.Measurements{
		Moisture: 17.5, PH: 5.0, DiastaseActivity: 8.0, HMF: 41.0,
	}, flags))

	assert.Equal(t, types.StatusWarning, rec.ComplianceStatus)
}

func TestCategorize_HMFBeyondDoubleCeilingIsNonCompliant(t *testing.T) {
	c := defaultCategorizer()

	flags := allOK()
	flags.HMFOK = false
	rec := c.Categorize(scoredRecord(50.0, types.Measurements{
		Moisture: 17.5, PH: 5.0, DiastaseActivity: 8.0, HMF: 81.0,
	}, flags))

	assert.Equal(t, types.StatusNonCompliant, rec.ComplianceStatus)
}

func TestCategorize_MoistureWithinSeverityMarginIsWarning(t *testing.T) {
	c := defaultCategorizer()

	// Band is [15,20] with a 2.0 severity margin: 21.5 is minor.
	flags := allOK()
	flags.MoistureOK = false
	rec := c.Categorize(scoredRecord(60.0, types.Measurements{
		Moisture: 21.5, PH: 5.0, DiastaseActivity: 8.0, HMF: 40.0,
	}, flags))

	assert.Equal(t, types.StatusWarning, rec.ComplianceStatus)
}

func TestCategorize_MoistureBeyondSeverityMarginIsNonCompliant(t *testing.T) {
	c := defaultCategorizer()

	flags := allOK()
	flags.MoistureOK = false
	rec := c.Categorize(scoredRecord(60.0, types.Measurements{
		Moisture: 23.0, PH: 5.0, DiastaseActivity: 8.0, HMF: 40.0,
	}, flags))

	assert.Equal(t, types.StatusNonCompliant, rec.ComplianceStatus)
}

func TestCategorize_SeverityIgnoresPassingParameters(t *testing.T) {
	c := defaultCategorizer()

	// Diastase just below the floor (minor) while HMF is extreme but its
	// gate passed: only failing parameters are examined for severity.
	flags := allOK()
	flags.DiastaseOK = false
	rec := c.Categorize(scoredRecord(70.0, types.Measurements{
		Moisture: 17.5, PH: 5.0, DiastaseActivity: 7.0, HMF: 40.0,
	}, flags))

	assert.Equal(t, types.StatusWarning, rec.ComplianceStatus)
}

func TestCategorize_StatusNeverDependsOnScore(t *testing.T) {
	c := defaultCategorizer()

	m := types.Measurements{Moisture: 17.5, PH: 5.0, DiastaseActivity: 8.0, HMF: 40.0}
	low := c.Categorize(scoredRecord(1.0, m, allOK()))
	high := c.Categorize(scoredRecord(100.0, m, allOK()))

	assert.Equal(t, types.StatusCompliant, low.ComplianceStatus)
	assert.Equal(t, types.StatusCompliant, high.ComplianceStatus)
}
