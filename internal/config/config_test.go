package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "etl_config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 17.5, cfg.Rules.Moisture.Target)
	assert.Equal(t, 8.0, cfg.Rules.Diastase.Floor)
	assert.Equal(t, 40.0, cfg.Rules.HMF.Ceiling)
	assert.Equal(t, 95.0, cfg.Categories.Premium)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"url": "postgres://localhost/honey", "table": "quality"},
		"categories": {"premium": 97, "excellent": 92, "good": 85, "fair": 75}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/honey", cfg.Database.URL)
	assert.Equal(t, "quality", cfg.Database.Table)
	assert.Equal(t, 97.0, cfg.Categories.Premium)
	// Untouched sections keep their defaults.
	assert.Equal(t, 17.5, cfg.Rules.Moisture.Target)
	assert.Equal(t, 0.25, cfg.Weights.HMF)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_SchemaRejectsUnknownProperty(t *testing.T) {
	path := writeConfig(t, `{"quality_rules": {}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match schema")
}

func TestLoad_SchemaRejectsWrongType(t *testing.T) {
	path := writeConfig(t, `{"weights": {"moisture": "heavy"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match schema")
}

func TestLoad_WeightsMustSumToOne(t *testing.T) {
	path := writeConfig(t, `{
		"weights": {"moisture": 0.5, "ph": 0.5, "diastase_activity": 0.5, "h_m_f": 0.5}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
}

func TestLoad_ThresholdsMustDescend(t *testing.T) {
	path := writeConfig(t, `{
		"categories": {"premium": 90, "excellent": 95, "good": 80, "fair": 70}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly descending")
}

func TestValidate_TargetOutsideBand(t *testing.T) {
	cfg := Default()
	cfg.Rules.Moisture.Target = 25.0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside band")
}

func TestValidate_InvertedBand(t *testing.T) {
	cfg := Default()
	cfg.Rules.PH.Min = 7.0
	cfg.Rules.PH.Max = 3.0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ph band min")
}

func TestValidate_NegativeSeverityMargin(t *testing.T) {
	cfg := Default()
	cfg.Rules.Moisture.SeverityMargin = -1.0

	assert.Error(t, cfg.Validate())
}
