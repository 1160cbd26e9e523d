package extract

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

var (
	sampleLabs     = []string{"LAB_A", "LAB_B", "LAB_C"}
	sampleAnalysts = []string{"Analyst_1", "Analyst_2", "Analyst_3"}
	sampleRegions  = []string{"North", "South", "East", "West"}
)

// GenerateSample produces n deterministic demo records. Measurements are
// drawn uniformly from inside the compliance bands, so a demo run yields a
// fully compliant batch.
func GenerateSample(n int, seed int64) []types.RawRecord {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := make([]types.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, types.RawRecord{
			BatchID:          fmt.Sprintf("BATCH_%03d", i+1),
			SampleID:         fmt.Sprintf("SAMPLE_%06d", i+1),
			Moisture:         formatMeasurement(uniform(rng, 15.0, 20.0)),
			PH:               formatMeasurement(uniform(rng, 3.5, 6.5)),
			DiastaseActivity: formatMeasurement(uniform(rng, 8.0, 15.0)),
			HMF:              formatMeasurement(uniform(rng, 20.0, 40.0)),
			CollectionDate:   start.AddDate(0, 0, i).Format("2006-01-02"),
			LabID:            sampleLabs[rng.Intn(len(sampleLabs))],
			Analyst:          sampleAnalysts[rng.Intn(len(sampleAnalysts))],
			Region:           sampleRegions[rng.Intn(len(sampleRegions))],
		})
	}
	return records
}

// WriteSampleCSV writes demo records to a CSV file readable by CSVSource.
func WriteSampleCSV(path string, records []types.RawRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sample file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := []string{
		"batch_id", "sample_id", "moisture", "ph", "diastase_activity",
		"h_m_f", "collection_date", "lab_id", "analyst", "region",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write sample header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.BatchID, rec.SampleID, rec.Moisture, rec.PH, rec.DiastaseActivity,
			rec.HMF, rec.CollectionDate, rec.LabID, rec.Analyst, rec.Region,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write sample row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush sample file: %w", err)
	}
	return nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func formatMeasurement(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
