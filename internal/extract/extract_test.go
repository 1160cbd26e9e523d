package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFromFile_UnsupportedExtension(t *testing.T) {
	_, err := FromFile("measurements.xlsx")

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Contains(t, srcErr.Error(), "unsupported file format")
}

func TestCSVSource_ReadsRecords(t *testing.T) {
	path := writeFile(t, "batch.csv",
		"batch_id,sample_id,moisture,ph,diastase_activity,h_m_f,collection_date,lab_id,analyst,region\n"+
			"BATCH_001,SAMPLE_000001,17.5,5.0,9.2,30.1,2024-01-15,LAB_A,Analyst_1,North\n"+
			"BATCH_001,SAMPLE_000002,18.1,4.8,8.4,35.0,2024-01-16,LAB_B,Analyst_2,South\n")

	src := &CSVSource{Path: path}
	records, err := src.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "BATCH_001", records[0].BatchID)
	assert.Equal(t, "SAMPLE_000001", records[0].SampleID)
	assert.Equal(t, "17.5", records[0].Moisture)
	assert.Equal(t, "North", records[0].Region)
	assert.Equal(t, "Analyst_2", records[1].Analyst)
}

func TestCSVSource_ColumnOrderDoesNotMatter(t *testing.T) {
	path := writeFile(t, "batch.csv",
		"region,ph,batch_id,sample_id,moisture\n"+
			"West,5.1,BATCH_002,SAMPLE_000009,16.0\n")

	src := &CSVSource{Path: path}
	records, err := src.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "BATCH_002", records[0].BatchID)
	assert.Equal(t, "5.1", records[0].PH)
	assert.Equal(t, "West", records[0].Region)
	// Absent columns come through empty; the validator rejects them later.
	assert.Empty(t, records[0].HMF)
}

func TestCSVSource_RaggedRowsPassThrough(t *testing.T) {
	path := writeFile(t, "batch.csv",
		"batch_id,sample_id,moisture\n"+
			"BATCH_003,SAMPLE_000010\n")

	src := &CSVSource{Path: path}
	records, err := src.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "BATCH_003", records[0].BatchID)
	assert.Empty(t, records[0].Moisture)
}

func TestCSVSource_EmptyFile(t *testing.T) {
	path := writeFile(t, "batch.csv", "")

	src := &CSVSource{Path: path}
	_, err := src.Extract(context.Background())

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Contains(t, srcErr.Error(), "source is empty")
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := &CSVSource{Path: filepath.Join(t.TempDir(), "nope.csv")}
	_, err := src.Extract(context.Background())

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
}

func TestJSONLSource_NumbersAndStringsBothExtract(t *testing.T) {
	path := writeFile(t, "batch.jsonl",
		`{"batch_id":"BATCH_001","sample_id":"SAMPLE_000001","moisture":17.5,"ph":"5.0","diastase_activity":9,"h_m_f":30.1,"collection_date":"2024-01-15","lab_id":"LAB_A","analyst":"Analyst_1","region":"North"}`+"\n"+
			`{"batch_id":"BATCH_001","sample_id":"SAMPLE_000002","moisture":"18.1"}`+"\n")

	src := &JSONLSource{Path: path}
	records, err := src.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "17.5", records[0].Moisture)
	assert.Equal(t, "5.0", records[0].PH)
	assert.Equal(t, "9", records[0].DiastaseActivity)
	assert.Equal(t, "18.1", records[1].Moisture)
	assert.Empty(t, records[1].PH)
}

func TestJSONLSource_MalformedLine(t *testing.T) {
	path := writeFile(t, "batch.jsonl", `{"batch_id": truncated`)

	src := &JSONLSource{Path: path}
	_, err := src.Extract(context.Background())

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &CSVSource{Path: "unused.csv"}
	_, err := src.Extract(ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateSample_DeterministicAndRoundTrips(t *testing.T) {
	first := GenerateSample(10, 42)
	second := GenerateSample(10, 42)
	assert.Equal(t, first, second)

	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, WriteSampleCSV(path, first))

	src := &CSVSource{Path: path}
	records, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, records)
}
