package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/honey-quality-etl/internal/config"
	"github.com/jonathan/honey-quality-etl/internal/sink"
	"github.com/jonathan/honey-quality-etl/internal/types"
)

// stubSource serves a fixed batch or a canned failure.
type stubSource struct {
	records []types.RawRecord
	err     error
}

func (s *stubSource) Extract(ctx context.Context) ([]types.RawRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

// failingSink rejects every load.
type failingSink struct{}

func (failingSink) Load(ctx context.Context, batchKey string, records []types.CategorizedRecord) error {
	return &sink.LoadError{BatchKey: batchKey, Message: "connection refused", Retryable: true}
}

func rawRecord(i int, ph string) types.RawRecord {
	return types.RawRecord{
		BatchID:          "BATCH_001",
		SampleID:         fmt.Sprintf("SAMPLE_%06d", i),
		Moisture:         "17.5",
		PH:               ph,
		DiastaseActivity: "10.0",
		HMF:              "25.0",
		CollectionDate:   "2024-01-15",
		LabID:            "LAB_A",
		Analyst:          "Analyst_1",
		Region:           "North",
	}
}

func batchWithBadPH(total, bad int) []types.RawRecord {
	records := make([]types.RawRecord, 0, total)
	for i := 0; i < total; i++ {
		ph := "5.0"
		if i < bad {
			ph = "16.2"
		}
		records = append(records, rawRecord(i+1, ph))
	}
	return records
}

func newPipeline(t *testing.T, src *stubSource, snk sink.Sink) *Pipeline {
	t.Helper()
	p, err := New(Options{
		Config:     config.Default(),
		Source:     src,
		Sink:       snk,
		BatchKey:   "batch-2024-01",
		SourcePath: "lab_results.csv",
	})
	require.NoError(t, err)
	return p
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Weights.Moisture = 0.9 // weights no longer sum to one

	_, err := New(Options{
		Config:   cfg,
		Source:   &stubSource{},
		Sink:     sink.NewMemory(),
		BatchKey: "batch",
	})
	require.Error(t, err)
}

func TestNew_RequiresWiring(t *testing.T) {
	base := Options{
		Config:   config.Default(),
		Source:   &stubSource{},
		Sink:     sink.NewMemory(),
		BatchKey: "batch",
	}

	missingSource := base
	missingSource.Source = nil
	_, err := New(missingSource)
	assert.ErrorContains(t, err, "source is required")

	missingSink := base
	missingSink.Sink = nil
	_, err = New(missingSink)
	assert.ErrorContains(t, err, "sink is required")

	missingBatch := base
	missingBatch.BatchKey = ""
	_, err = New(missingBatch)
	assert.ErrorContains(t, err, "batch key is required")
}

func TestRun_AllValidSucceeds(t *testing.T) {
	mem := sink.NewMemory()
	p := newPipeline(t, &stubSource{records: batchWithBadPH(10, 0)}, mem)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.RunSucceeded, report.Status)
	assert.Equal(t, 10, report.Extracted)
	assert.Equal(t, 10, report.Valid)
	assert.Equal(t, 0, report.Invalid)
	assert.Equal(t, 10, report.Scored)
	assert.Equal(t, 10, report.Loaded)
	assert.Empty(t, report.Rejections)
	assert.Equal(t, 10, mem.Len("batch-2024-01"))
	assert.Equal(t, StateSucceeded, p.State())
}

func TestRun_InvalidRecordsPartiallySucceed(t *testing.T) {
	mem := sink.NewMemory()
	p := newPipeline(t, &stubSource{records: batchWithBadPH(10, 2)}, mem)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.RunPartiallySucceeded, report.Status)
	assert.Equal(t, 10, report.Extracted)
	assert.Equal(t, 8, report.Valid)
	assert.Equal(t, 2, report.Invalid)
	assert.Equal(t, 8, report.Loaded)
	assert.Equal(t, 2, report.Rejections["ph out of range [0,14]"])
	assert.Equal(t, 8, mem.Len("batch-2024-01"))
	assert.Equal(t, StatePartiallySucceeded, p.State())
}

func TestRun_SourceFailureLoadsNothing(t *testing.T) {
	mem := sink.NewMemory()
	p := newPipeline(t, &stubSource{err: errors.New("connection timed out")}, mem)

	report, err := p.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, types.RunFailed, report.Status)
	assert.Contains(t, report.FailureCause, "extraction failed")
	assert.Equal(t, 0, report.Extracted)
	assert.Equal(t, 0, report.Loaded)
	assert.Equal(t, 0, mem.Len("batch-2024-01"))
	assert.Equal(t, StateFailed, p.State())
}

func TestRun_SinkFailureFailsRun(t *testing.T) {
	p := newPipeline(t, &stubSource{records: batchWithBadPH(5, 0)}, failingSink{})

	report, err := p.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, types.RunFailed, report.Status)
	assert.Contains(t, report.FailureCause, "batch load failed")
	assert.Equal(t, 5, report.Extracted)
	assert.Equal(t, 5, report.Valid)
	assert.Equal(t, 0, report.Loaded)

	var loadErr *sink.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestRun_ReloadIsIdempotent(t *testing.T) {
	mem := sink.NewMemory()
	src := &stubSource{records: batchWithBadPH(10, 0)}

	first := newPipeline(t, src, mem)
	_, err := first.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, mem.Len("batch-2024-01"))

	second := newPipeline(t, src, mem)
	report, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, report.Loaded)
	assert.Equal(t, 10, mem.Len("batch-2024-01"), "reloading the same batch must not duplicate records")
}

func TestRun_EmitsStatesInOrder(t *testing.T) {
	var states []State
	p, err := New(Options{
		Config:     config.Default(),
		Source:     &stubSource{records: batchWithBadPH(3, 1)},
		Sink:       sink.NewMemory(),
		BatchKey:   "batch-2024-01",
		OnProgress: func(event ProgressEvent) { states = append(states, event.State) },
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateExtracting,
		StateValidating,
		StateScoring,
		StateCategorizing,
		StateLoading,
	}, states)
}

func TestRun_ReportCarriesRunIdentity(t *testing.T) {
	p := newPipeline(t, &stubSource{records: batchWithBadPH(1, 0)}, sink.NewMemory())

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.RunID.String())
	assert.Equal(t, "batch-2024-01", report.BatchKey)
	assert.Equal(t, "lab_results.csv", report.SourcePath)
	assert.False(t, report.StartedAt.IsZero())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.GreaterOrEqual(t, report.Duration().Seconds(), 0.0)
}

func TestRun_CancelledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mem := sink.NewMemory()
	p := newPipeline(t, &stubSource{records: batchWithBadPH(4, 0)}, mem)

	report, err := p.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, types.RunFailed, report.Status)
	assert.Equal(t, 0, mem.Len("batch-2024-01"))
}

func TestParallelMap_PreservesOrder(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}

	out, err := parallelMap(context.Background(), 8, in, func(v int) (int, error) {
		return v * 2, nil
	})
	require.NoError(t, err)

	for i, v := range out {
		require.Equal(t, i*2, v)
	}
}

func TestParallelMap_PanicBecomesInvariantError(t *testing.T) {
	_, err := parallelMap(context.Background(), 2, []int{1, 2, 3}, func(v int) (int, error) {
		if v == 2 {
			panic("scoring invariant violated")
		}
		return v, nil
	})

	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Detail, "scoring invariant violated")
}
