package sink

import (
	"context"
	"sync"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Memory is an in-process sink keyed like the Postgres table: upsert by
// (batch_id, sample_id) within a batch key. It backs dry runs (no database
// configured) and tests.
type Memory struct {
	mu      sync.Mutex
	batches map[string]map[string]types.CategorizedRecord
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{batches: make(map[string]map[string]types.CategorizedRecord)}
}

// Load upserts every record under the batch key.
func (m *Memory) Load(ctx context.Context, batchKey string, records []types.CategorizedRecord) error {
	if err := ctx.Err(); err != nil {
		return &LoadError{BatchKey: batchKey, Message: "load cancelled", Retryable: true, Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.batches[batchKey]
	if !ok {
		rows = make(map[string]types.CategorizedRecord, len(records))
		m.batches[batchKey] = rows
	}
	for _, rec := range records {
		rows[rec.Raw.BatchID+"/"+rec.Raw.SampleID] = rec
	}
	return nil
}

// Rows returns the records stored under a batch key.
func (m *Memory) Rows(batchKey string) []types.CategorizedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]types.CategorizedRecord, 0, len(m.batches[batchKey]))
	for _, rec := range m.batches[batchKey] {
		rows = append(rows, rec)
	}
	return rows
}

// Len returns the number of rows stored under a batch key.
func (m *Memory) Len(batchKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches[batchKey])
}
