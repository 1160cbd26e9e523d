package sink

import (
	"context"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Multi fans a batch out to several sinks in order, stopping at the first
// failure. Each underlying sink keeps its own atomicity guarantee; a
// failure in a later sink does not roll back earlier ones, which is safe
// because every sink is idempotent and the caller retries the whole batch.
type Multi []Sink

// Load loads the batch into every sink.
func (m Multi) Load(ctx context.Context, batchKey string, records []types.CategorizedRecord) error {
	for _, s := range m {
		if err := s.Load(ctx, batchKey, records); err != nil {
			return err
		}
	}
	return nil
}
