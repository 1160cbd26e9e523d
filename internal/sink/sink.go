// Package sink persists finalized batches of categorized records.
//
// Every implementation commits a batch atomically and idempotently: loading
// the same batch key twice with identical content leaves the store
// unchanged, and a failed load leaves no partial batch visible.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Sink persists one finalized batch of records keyed by batch identity.
type Sink interface {
	Load(ctx context.Context, batchKey string, records []types.CategorizedRecord) error
}

// LoadError represents a failed batch load. Retryable signals connectivity
// loss: the caller may retry the whole batch. Constraint violations are not
// retryable for that batch.
type LoadError struct {
	BatchKey  string
	Message   string
	Retryable bool
	Cause     error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sink error: batch %s: %s: %v", e.BatchKey, e.Message, e.Cause)
	}
	return fmt.Sprintf("sink error: batch %s: %s", e.BatchKey, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is a load failure the caller may retry
// with the same batch.
func IsRetryable(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Retryable
}
