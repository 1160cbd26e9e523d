package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of one pipeline run.
type RunStatus string

const (
	RunSucceeded          RunStatus = "succeeded"
	RunPartiallySucceeded RunStatus = "partially_succeeded"
	RunFailed             RunStatus = "failed"
)

// RunReport is the single source of truth for what happened during one
// pipeline invocation. It is created at run start, finalized exactly once at
// run end, and consumed read-only by monitoring; callers must not infer
// success from the absence of an error alone.
type RunReport struct {
	RunID      uuid.UUID `json:"run_id"`
	SourcePath string    `json:"source_path"`
	BatchKey   string    `json:"batch_key"`

	Extracted int `json:"extracted"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Scored    int `json:"scored"`
	Loaded    int `json:"loaded"`

	// Rejections tallies invalid records by reason string.
	Rejections map[string]int `json:"rejections,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status       RunStatus `json:"status"`
	FailureCause string    `json:"failure_cause,omitempty"`
}

// Duration returns the wall-clock span of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
