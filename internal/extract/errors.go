package extract

import "fmt"

// SourceError represents a failure to reach or parse a record source. Any
// SourceError aborts the run: partial extraction is never processed.
type SourceError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("source error: %s: %s", e.Path, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}
