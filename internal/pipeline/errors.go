package pipeline

import "fmt"

// InvariantError marks a defensive condition that should never occur with
// correct wiring, such as the scorer receiving an invalid record. It is
// surfaced loudly as a failed run, never swallowed.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Detail)
}
