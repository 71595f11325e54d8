package pipeline

import (
	"fmt"
	"time"
)

// DiscoveryError marks a failed catalog page fetch. The scan recovers and
// continues with the next page.
type DiscoveryError struct {
	Page int
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: page %d: %v", e.Page, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// DispatchError marks a rejected pipeline start request. Fatal for the
// affected document only; never retried automatically.
type DispatchError struct {
	DocumentID string
	Err        error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: document %s: %v", e.DocumentID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// StreamError marks a mid-stream failure or malformed terminal event.
type StreamError struct {
	DocumentID string
	Err        error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream: document %s: %v", e.DocumentID, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// TimeoutError marks a job that produced no terminal event within the
// absolute deadline.
type TimeoutError struct {
	DocumentID string
	After      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: document %s: no terminal event within %s", e.DocumentID, e.After)
}

// RepairError marks a failed repair request. Fatal for that repair only; the
// repair batch continues.
type RepairError struct {
	DocumentID string
	Err        error
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("repair: document %s: %v", e.DocumentID, e.Err)
}

func (e *RepairError) Unwrap() error { return e.Err }
