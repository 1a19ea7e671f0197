package storage

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrMissingWorkflowID = errors.New("workflow_id is required")
	ErrInvalidMode       = errors.New("mode must be one of sync, async, result")
	ErrInvalidStatus     = errors.New("status must be one of started, completed, failed")
	ErrMissingRecordedAt = errors.New("recorded_at is required")
)

// Mode is the service operation that produced a record.
type Mode string

const (
	ModeSync   Mode = "sync"
	ModeAsync  Mode = "async"
	ModeResult Mode = "result"
)

// Status is the outcome observed by the service when the record was written.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ExecutionRecord is an append-only audit row for one observation of a
// workflow execution made through the service. Temporal stays the source
// of truth for the execution itself.
type ExecutionRecord struct {
	ID         int64     `json:"id" db:"id"`
	WorkflowID string    `json:"workflow_id" db:"workflow_id"`
	RunID      string    `json:"run_id,omitempty" db:"run_id"`
	Mode       Mode      `json:"mode" db:"mode"`
	Status     Status    `json:"status" db:"status"`
	Input      string    `json:"input,omitempty" db:"input"`
	Result     string    `json:"result,omitempty" db:"result"`
	Error      string    `json:"error,omitempty" db:"error"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// Validate checks if the record has all required fields
func (r *ExecutionRecord) Validate() error {
	if r.WorkflowID == "" {
		return ErrMissingWorkflowID
	}
	switch r.Mode {
	case ModeSync, ModeAsync, ModeResult:
	default:
		return ErrInvalidMode
	}
	switch r.Status {
	case StatusStarted, StatusCompleted, StatusFailed:
	default:
		return ErrInvalidStatus
	}
	if r.RecordedAt.IsZero() {
		return ErrMissingRecordedAt
	}
	return nil
}
