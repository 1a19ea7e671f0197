package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is matched by every validation failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageDisabled is returned by ListExecutions when no storage
	// adapter is configured.
	ErrStorageDisabled = errors.New("execution storage is disabled")
)

const (
	msgBlankInput      = "Input cannot be null or empty"
	msgBlankWorkflowID = "Workflow ID cannot be null or empty"
)

// InvalidArgumentError carries a client facing validation message.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ExecutionError wraps a failed Temporal call.
type ExecutionError struct {
	Op    string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Failed to %s: %v", e.Op, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation names used in ExecutionError.Op.
const (
	OpExecute      = "execute workflow"
	OpExecuteAsync = "start async workflow"
	OpGetResult    = "get workflow result"
	OpDescribe     = "describe workflow"
)
