// Package service starts ExampleWorkflow executions on Temporal and fetches
// their results on behalf of the HTTP layer.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/bo-socayo/temporal-sandbox/pkg/events"
	"github.com/bo-socayo/temporal-sandbox/pkg/example"
	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
	"github.com/bo-socayo/temporal-sandbox/pkg/telemetry"
)

// DefaultExecutionTimeout bounds a whole workflow execution.
const DefaultExecutionTimeout = 10 * time.Minute

// Metric operation labels.
const (
	metricExecute      = "execute"
	metricExecuteAsync = "execute_async"
	metricGetResult    = "get_result"
	metricDescribe     = "describe"
	metricList         = "list"
)

// Recorder persists execution records.
type Recorder interface {
	StoreExecutionRecord(ctx context.Context, record *storage.ExecutionRecord) error
	ListExecutionRecords(ctx context.Context, limit int) ([]storage.ExecutionRecord, error)
}

// ResultCache holds results of completed workflows.
type ResultCache interface {
	Get(ctx context.Context, workflowID string) (string, bool, error)
	Set(ctx context.Context, workflowID, result string) error
}

// EventPublisher emits workflow lifecycle events.
type EventPublisher interface {
	PublishWorkflowEvent(ctx context.Context, eventType events.EventType, workflowID, runID string, payload any) error
}

// Options configures a WorkflowClientService. Every collaborator is optional.
type Options struct {
	TaskQueue        string
	ExecutionTimeout time.Duration
	IDs              *IDGenerator

	Recorder  Recorder
	Cache     ResultCache
	Publisher EventPublisher
	Metrics   *telemetry.Metrics
}

// WorkflowStatus is the describe view of one execution.
type WorkflowStatus struct {
	WorkflowID   string     `json:"workflow_id"`
	RunID        string     `json:"run_id"`
	WorkflowType string     `json:"workflow_type"`
	TaskQueue    string     `json:"task_queue"`
	Status       string     `json:"status"`
	Mode         string     `json:"mode,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	CloseTime    *time.Time `json:"close_time,omitempty"`
}

// WorkflowClientService wraps a Temporal client.
type WorkflowClientService struct {
	client client.Client
	opts   Options
}

// NewWorkflowClientService fills unset options with defaults.
func NewWorkflowClientService(c client.Client, opts Options) *WorkflowClientService {
	if opts.TaskQueue == "" {
		opts.TaskQueue = example.TaskQueue
	}
	if opts.ExecutionTimeout <= 0 {
		opts.ExecutionTimeout = DefaultExecutionTimeout
	}
	if opts.IDs == nil {
		opts.IDs = NewIDGenerator()
	}
	return &WorkflowClientService{client: c, opts: opts}
}

func (s *WorkflowClientService) startOptions(workflowID string) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                s.opts.TaskQueue,
		WorkflowExecutionTimeout: s.opts.ExecutionTimeout,
	}
}

// ExecuteWorkflow starts ExampleWorkflow and blocks until it returns.
func (s *WorkflowClientService) ExecuteWorkflow(ctx context.Context, input string) (string, error) {
	if isBlank(input) {
		s.opts.Metrics.ObserveWorkflowOperation(metricExecute, telemetry.OutcomeRejected)
		return "", &InvalidArgumentError{Message: msgBlankInput}
	}

	workflowID := s.opts.IDs.BuildWorkflowID(false)
	logger := zerolog.Ctx(ctx).With().Str("workflow_id", workflowID).Logger()
	logger.Info().Msg("starting workflow")

	run, err := s.client.ExecuteWorkflow(ctx, s.startOptions(workflowID), example.WorkflowName, input)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start workflow")
		s.opts.Metrics.ObserveWorkflowOperation(metricExecute, telemetry.OutcomeFailure)
		s.record(ctx, workflowID, "", storage.ModeSync, storage.StatusFailed, input, "", err)
		return "", &ExecutionError{Op: OpExecute, Cause: err}
	}
	s.publish(ctx, events.WorkflowStarted, workflowID, run.GetRunID(), map[string]string{"input": input})

	var result string
	if err := run.Get(ctx, &result); err != nil {
		logger.Error().Err(err).Msg("workflow failed")
		s.opts.Metrics.ObserveWorkflowOperation(metricExecute, telemetry.OutcomeFailure)
		s.record(ctx, workflowID, run.GetRunID(), storage.ModeSync, storage.StatusFailed, input, "", err)
		s.publish(ctx, events.WorkflowFailed, workflowID, run.GetRunID(), map[string]string{"error": err.Error()})
		return "", &ExecutionError{Op: OpExecute, Cause: err}
	}

	logger.Info().Str("run_id", run.GetRunID()).Msg("workflow completed")
	s.opts.Metrics.ObserveWorkflowOperation(metricExecute, telemetry.OutcomeSuccess)
	s.record(ctx, workflowID, run.GetRunID(), storage.ModeSync, storage.StatusCompleted, input, result, nil)
	s.publish(ctx, events.WorkflowCompleted, workflowID, run.GetRunID(), map[string]string{"result": result})
	s.cacheResult(ctx, workflowID, result)
	return result, nil
}

// ExecuteWorkflowAsync starts ExampleWorkflow and returns its workflow ID
// without waiting.
func (s *WorkflowClientService) ExecuteWorkflowAsync(ctx context.Context, input string) (string, error) {
	if isBlank(input) {
		s.opts.Metrics.ObserveWorkflowOperation(metricExecuteAsync, telemetry.OutcomeRejected)
		return "", &InvalidArgumentError{Message: msgBlankInput}
	}

	workflowID := s.opts.IDs.BuildWorkflowID(true)
	logger := zerolog.Ctx(ctx).With().Str("workflow_id", workflowID).Logger()

	run, err := s.client.ExecuteWorkflow(ctx, s.startOptions(workflowID), example.WorkflowName, input)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start async workflow")
		s.opts.Metrics.ObserveWorkflowOperation(metricExecuteAsync, telemetry.OutcomeFailure)
		s.record(ctx, workflowID, "", storage.ModeAsync, storage.StatusFailed, input, "", err)
		return "", &ExecutionError{Op: OpExecuteAsync, Cause: err}
	}

	logger.Info().Str("run_id", run.GetRunID()).Msg("async workflow started")
	s.opts.Metrics.ObserveWorkflowOperation(metricExecuteAsync, telemetry.OutcomeSuccess)
	s.record(ctx, workflowID, run.GetRunID(), storage.ModeAsync, storage.StatusStarted, input, "", nil)
	s.publish(ctx, events.WorkflowStarted, workflowID, run.GetRunID(), map[string]string{"input": input})
	return run.GetID(), nil
}

// GetWorkflowResult blocks until the latest run of workflowID completes.
// Cached results are returned without contacting Temporal.
func (s *WorkflowClientService) GetWorkflowResult(ctx context.Context, workflowID string) (string, error) {
	if isBlank(workflowID) {
		s.opts.Metrics.ObserveWorkflowOperation(metricGetResult, telemetry.OutcomeRejected)
		return "", &InvalidArgumentError{Message: msgBlankWorkflowID}
	}

	logger := zerolog.Ctx(ctx).With().Str("workflow_id", workflowID).Logger()

	if s.opts.Cache != nil {
		result, ok, err := s.opts.Cache.Get(ctx, workflowID)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("result cache lookup failed")
		case ok:
			logger.Debug().Msg("result served from cache")
			s.opts.Metrics.ObserveWorkflowOperation(metricGetResult, telemetry.OutcomeCacheHit)
			return result, nil
		}
	}

	run := s.client.GetWorkflow(ctx, workflowID, "")

	var result string
	if err := run.Get(ctx, &result); err != nil {
		logger.Error().Err(err).Msg("failed to get workflow result")
		s.opts.Metrics.ObserveWorkflowOperation(metricGetResult, telemetry.OutcomeFailure)
		s.record(ctx, workflowID, run.GetRunID(), storage.ModeResult, storage.StatusFailed, "", "", err)
		return "", &ExecutionError{Op: OpGetResult, Cause: err}
	}

	s.opts.Metrics.ObserveWorkflowOperation(metricGetResult, telemetry.OutcomeSuccess)
	s.record(ctx, workflowID, run.GetRunID(), storage.ModeResult, storage.StatusCompleted, "", result, nil)
	s.cacheResult(ctx, workflowID, result)
	return result, nil
}

// DescribeWorkflow reports the status of the latest run of workflowID.
func (s *WorkflowClientService) DescribeWorkflow(ctx context.Context, workflowID string) (*WorkflowStatus, error) {
	if isBlank(workflowID) {
		s.opts.Metrics.ObserveWorkflowOperation(metricDescribe, telemetry.OutcomeRejected)
		return nil, &InvalidArgumentError{Message: msgBlankWorkflowID}
	}

	resp, err := s.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("workflow_id", workflowID).Msg("failed to describe workflow")
		s.opts.Metrics.ObserveWorkflowOperation(metricDescribe, telemetry.OutcomeFailure)
		return nil, &ExecutionError{Op: OpDescribe, Cause: err}
	}
	s.opts.Metrics.ObserveWorkflowOperation(metricDescribe, telemetry.OutcomeSuccess)

	info := resp.GetWorkflowExecutionInfo()
	status := &WorkflowStatus{
		WorkflowID:   info.GetExecution().GetWorkflowId(),
		RunID:        info.GetExecution().GetRunId(),
		WorkflowType: info.GetType().GetName(),
		TaskQueue:    info.GetTaskQueue(),
		Status:       info.GetStatus().String(),
		StartTime:    timeOf(info.GetStartTime()),
		CloseTime:    timeOf(info.GetCloseTime()),
	}
	if status.WorkflowID == "" {
		status.WorkflowID = workflowID
	}
	if _, async, err := ParseWorkflowID(status.WorkflowID); err == nil {
		status.Mode = string(storage.ModeSync)
		if async {
			status.Mode = string(storage.ModeAsync)
		}
	}
	return status, nil
}

// ListExecutions returns recent execution records, newest first.
func (s *WorkflowClientService) ListExecutions(ctx context.Context, limit int) ([]storage.ExecutionRecord, error) {
	if s.opts.Recorder == nil {
		return nil, ErrStorageDisabled
	}
	records, err := s.opts.Recorder.ListExecutionRecords(ctx, storage.NormalizeLimit(limit))
	if err != nil {
		s.opts.Metrics.ObserveWorkflowOperation(metricList, telemetry.OutcomeFailure)
		return nil, fmt.Errorf("list executions: %w", err)
	}
	s.opts.Metrics.ObserveWorkflowOperation(metricList, telemetry.OutcomeSuccess)
	return records, nil
}

func (s *WorkflowClientService) record(ctx context.Context, workflowID, runID string, mode storage.Mode, status storage.Status, input, result string, cause error) {
	if s.opts.Recorder == nil {
		return
	}
	record := &storage.ExecutionRecord{
		WorkflowID: workflowID,
		RunID:      runID,
		Mode:       mode,
		Status:     status,
		Input:      input,
		Result:     result,
		RecordedAt: time.Now().UTC(),
	}
	if cause != nil {
		record.Error = cause.Error()
	}
	if err := s.opts.Recorder.StoreExecutionRecord(ctx, record); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("workflow_id", workflowID).Msg("failed to store execution record")
	}
}

func (s *WorkflowClientService) publish(ctx context.Context, eventType events.EventType, workflowID, runID string, payload any) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.PublishWorkflowEvent(ctx, eventType, workflowID, runID, payload); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("workflow_id", workflowID).Str("event", string(eventType)).Msg("failed to publish workflow event")
	}
}

func (s *WorkflowClientService) cacheResult(ctx context.Context, workflowID, result string) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.Set(ctx, workflowID, result); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("workflow_id", workflowID).Msg("failed to cache workflow result")
	}
}

func timeOf(ts *timestamppb.Timestamp) *time.Time {
	if ts == nil || !ts.IsValid() {
		return nil
	}
	t := ts.AsTime()
	return &t
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
