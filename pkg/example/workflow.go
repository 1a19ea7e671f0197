// Package example holds the sample workflow and its activities.
//
// The workflow is deterministic glue: every side effect happens inside an
// activity executed by a Temporal worker, and the pause between steps is a
// Temporal timer, so replays reproduce the same command sequence.
package example

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// TaskQueue is the default queue the worker polls and the service starts on.
	TaskQueue = "example-task-queue"

	// WorkflowName is the registered workflow type name.
	WorkflowName = "ExampleWorkflow"

	// ResultPrefix is prepended to the processed value by the workflow.
	ResultPrefix = "Processed: "
)

// Workflow timing. Changing these changes the command sequence of running
// executions, so version the workflow before touching them.
const (
	ActivityStartToCloseTimeout = 5 * time.Minute
	ActivityMaximumAttempts     = 3
	PauseDuration               = 2 * time.Second
)

// ActivityOptions returns the options every activity of the workflow runs with.
func ActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: ActivityStartToCloseTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: ActivityMaximumAttempts,
		},
	}
}

// ExampleWorkflow logs, transforms the input through ProcessData, pauses and
// returns the composed result.
func ExampleWorkflow(ctx workflow.Context, input string) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("🚀 ExampleWorkflow starting", "input", input)

	ctx = workflow.WithActivityOptions(ctx, ActivityOptions())

	// nil receiver: only the method reference is needed to resolve the activity name
	var a *Activities

	if err := workflow.ExecuteActivity(ctx, a.LogMessage, "Starting workflow with input: "+input).Get(ctx, nil); err != nil {
		logger.Error("❌ LogMessage activity failed", "error", err)
		return "", err
	}

	var processed string
	if err := workflow.ExecuteActivity(ctx, a.ProcessData, input).Get(ctx, &processed); err != nil {
		logger.Error("❌ ProcessData activity failed", "error", err)
		return "", err
	}

	logger.Info("🌙 Pausing before completion", "duration", PauseDuration)
	if err := workflow.Sleep(ctx, PauseDuration); err != nil {
		return "", err
	}

	if err := workflow.ExecuteActivity(ctx, a.LogMessage, "Workflow completed").Get(ctx, nil); err != nil {
		logger.Error("❌ LogMessage activity failed", "error", err)
		return "", err
	}

	result := ResultPrefix + processed
	logger.Info("✅ ExampleWorkflow completed", "result", result)
	return result, nil
}
