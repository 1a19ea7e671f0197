package example

import (
	"context"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
)

const (
	// DefaultProcessDelay is the artificial processing time of ProcessData.
	DefaultProcessDelay = time.Second

	processedSuffix = "_PROCESSED"
)

// Activities implements the activity side of ExampleWorkflow.
// It is stateless; one value is shared by all activity tasks of a worker.
type Activities struct {
	// Delay simulates work inside ProcessData. Zero means no delay.
	Delay time.Duration
}

// NewActivities returns activities using DefaultProcessDelay.
func NewActivities() *Activities {
	return &Activities{Delay: DefaultProcessDelay}
}

// ProcessData upper-cases data and appends the processed suffix after Delay.
func (a *Activities) ProcessData(ctx context.Context, data string) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Processing data", "data", data)

	if a.Delay > 0 {
		timer := time.NewTimer(a.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return Transform(data), nil
}

// LogMessage writes message to the activity logger.
func (a *Activities) LogMessage(ctx context.Context, message string) error {
	activity.GetLogger(ctx).Info("Activity log: " + message)
	return nil
}

// Transform is the pure part of ProcessData.
func Transform(data string) string {
	return strings.ToUpper(data) + processedSuffix
}
