package example

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"
)

type ExampleWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env        *testsuite.TestWorkflowEnvironment
	activities *Activities
}

func (s *ExampleWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.activities = &Activities{}
	Register(s.env, s.activities)
}

func (s *ExampleWorkflowTestSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
}

func TestExampleWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(ExampleWorkflowTestSuite))
}

func (s *ExampleWorkflowTestSuite) TestExampleWorkflow_RealActivities() {
	s.env.ExecuteWorkflow(ExampleWorkflow, "hello")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result string
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal("Processed: HELLO_PROCESSED", result)
}

func (s *ExampleWorkflowTestSuite) TestExampleWorkflow_ActivitySequence() {
	var calls []string

	s.env.OnActivity(s.activities.LogMessage, mock.Anything, "Starting workflow with input: mixed Case").
		Return(func(_ context.Context, _ string) error {
			calls = append(calls, "log-start")
			return nil
		}).Once()
	s.env.OnActivity(s.activities.ProcessData, mock.Anything, "mixed Case").
		Return(func(_ context.Context, data string) (string, error) {
			calls = append(calls, "process")
			return Transform(data), nil
		}).Once()
	s.env.OnActivity(s.activities.LogMessage, mock.Anything, "Workflow completed").
		Return(func(_ context.Context, _ string) error {
			calls = append(calls, "log-end")
			return nil
		}).Once()

	var timers []time.Duration
	s.env.SetOnTimerScheduledListener(func(_ string, duration time.Duration) {
		timers = append(timers, duration)
		calls = append(calls, "sleep")
	})

	s.env.ExecuteWorkflow(ExampleWorkflow, "mixed Case")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result string
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal("Processed: MIXED CASE_PROCESSED", result)
	s.Equal([]string{"log-start", "process", "sleep", "log-end"}, calls)
	s.Equal([]time.Duration{PauseDuration}, timers)
}

func (s *ExampleWorkflowTestSuite) TestExampleWorkflow_RetriesProcessData() {
	s.env.OnActivity(s.activities.ProcessData, mock.Anything, "retry").
		Return("", errors.New("transient failure")).Twice()
	s.env.OnActivity(s.activities.ProcessData, mock.Anything, "retry").
		Return("RETRY_PROCESSED", nil).Once()

	s.env.ExecuteWorkflow(ExampleWorkflow, "retry")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result string
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal("Processed: RETRY_PROCESSED", result)
}

func (s *ExampleWorkflowTestSuite) TestExampleWorkflow_FailsAfterMaximumAttempts() {
	s.env.OnActivity(s.activities.ProcessData, mock.Anything, "doomed").
		Return("", errors.New("permanent failure")).Times(ActivityMaximumAttempts)

	s.env.ExecuteWorkflow(ExampleWorkflow, "doomed")

	s.True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Error(err)
	s.Contains(err.Error(), "permanent failure")
}
