package example

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
)

// Registry is the subset of worker.Worker (and the test environments) used
// for registration.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register registers ExampleWorkflow and the activities of a with r.
func Register(r Registry, a *Activities) {
	r.RegisterWorkflowWithOptions(ExampleWorkflow, workflow.RegisterOptions{Name: WorkflowName})
	r.RegisterActivityWithOptions(a, activity.RegisterOptions{})
}
