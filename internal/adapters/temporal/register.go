package temporal

import (
	"context"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Register adds the batch workflow and its activities to w.
func Register(w worker.Registry, a *Activities) {
	w.RegisterWorkflow(BatchWorkflow)
	w.RegisterActivityWithOptions(a.ListStarsActivity, activity.RegisterOptions{Name: ListStarsActivityName})
	w.RegisterActivityWithOptions(a.ExtractChunkActivity, activity.RegisterOptions{Name: ExtractChunkActivityName})
	w.RegisterActivityWithOptions(a.WriteMatrixActivity, activity.RegisterOptions{Name: WriteMatrixActivityName})
}

// StartBatch starts BatchWorkflow on taskQueue under a fresh workflow id.
func StartBatch(ctx context.Context, c client.Client, taskQueue string, in BatchInput) (client.WorkflowRun, error) {
	opts := client.StartWorkflowOptions{
		ID:        "exoscan-batch-" + uuid.NewString(),
		TaskQueue: taskQueue,
	}
	return c.ExecuteWorkflow(ctx, opts, BatchWorkflow, in)
}
