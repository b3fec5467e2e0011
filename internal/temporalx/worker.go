package temporalx

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/temporalx/transition"
	"github.com/srhoton/step-alb-poc/internal/utils"
)

// Runner hosts the transition workflow and its advance activity on the
// configured task queue.
type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	acts *transition.Activities
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, acts *transition.Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil {
		return nil, fmt.Errorf("transition activities required")
	}
	return &Runner{log: log, tc: tc, acts: acts}, nil
}

// Run blocks until ctx is canceled or the worker fails.
func (r *Runner) Run(ctx context.Context) error {
	cfg := LoadConfig()

	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, r.log)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	w.RegisterWorkflowWithOptions(transition.Workflow, workflow.RegisterOptions{Name: transition.WorkflowName})
	w.RegisterActivityWithOptions(r.acts.Advance, activity.RegisterOptions{Name: transition.ActivityAdvance})

	if r.log != nil {
		r.log.Info("Starting Temporal worker", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start temporal worker: %w", err)
	}
	<-ctx.Done()
	w.Stop()
	return ctx.Err()
}
