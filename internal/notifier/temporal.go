package notifier

import (
	"context"
	"fmt"
	"strings"

	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/temporalx"
	"github.com/srhoton/step-alb-poc/internal/utils"
)

type temporalStarter struct {
	log          *logger.Logger
	tc           temporalsdkclient.Client
	taskQueue    string
	workflowName string
}

// NewTemporalStarter wires workflow starts at the configured task queue.
// TRANSITION_WORKFLOW names the workflow type to start; its absence is a
// configuration fault, not a per-record one.
func NewTemporalStarter(baseLog *logger.Logger, tc temporalsdkclient.Client) (WorkflowStarter, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client required")
	}
	workflowName, err := utils.RequireEnv("TRANSITION_WORKFLOW")
	if err != nil {
		return nil, err
	}

	cfg := temporalx.LoadConfig()
	tq := strings.TrimSpace(cfg.TaskQueue)
	if tq == "" {
		tq = "widget-transitions"
	}

	var log *logger.Logger
	if baseLog != nil {
		log = baseLog.With("starter", "TemporalWorkflowStarter", "task_queue", tq)
	}
	return &temporalStarter{log: log, tc: tc, taskQueue: tq, workflowName: workflowName}, nil
}

func (s *temporalStarter) StartExecution(ctx context.Context, name string, input WorkflowInput) (string, error) {
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        name,
		TaskQueue: s.taskQueue,
		// One execution per insert: the deterministic name plus duplicate
		// rejection keeps redelivered feed entries from fanning out.
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}

	run, err := s.tc.ExecuteWorkflow(ctx, opts, s.workflowName, input)
	if err != nil {
		return "", fmt.Errorf("failed to start workflow execution: %w", err)
	}

	if s.log != nil {
		s.log.Info("Started workflow execution", "workflow_id", name, "run_id", run.GetRunID())
	}
	return run.GetRunID(), nil
}
