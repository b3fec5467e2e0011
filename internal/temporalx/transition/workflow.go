package transition

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/srhoton/step-alb-poc/internal/services"
	"github.com/srhoton/step-alb-poc/internal/types"
)

// Workflow walks a widget through its remaining lifecycle: wait until
// transitionAt, advance to in_progress with the next checkpoint scheduled
// one delay later, wait again, advance to done.
func Workflow(ctx workflow.Context, in Input) error {
	if strings.TrimSpace(in.WidgetID) == "" {
		return fmt.Errorf("transition: missing widget_id")
	}
	transitionAt, err := time.Parse(time.RFC3339, in.TransitionAt)
	if err != nil {
		return fmt.Errorf("transition: invalid transitionAt %q: %w", in.TransitionAt, err)
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        30 * time.Second,
			BackoffCoefficient:     1.0,
			MaximumInterval:        30 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{"ValidationError"},
		},
	})

	if err := sleepUntil(ctx, transitionAt); err != nil {
		return err
	}

	// The done step lands one delay after in_progress; its timestamp rides
	// along so the done row records when the transition happened.
	doneAt := transitionAt.Add(DefaultDelay)

	var res services.CallbackResponse
	err = workflow.ExecuteActivity(ctx, ActivityAdvance, services.TransitionEvent{
		WidgetID:     in.WidgetID,
		Status:       types.StateInProgress,
		TransitionAt: float64(doneAt.Unix()),
	}).Get(ctx, &res)
	if err != nil {
		return err
	}

	if err := sleepUntil(ctx, doneAt); err != nil {
		return err
	}

	return workflow.ExecuteActivity(ctx, ActivityAdvance, services.TransitionEvent{
		WidgetID:     in.WidgetID,
		Status:       types.StateDone,
		TransitionAt: float64(doneAt.Unix()),
	}).Get(ctx, &res)
}

func sleepUntil(ctx workflow.Context, t time.Time) error {
	d := t.Sub(workflow.Now(ctx))
	if d <= 0 {
		return nil
	}
	return workflow.Sleep(ctx, d)
}
