package transition

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/srhoton/step-alb-poc/internal/services"
	"github.com/srhoton/step-alb-poc/internal/types"
)

func TestWorkflowAdvancesThroughBothStates(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	var calls []services.TransitionEvent
	env.RegisterActivityWithOptions(func(ctx context.Context, ev services.TransitionEvent) (services.CallbackResponse, error) {
		calls = append(calls, ev)
		return services.CallbackResponse{StatusCode: 200}, nil
	}, activity.RegisterOptions{Name: ActivityAdvance})

	transitionAt := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	env.ExecuteWorkflow(Workflow, Input{
		WidgetID:     "w1",
		State:        types.StateNew,
		TransitionAt: transitionAt.Format(time.RFC3339),
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	require.Len(t, calls, 2)
	doneAt := float64(transitionAt.Add(DefaultDelay).Unix())
	assert.Equal(t, "w1", calls[0].WidgetID)
	assert.Equal(t, types.StateInProgress, calls[0].Status)
	assert.Equal(t, doneAt, calls[0].TransitionAt)
	assert.Equal(t, types.StateDone, calls[1].Status)
	assert.Equal(t, doneAt, calls[1].TransitionAt)
}

func TestWorkflowRunsImmediatelyWhenTransitionAtPassed(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	var calls []services.TransitionEvent
	env.RegisterActivityWithOptions(func(ctx context.Context, ev services.TransitionEvent) (services.CallbackResponse, error) {
		calls = append(calls, ev)
		return services.CallbackResponse{StatusCode: 200}, nil
	}, activity.RegisterOptions{Name: ActivityAdvance})

	env.ExecuteWorkflow(Workflow, Input{
		WidgetID:     "w1",
		State:        types.StateNew,
		TransitionAt: "2020-01-01T00:00:00+00:00",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Len(t, calls, 2)
}

func TestWorkflowRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		input Input
	}{
		{name: "missing_widget_id", input: Input{TransitionAt: "2020-01-01T00:00:00Z"}},
		{name: "bad_timestamp", input: Input{WidgetID: "w1", TransitionAt: "not-a-time"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ts testsuite.WorkflowTestSuite
			env := ts.NewTestWorkflowEnvironment()
			env.RegisterActivityWithOptions(func(ctx context.Context, ev services.TransitionEvent) (services.CallbackResponse, error) {
				t.Error("activity invoked for invalid input")
				return services.CallbackResponse{}, nil
			}, activity.RegisterOptions{Name: ActivityAdvance})

			env.ExecuteWorkflow(Workflow, tc.input)
			require.True(t, env.IsWorkflowCompleted())
			assert.Error(t, env.GetWorkflowError())
		})
	}
}
