package transition

import (
	"context"
	"net/http"

	"go.temporal.io/sdk/temporal"

	"github.com/srhoton/step-alb-poc/internal/apierr"
	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/services"
)

// Activities hosts the callback side of the workflow: the advance step is
// the Workflow Callback Service invoked on the engine's schedule.
type Activities struct {
	Log      *logger.Logger
	Callback *services.CallbackService
}

// Advance validates the event and re-issues the widget update downstream.
// Validation failures are non-retryable; upstream faults keep their status
// so the engine's retry policy can act on them.
func (a *Activities) Advance(ctx context.Context, ev services.TransitionEvent) (services.CallbackResponse, error) {
	if a == nil || a.Callback == nil {
		return services.CallbackResponse{}, temporal.NewNonRetryableApplicationError("advance activity not configured", "ConfigurationError", nil)
	}

	res, err := a.Callback.Handle(ctx, ev)
	if err != nil {
		if ae, ok := apierr.As(err); ok && ae.Status == http.StatusBadRequest {
			return services.CallbackResponse{}, temporal.NewNonRetryableApplicationError(ae.Error(), "ValidationError", err)
		}
		if a.Log != nil {
			a.Log.Error("Advance failed", "widget_id", ev.WidgetID, "status", ev.Status, "error", err)
		}
		return services.CallbackResponse{}, err
	}
	return res, nil
}
