package transition

import "time"

const (
	WorkflowName    = "widget_transition"
	ActivityAdvance = "advance_widget"

	// DefaultDelay separates the in_progress and done steps, mirroring the
	// delay the create path schedules for leaving "new".
	DefaultDelay = time.Hour
)

// Input is the execution input the change notifier starts a workflow with.
// TransitionAt is ISO-8601.
type Input struct {
	WidgetID     string `json:"widget_id"`
	State        string `json:"state"`
	TransitionAt string `json:"transitionAt"`
}
