package types

// Widget lifecycle states. StateNew is the only state the create path
// writes; the other two arrive via the update path.
const (
	StateNew        = "new"
	StateInProgress = "in_progress"
	StateDone       = "done"
)

// transitions maps a current state to the states an update may move it to.
// Re-entering the current state is always allowed (manual rescheduling of
// transitionAt), so it is not listed here.
var transitions = map[string][]string{
	StateNew:        {StateInProgress},
	StateInProgress: {StateDone},
	StateDone:       {},
}

// CanTransition reports whether an update from current to next is legal.
func CanTransition(current, next string) bool {
	if current == next {
		return true
	}
	for _, allowed := range transitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Widget is one row of the store: the (ID, State) pair is the row key.
// CreatedAt/UpdatedAt are epoch seconds, zero when unset.
type Widget struct {
	ID           string
	State        string
	TransitionAt int64
	CreatedAt    int64
	UpdatedAt    int64
}

// View is the wire shape of a widget in API responses.
type View struct {
	Name         string `json:"name"`
	State        string `json:"state"`
	TransitionAt int64  `json:"transitionAt"`
	CreatedAt    *int64 `json:"createdAt,omitempty"`
	UpdatedAt    *int64 `json:"updatedAt,omitempty"`
}

func (w Widget) View() View {
	v := View{
		Name:         w.ID,
		State:        w.State,
		TransitionAt: w.TransitionAt,
	}
	if w.CreatedAt != 0 {
		created := w.CreatedAt
		v.CreatedAt = &created
	}
	if w.UpdatedAt != 0 {
		updated := w.UpdatedAt
		v.UpdatedAt = &updated
	}
	return v
}
