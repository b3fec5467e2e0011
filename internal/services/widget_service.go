package services

import (
	"context"
	"time"

	"github.com/srhoton/step-alb-poc/internal/apierr"
	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/store"
	"github.com/srhoton/step-alb-poc/internal/types"
)

// DefaultTransitionDelay is how far in the future a newly created widget is
// scheduled to leave the "new" state.
const DefaultTransitionDelay = time.Hour

// WidgetService is the CRUD core. Expected failures come back as
// *apierr.Error; anything else is a store fault the handler reports
// generically.
type WidgetService interface {
	Create(ctx context.Context, widgetID string) (types.View, error)
	Read(ctx context.Context, widgetID string) (types.View, error)
	Update(ctx context.Context, widgetID, newState string, newTransitionAt int64) (types.View, error)
	Delete(ctx context.Context, widgetID string) error
}

type widgetService struct {
	log   *logger.Logger
	store store.WidgetStore
	delay time.Duration
	now   func() time.Time
}

func NewWidgetService(baseLog *logger.Logger, st store.WidgetStore, delay time.Duration) WidgetService {
	if delay <= 0 {
		delay = DefaultTransitionDelay
	}
	var log *logger.Logger
	if baseLog != nil {
		log = baseLog.With("service", "WidgetService")
	}
	return &widgetService{log: log, store: st, delay: delay, now: time.Now}
}

func (s *widgetService) Create(ctx context.Context, widgetID string) (types.View, error) {
	existing, err := s.store.Get(ctx, widgetID, types.StateNew)
	if err != nil {
		return types.View{}, err
	}
	if existing != nil {
		return types.View{}, apierr.Conflict("Widget '%s' already exists", widgetID)
	}

	now := s.now().Unix()
	w := types.Widget{
		ID:           widgetID,
		State:        types.StateNew,
		TransitionAt: now + int64(s.delay/time.Second),
		CreatedAt:    now,
	}
	if err := s.store.Put(ctx, w); err != nil {
		return types.View{}, err
	}

	if s.log != nil {
		s.log.Info("Created widget", "widget_id", widgetID, "transition_at", w.TransitionAt)
	}
	return w.View(), nil
}

func (s *widgetService) Read(ctx context.Context, widgetID string) (types.View, error) {
	rows, err := s.store.Scan(ctx, widgetID)
	if err != nil {
		return types.View{}, err
	}
	if len(rows) == 0 {
		return types.View{}, apierr.NotFound("Widget '%s' not found", widgetID)
	}
	// Should only be one row, but handle gracefully.
	return rows[0].View(), nil
}

func (s *widgetService) Update(ctx context.Context, widgetID, newState string, newTransitionAt int64) (types.View, error) {
	rows, err := s.store.Scan(ctx, widgetID)
	if err != nil {
		return types.View{}, err
	}
	if len(rows) == 0 {
		return types.View{}, apierr.NotFound("Widget '%s' not found", widgetID)
	}
	current := rows[0]

	if !types.CanTransition(current.State, newState) {
		return types.View{}, apierr.Validation("Illegal state transition from '%s' to '%s'", current.State, newState)
	}

	now := s.now().Unix()
	updated := types.Widget{
		ID:           widgetID,
		State:        newState,
		TransitionAt: newTransitionAt,
		CreatedAt:    current.CreatedAt,
		UpdatedAt:    now,
	}
	if updated.CreatedAt == 0 {
		updated.CreatedAt = now
	}
	if err := s.store.Move(ctx, current, updated); err != nil {
		return types.View{}, err
	}

	if s.log != nil {
		s.log.Info("Updated widget", "widget_id", widgetID, "from", current.State, "to", newState)
	}
	view := updated.View()
	view.CreatedAt = nil
	return view, nil
}

func (s *widgetService) Delete(ctx context.Context, widgetID string) error {
	rows, err := s.store.Scan(ctx, widgetID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return apierr.NotFound("Widget '%s' not found", widgetID)
	}
	// Delete every row found: defensive cleanup for the multi-row anomaly.
	for _, row := range rows {
		if err := s.store.Delete(ctx, row); err != nil {
			return err
		}
	}

	if s.log != nil {
		s.log.Info("Deleted widget", "widget_id", widgetID, "rows", len(rows))
	}
	return nil
}
