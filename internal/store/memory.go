package store

import (
	"context"
	"sync"

	"github.com/srhoton/step-alb-poc/internal/types"
)

// MemoryStore is an in-process WidgetStore for tests. The change feed is
// recorded in order and readable via Changes / DrainChanges.
type MemoryStore struct {
	mu      sync.Mutex
	rows    map[string]map[string]types.Widget // widgetID -> state -> row
	changes []ChangeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]map[string]types.Widget)}
}

func (s *MemoryStore) Get(ctx context.Context, widgetID, state string) (*types.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.rows[widgetID][state]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *MemoryStore) Put(ctx context.Context, w types.Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(w)
	s.changes = append(s.changes, insertRecord(w))
	return nil
}

func (s *MemoryStore) Move(ctx context.Context, old, updated types.Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows[old.ID], old.State)
	s.put(updated)
	s.changes = append(s.changes, removeRecord(old), insertRecord(updated))
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, w types.Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows[w.ID], w.State)
	s.changes = append(s.changes, removeRecord(w))
	return nil
}

func (s *MemoryStore) Scan(ctx context.Context, widgetID string) ([]types.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var widgets []types.Widget
	for _, w := range s.rows[widgetID] {
		widgets = append(widgets, w)
	}
	return widgets, nil
}

func (s *MemoryStore) put(w types.Widget) {
	if s.rows[w.ID] == nil {
		s.rows[w.ID] = make(map[string]types.Widget)
	}
	s.rows[w.ID][w.State] = w
}

// Changes returns a copy of every change record emitted so far.
func (s *MemoryStore) Changes() []ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChangeRecord, len(s.changes))
	copy(out, s.changes)
	return out
}

// DrainChanges returns the recorded change records and clears the feed.
func (s *MemoryStore) DrainChanges() []ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.changes
	s.changes = nil
	return out
}
