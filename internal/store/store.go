package store

import (
	"context"

	"github.com/srhoton/step-alb-poc/internal/types"
)

// WidgetStore is the key/value adapter holding one row per
// (widget ID, state) pair. Put and Move publish the matching change records
// on the store's change feed; consumers see an INSERT for every new row.
type WidgetStore interface {
	// Get returns the row keyed (widgetID, state), or nil when absent.
	Get(ctx context.Context, widgetID, state string) (*types.Widget, error)

	// Put writes a row and emits an INSERT change record.
	Put(ctx context.Context, w types.Widget) error

	// Move replaces the row for old with updated in a single transaction:
	// delete the old key, write the new key, emit REMOVE then INSERT.
	Move(ctx context.Context, old, updated types.Widget) error

	// Delete removes the row for w and emits REMOVE.
	Delete(ctx context.Context, w types.Widget) error

	// Scan returns every row for the identity regardless of state. A healthy
	// widget has exactly one; more than one indicates an external actor error.
	Scan(ctx context.Context, widgetID string) ([]types.Widget, error)
}
