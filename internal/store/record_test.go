package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srhoton/step-alb-poc/internal/types"
)

func TestInsertRecordCarriesTypedAttributes(t *testing.T) {
	rec := insertRecord(types.Widget{
		ID:           "w1",
		State:        types.StateNew,
		TransitionAt: 1704110400,
		CreatedAt:    1704106800,
	})

	assert.Equal(t, EventInsert, rec.EventName)
	assert.Nil(t, rec.OldImage, "inserts carry no old image")

	pk, ok := rec.NewImage.String("PK")
	require.True(t, ok)
	assert.Equal(t, "w1", pk)
	sk, ok := rec.NewImage.String("SK")
	require.True(t, ok)
	assert.Equal(t, "new", sk)
	ta, ok := rec.NewImage.Number("transitionAt")
	require.True(t, ok)
	assert.Equal(t, "1704110400", ta)
	_, ok = rec.NewImage.Number("updatedAt")
	assert.False(t, ok, "updatedAt present on a row that was never updated")
}

func TestChangeRecordWireFormat(t *testing.T) {
	rec := insertRecord(types.Widget{ID: "w1", State: "new", TransitionAt: 42})
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	img, ok := decoded["newImage"].(map[string]any)
	require.True(t, ok, "newImage missing: %s", raw)
	assert.Equal(t, map[string]any{"S": "w1"}, img["PK"])
	assert.Equal(t, map[string]any{"N": "42"}, img["transitionAt"])

	var round ChangeRecord
	require.NoError(t, json.Unmarshal(raw, &round))
	ta, ok := round.NewImage.Number("transitionAt")
	require.True(t, ok)
	assert.Equal(t, "42", ta)
}

func TestImageAccessorsRejectWrongType(t *testing.T) {
	img := Image{
		"PK":           {S: "w1"},
		"transitionAt": {N: "42"},
	}
	_, ok := img.Number("PK")
	assert.False(t, ok, "Number returned a string attribute")
	_, ok = img.String("transitionAt")
	assert.False(t, ok, "String returned a numeric attribute")
	_, ok = img.String("missing")
	assert.False(t, ok, "String returned an absent attribute")
}

func TestMemoryStoreMoveReplacesRowAndEmitsBothEvents(t *testing.T) {
	mem := NewMemoryStore()
	ctx := context.Background()

	old := types.Widget{ID: "w1", State: types.StateNew, TransitionAt: 10, CreatedAt: 1}
	require.NoError(t, mem.Put(ctx, old))
	updated := types.Widget{ID: "w1", State: types.StateInProgress, TransitionAt: 20, CreatedAt: 1, UpdatedAt: 2}
	require.NoError(t, mem.Move(ctx, old, updated))

	changes := mem.Changes()
	require.Len(t, changes, 3, "want INSERT + REMOVE + INSERT")
	assert.Equal(t, EventRemove, changes[1].EventName)
	assert.Equal(t, EventInsert, changes[2].EventName)
	sk, _ := changes[2].NewImage.String("SK")
	assert.Equal(t, types.StateInProgress, sk)
}
