package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srhoton/step-alb-poc/internal/types"
)

func newTestRedisStore(t *testing.T) WidgetStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st, err := NewRedisStore(nil, rdb, "widgets")
	require.NoError(t, err)
	return st
}

func TestRedisStorePutGetRoundTrip(t *testing.T) {
	st := newTestRedisStore(t)
	ctx := context.Background()

	w := types.Widget{ID: "w1", State: types.StateNew, TransitionAt: 100, CreatedAt: 50}
	require.NoError(t, st.Put(ctx, w))

	got, err := st.Get(ctx, "w1", types.StateNew)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, w, *got)

	absent, err := st.Get(ctx, "w1", types.StateDone)
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestRedisStoreIsolatesColonBearingIDs(t *testing.T) {
	st := newTestRedisStore(t)
	ctx := context.Background()

	// IDs are opaque strings; "a" must never see "a:b"'s rows even though
	// "widgets:a:" is a key prefix of both.
	require.NoError(t, st.Put(ctx, types.Widget{ID: "a", State: types.StateNew, TransitionAt: 1}))
	require.NoError(t, st.Put(ctx, types.Widget{ID: "a:b", State: types.StateNew, TransitionAt: 2}))

	rows, err := st.Scan(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, types.StateNew, rows[0].State)
	assert.Equal(t, int64(1), rows[0].TransitionAt)

	rows, err = st.Scan(ctx, "a:b")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a:b", rows[0].ID)
	assert.Equal(t, int64(2), rows[0].TransitionAt)

	// Deleting "a" leaves "a:b" untouched.
	require.NoError(t, st.Delete(ctx, types.Widget{ID: "a", State: types.StateNew}))
	rows, err = st.Scan(ctx, "a:b")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRedisStoreScanTreatsGlobMetacharactersLiterally(t *testing.T) {
	st := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, types.Widget{ID: "ab", State: types.StateNew, TransitionAt: 1}))
	require.NoError(t, st.Put(ctx, types.Widget{ID: "a*", State: types.StateNew, TransitionAt: 2}))

	rows, err := st.Scan(ctx, "a*")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a*", rows[0].ID)

	rows, err = st.Scan(ctx, "a?")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRedisStoreMoveReplacesRowAtomically(t *testing.T) {
	st := newTestRedisStore(t)
	ctx := context.Background()

	old := types.Widget{ID: "w1", State: types.StateNew, TransitionAt: 10, CreatedAt: 5}
	require.NoError(t, st.Put(ctx, old))

	updated := types.Widget{ID: "w1", State: types.StateInProgress, TransitionAt: 20, CreatedAt: 5, UpdatedAt: 15}
	require.NoError(t, st.Move(ctx, old, updated))

	gone, err := st.Get(ctx, "w1", types.StateNew)
	require.NoError(t, err)
	assert.Nil(t, gone)

	rows, err := st.Scan(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, updated, rows[0])
}

func TestEscapeMatch(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a*b", want: `a\*b`},
		{in: "a?[b]^c", want: `a\?\[b\]\^c`},
		{in: `back\slash`, want: `back\\slash`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, escapeMatch(tc.in), "escapeMatch(%q)", tc.in)
	}
}
