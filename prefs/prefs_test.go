package prefs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/kvstore"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("quota exceeded")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("quota exceeded") }
func (brokenStore) Remove(context.Context, string) error      { return errors.New("quota exceeded") }

func TestFavorites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := NewFavorites(kvstore.NewMemory())

	assert.Empty(t, f.List(ctx))
	require.NoError(t, f.Add(ctx, "a"))
	require.NoError(t, f.Add(ctx, "b"))
	require.NoError(t, f.Add(ctx, "a"))
	assert.Equal(t, []string{"a", "b"}, f.List(ctx))
	assert.True(t, f.Contains(ctx, "b"))
	assert.Equal(t, map[string]bool{"a": true, "b": true}, f.Set(ctx))

	on, err := f.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.False(t, on)
	on, err = f.Toggle(ctx, "c")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"b", "c"}, f.List(ctx))

	require.NoError(t, f.Remove(ctx, "missing"))
	require.NoError(t, f.Clear(ctx))
	assert.Empty(t, f.List(ctx))
}

func TestFavorites_CorruptValueReadsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, FavoritesKey, "not json"))
	f := NewFavorites(store)

	assert.Empty(t, f.List(ctx))
	require.NoError(t, f.Add(ctx, "a"))
	assert.Equal(t, []string{"a"}, f.List(ctx))
}

func TestRecents_OrderAndBound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRecents(store, WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))

	for i := range MaxRecents + 5 {
		require.NoError(t, r.Add(ctx, fmt.Sprintf("t%d", i)))
	}
	ids := r.List(ctx)
	require.Len(t, ids, MaxRecents)
	assert.Equal(t, "t24", ids[0])
	assert.Equal(t, "t5", ids[MaxRecents-1])
	assert.False(t, r.Contains(ctx, "t4"))

	require.NoError(t, r.Add(ctx, "t10"))
	ids = r.List(ctx)
	assert.Equal(t, "t10", ids[0])
	assert.Len(t, ids, MaxRecents)
	assert.Equal(t, 0, r.Rank(ctx)["t10"])
	assert.Equal(t, 1, r.Rank(ctx)["t24"])

	require.NoError(t, r.Clear(ctx))
	assert.Empty(t, r.List(ctx))
}

func TestRecents_SortsStoredItemsByTimestamp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, RecentsKey, `[{"templateId":"old","timestamp":1},{"templateId":"new","timestamp":3},{"templateId":"mid","timestamp":2}]`))

	assert.Equal(t, []string{"new", "mid", "old"}, NewRecents(store).List(ctx))
}

func TestVariables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()
	v := NewVariables(store)

	assert.Equal(t, map[string]string{}, v.Get(ctx, "tpl1"))
	require.NoError(t, v.Save(ctx, "tpl1", map[string]string{"code": "x := 1"}))
	require.NoError(t, v.Update(ctx, "tpl1", "lang", "go"))
	assert.Equal(t, map[string]string{"code": "x := 1", "lang": "go"}, v.Get(ctx, "tpl1"))

	raw, ok, err := store.Get(ctx, "template-variables-tpl1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"code":"x := 1","lang":"go"}`, raw)

	require.NoError(t, v.Update(ctx, "tpl2", "topic", "go"))
	require.NoError(t, store.Set(ctx, "unrelated", "keep"))
	require.NoError(t, v.Clear(ctx, "tpl1"))
	assert.Empty(t, v.Get(ctx, "tpl1"))
	assert.Equal(t, map[string]string{"topic": "go"}, v.Get(ctx, "tpl2"))

	require.NoError(t, v.ClearAll(ctx))
	assert.Empty(t, v.Get(ctx, "tpl2"))
	_, ok, err = store.Get(ctx, "unrelated")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewProfile(kvstore.NewMemory())

	assert.Empty(t, p.Get(ctx))
	assert.Equal(t, "body", p.Prepend(ctx, "body"))

	require.NoError(t, p.Save(ctx, "Senior engineer"))
	assert.Equal(t, "Senior engineer", p.Get(ctx))
	assert.Equal(t, "# Your Profile\nSenior engineer\n\n\nbody", p.Prepend(ctx, "body"))

	require.NoError(t, p.Save(ctx, "   \n"))
	assert.Equal(t, "body", p.Prepend(ctx, "body"))

	require.NoError(t, p.Clear(ctx))
	assert.Empty(t, p.Get(ctx))
}

func TestBrokenStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := NewFavorites(brokenStore{})
	assert.Empty(t, f.List(ctx))
	require.ErrorIs(t, f.Add(ctx, "a"), promptstash.ErrStorage)

	r := NewRecents(brokenStore{})
	assert.Empty(t, r.List(ctx))
	require.ErrorIs(t, r.Add(ctx, "a"), promptstash.ErrStorage)

	v := NewVariables(brokenStore{})
	assert.Empty(t, v.Get(ctx, "x"))
	require.Error(t, v.ClearAll(ctx))

	p := NewProfile(brokenStore{})
	assert.Empty(t, p.Get(ctx))
	assert.Equal(t, "body", p.Prepend(ctx, "body"))
	require.ErrorIs(t, p.Clear(ctx), promptstash.ErrStorage)
}

func TestNew_NilStorePanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewFavorites(nil) })
}
