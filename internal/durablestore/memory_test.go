package durablestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Load(ctx, "widgets", "a", &widget{})
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Save(ctx, "widgets", "a", widget{Name: "a", Count: 1}))

	var got widget
	ok, err = s.Load(ctx, "widgets", "a", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, widget{Name: "a", Count: 1}, got)
}

func TestMemoryStoreSaveIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	original := widget{Name: "a", Count: 1}
	require.NoError(t, s.Save(ctx, "widgets", "a", original))
	original.Count = 99

	var got widget
	_, err := s.Load(ctx, "widgets", "a", &got)
	require.NoError(t, err)
	require.Equal(t, 1, got.Count)
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Save(ctx, "widgets", "a", widget{Name: "a", Count: 1}))
	require.NoError(t, s.Save(ctx, "widgets", "b", widget{Name: "b", Count: 2}))

	all, err := s.List(ctx, "widgets", func() any { return &widget{} })
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, &widget{Name: "a", Count: 1}, all["a"])

	require.NoError(t, s.Delete(ctx, "widgets", "a"))
	all, err = s.List(ctx, "widgets", func() any { return &widget{} })
	require.NoError(t, err)
	require.Len(t, all, 1)
}
