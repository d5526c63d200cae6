package geocache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherwear/internal/domain/weather"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "atlanta")
	require.NoError(t, err)
	require.False(t, ok)

	place := weather.Place{Name: "Atlanta", DisplayName: "Atlanta, Georgia", Latitude: 33.7, Longitude: -84.4}
	require.NoError(t, store.Put(ctx, "atlanta", place, time.Hour))

	got, ok, err := store.Get(ctx, "atlanta")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, place, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "paris", weather.Place{Name: "Paris"}, time.Minute))
	now = now.Add(2 * time.Minute)

	_, ok, err := store.Get(ctx, "paris")
	require.NoError(t, err)
	require.False(t, ok)
}
