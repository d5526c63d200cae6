package recolog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

func TestMemoryRepositoryRecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepository(10)
	ctx := context.Background()
	for _, loc := range []string{"Atlanta", "Boston", "Chicago"} {
		require.NoError(t, repo.Append(ctx, outfit.LogEntry{ID: uuid.New(), Location: loc, Source: outfit.SourceRules}))
	}

	entries, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Chicago", entries[0].Location)
	require.Equal(t, "Boston", entries[1].Location)
}

func TestMemoryRepositoryCapacity(t *testing.T) {
	repo := NewMemoryRepository(2)
	ctx := context.Background()
	for _, loc := range []string{"Atlanta", "Boston", "Chicago"} {
		require.NoError(t, repo.Append(ctx, outfit.LogEntry{ID: uuid.New(), Location: loc}))
	}

	entries, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Chicago", entries[0].Location)
	require.Equal(t, "Boston", entries[1].Location)
}
