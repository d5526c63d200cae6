package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

func TestNewStoreDefaults(t *testing.T) {
	store := NewStore()
	require.Equal(t, "Atlanta", store.Query())
	require.Equal(t, outfit.Preferences{
		ColdSensitivity: outfit.LevelMedium,
		Style:           outfit.StyleCasual,
		ActivityLevel:   outfit.LevelMedium,
		CarryUmbrella:   true,
	}, store.Preferences())
}

func TestStoreSettersNotify(t *testing.T) {
	store := NewStore()
	calls := 0
	store.OnChange(func() { calls++ })

	store.SetQuery("Seattle")
	store.SetStyle(outfit.StyleBusinessCasual)
	store.SetColdSensitivity(outfit.LevelHigh)
	store.SetActivityLevel(outfit.LevelLow)
	store.SetCarryUmbrella(false)

	require.Equal(t, 5, calls)
	require.Equal(t, "Seattle", store.Query())
	require.Equal(t, outfit.Preferences{
		ColdSensitivity: outfit.LevelHigh,
		Style:           outfit.StyleBusinessCasual,
		ActivityLevel:   outfit.LevelLow,
		CarryUmbrella:   false,
	}, store.Preferences())
}

func TestStoreAcceptsEmptyQuery(t *testing.T) {
	store := NewStore()
	store.SetQuery("")
	require.Empty(t, store.Query())
}

func TestStoreListenerMayReadStore(t *testing.T) {
	store := NewStore()
	var seen string
	store.OnChange(func() { seen = store.Query() })

	store.SetQuery("Denver")
	require.Equal(t, "Denver", seen)
}
