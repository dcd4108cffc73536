package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchyIsStrictlyOrdered(t *testing.T) {
	all := All()
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Level, all[i-1].Level, "levels must be unique and ascending")
	}
	assert.Greater(t, all[0].Level, LevelNone)
}

func TestLookup(t *testing.T) {
	t.Run("known level", func(t *testing.T) {
		info, ok := Lookup(LevelEditor)
		require.True(t, ok)
		assert.Equal(t, "Editor", info.Name)
		assert.Equal(t, "Manage all content and media", info.Description)
		assert.Equal(t, BadgeDefault, info.Badge)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, ok := Lookup(Level(42))
		assert.False(t, ok)
		assert.Equal(t, "No description available", Description(Level(42)))
		assert.Empty(t, Name(Level(42)))
	})
}

func TestByNameIsCaseInsensitive(t *testing.T) {
	info, ok := ByName(" superadmin ")
	require.True(t, ok)
	assert.Equal(t, LevelSuperAdmin, info.Level)

	_, ok = ByName("owner")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Name = "mutated"
	assert.Equal(t, "Guest", All()[0].Name)
}

func TestBelowIsStrict(t *testing.T) {
	below := Below(LevelEditor)
	require.Len(t, below, 3)
	for _, info := range below {
		assert.Less(t, info.Level, LevelEditor)
	}
	assert.Empty(t, Below(LevelGuest))
}
