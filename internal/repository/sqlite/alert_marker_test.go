package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertMarkerStore_ClaimOncePerDate(t *testing.T) {
	ctx := context.Background()
	store, err := NewAlertMarkerStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.LastAlerted(ctx, "admin", "h1")
	require.NoError(t, err)
	assert.False(t, ok)

	claimed, err := store.Claim(ctx, "admin", "h1", "2024-12-25")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "admin", "h1", "2024-12-25")
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = store.Claim(ctx, "admin", "h2", "2024-12-25")
	require.NoError(t, err)
	assert.True(t, claimed, "markers are per holiday")

	claimed, err = store.Claim(ctx, "admin", "h1", "2025-12-25")
	require.NoError(t, err)
	assert.True(t, claimed, "a new date claims again")

	date, ok, err := store.LastAlerted(ctx, "admin", "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-12-25", date)
}

func TestAlertMarkerStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "markers.db")

	store, err := NewAlertMarkerStore(path)
	require.NoError(t, err)
	claimed, err := store.Claim(ctx, "admin", "h1", "2024-12-25")
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, store.Close())

	reopened, err := NewAlertMarkerStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	claimed, err = reopened.Claim(ctx, "admin", "h1", "2024-12-25")
	require.NoError(t, err)
	assert.False(t, claimed)
}
