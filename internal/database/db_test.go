package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *ThresholdStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)

	store := NewThresholdStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestThresholdStoreRoundTrip(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	profile := "test-" + uuid.NewString()

	_, err := store.LoadEarThreshold(ctx, profile)
	assert.ErrorIs(t, err, ErrNoPreference)

	require.NoError(t, store.SaveEarThreshold(ctx, profile, 0.15))
	pref, err := store.LoadEarThreshold(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, profile, pref.Profile)
	assert.InDelta(t, 0.15, pref.EarThreshold, 1e-9)

	require.NoError(t, store.SaveEarThreshold(ctx, profile, 0.12))
	pref, err = store.LoadEarThreshold(ctx, profile)
	require.NoError(t, err)
	assert.InDelta(t, 0.12, pref.EarThreshold, 1e-9)
	assert.False(t, pref.UpdatedAt.IsZero())
}

func TestMigrateIsRepeatable(t *testing.T) {
	store := openTestDB(t)
	assert.NoError(t, Migrate(context.Background(), store.db))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_threshold_preferences.sql", entries[0].Name())
}
