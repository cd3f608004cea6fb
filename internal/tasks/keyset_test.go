package tasks_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kurskal/internal/tasks"
)

func TestKeyDeterministic(t *testing.T) {
	start := time.Date(2025, 3, 13, 8, 30, 0, 0, time.UTC)

	assert.Equal(t, tasks.Key("BMA451: Hematologi", start), tasks.Key("BMA451: Hematologi", start))
	assert.NotEqual(t, tasks.Key("BMA451: Hematologi", start), tasks.Key("BMA451: Hematologi", start.Add(time.Hour)))
	assert.NotEqual(t, tasks.Key("BMA451: Hematologi", start), tasks.Key("BMA451: Tentamen", start))

	// Same instant in a different zone is the same logical event.
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	assert.Equal(t, tasks.Key("BMA451: Hematologi", start), tasks.Key("BMA451: Hematologi", start.In(loc)))
}

func TestKeySetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "synced.json")

	set, err := tasks.LoadKeySet(path)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	start := time.Date(2025, 3, 13, 8, 30, 0, 0, time.UTC)
	keyA := tasks.Key("BMA451: Hematologi", start)
	keyB := tasks.Key("BMA451: Tentamen", start)

	set.Add(keyA, tasks.KeyRecord{Title: "BMA451: Hematologi", Start: start, SyncedAt: time.Now().UTC()})
	set.Add(keyB, tasks.KeyRecord{Title: "BMA451: Tentamen", Start: start, SyncedAt: time.Now().UTC()})
	require.NoError(t, set.Save())

	// No key is lost or duplicated across a load/save cycle.
	reloaded, err := tasks.LoadKeySet(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.Has(keyA))
	assert.True(t, reloaded.Has(keyB))
	assert.False(t, reloaded.Has(tasks.Key("other", start)))

	require.NoError(t, reloaded.Save())
	again, err := tasks.LoadKeySet(path)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Len())
}
