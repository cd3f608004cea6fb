package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kurskal/internal/config"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Europe/Stockholm", cfg.Timezone)
	assert.Equal(t, "Name", cfg.Notion.TitleProperty)

	// The default file was written with restrictive permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Listen = "0.0.0.0:9090"
	cfg.Primary = []config.SourceConfig{{ID: "schema", URL: "https://example.com/a.ics"}}
	cfg.Secondary = &config.SourceConfig{ID: "kronox", URL: "https://example.com/b.ics"}
	cfg.ExcludeCodes = []string{"BMA152"}
	cfg.PreferredCode = "BMA451"
	cfg.KeywordSlots = []config.KeywordSlot{{Keyword: "Laboratoriemedicin", Start: "08:30", End: "11:00"}}
	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Listen, got.Listen)
	assert.Equal(t, cfg.Primary, got.Primary)
	assert.Equal(t, cfg.Secondary, got.Secondary)
	assert.Equal(t, cfg.ExcludeCodes, got.ExcludeCodes)
	assert.Equal(t, cfg.PreferredCode, got.PreferredCode)
	assert.Equal(t, cfg.KeywordSlots, got.KeywordSlots)
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Europe/Stockholm", cfg.Timezone)
	assert.Equal(t, "*/30 * * * *", cfg.RefreshCron)
	assert.Equal(t, []string{"zoom"}, cfg.RemoteKeywords)
	assert.Equal(t, "Zoom ", cfg.RemotePrefix)
	assert.Equal(t, "Due", cfg.Notion.DateProperty)
	assert.NotEmpty(t, cfg.StatePath)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	cfg := &config.Config{Timezone: "Not/AZone"}
	assert.Equal(t, "Local", cfg.Location().String())

	cfg.Timezone = "Europe/Stockholm"
	assert.Equal(t, "Europe/Stockholm", cfg.Location().String())
}
