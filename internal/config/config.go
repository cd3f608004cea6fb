package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// SourceConfig describes a single ICS subscription source.
type SourceConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for logging and cache keying.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// ProgramCode maps a long-form program-name substring to its short code.
// Entries are applied in order; the first matching entry wins.
type ProgramCode struct {
	Name string `yaml:"name" json:"name"`
	Code string `yaml:"code" json:"code"`
}

// KeywordSlot maps a moment-text keyword to a fixed time-of-day slot.
// Start/End are "HH:MM" clock times in the configured timezone.
type KeywordSlot struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Start   string `yaml:"start" json:"start"`
	End     string `yaml:"end" json:"end"`
}

// NotionConfig names the database properties used when creating tasks.
// The API key and database ID are deliberately environment-only (see Env)
// so credentials never end up in the config file.
type NotionConfig struct {
	TitleProperty string `yaml:"title_property" json:"title_property"`
	DateProperty  string `yaml:"date_property" json:"date_property"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the calendar surface.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone all resolved times are expressed in
	// (e.g. "Europe/Stockholm").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/30 * * * *")
	// driving periodic task sync in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Primary is the list of primary ICS sources whose events are cleaned
	// and republished.
	Primary []SourceConfig `yaml:"primary" json:"primary"`

	// Secondary, if non-nil, is an authoritative second calendar consulted
	// only to recover missing time-of-day information.
	Secondary *SourceConfig `yaml:"secondary,omitempty" json:"secondary,omitempty"`

	// IncludeCodes, when non-empty, keeps only events whose raw summary
	// contains at least one of these codes verbatim. Empty means keep
	// everything not excluded.
	IncludeCodes []string `yaml:"include_codes" json:"include_codes"`

	// ExcludeCodes drops events whose raw summary contains any of these
	// codes verbatim.
	ExcludeCodes []string `yaml:"exclude_codes" json:"exclude_codes"`

	// ExcludeMarkers drops events whose raw summary contains any of these
	// bracketed tags, e.g. "[BMA152 HT24]".
	ExcludeMarkers []string `yaml:"exclude_markers" json:"exclude_markers"`

	// NoiseTokens are literal administrative labels stripped from
	// summaries before field extraction.
	NoiseTokens []string `yaml:"noise_tokens" json:"noise_tokens"`

	// PreferredCode wins when a summary lists several course codes.
	PreferredCode string `yaml:"preferred_code" json:"preferred_code"`

	// ProgramCodes is the ordered long-form-name fallback table, used only
	// when no code token appears in the summary.
	ProgramCodes []ProgramCode `yaml:"program_codes" json:"program_codes"`

	// KeywordSlots assigns fixed time slots to date-only events by moment
	// keyword; first match wins.
	KeywordSlots []KeywordSlot `yaml:"keyword_slots" json:"keyword_slots"`

	// RemoteKeywords mark an event as remote when found (case-insensitive)
	// in its location or description; RemotePrefix is then prepended to the
	// title unless already present.
	RemoteKeywords []string `yaml:"remote_keywords" json:"remote_keywords"`
	RemotePrefix   string   `yaml:"remote_prefix" json:"remote_prefix"`

	// CacheDir is the base directory for the ICS fetch cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// StatePath is the persisted synced-key-set file.
	StatePath string `yaml:"state_path" json:"state_path"`

	// Notion configures the task sink property names.
	Notion NotionConfig `yaml:"notion" json:"notion"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:8080",
		Timezone:       "Europe/Stockholm",
		RefreshCron:    "*/30 * * * *",
		Primary:        []SourceConfig{},
		IncludeCodes:   []string{},
		ExcludeCodes:   []string{},
		ExcludeMarkers: []string{},
		NoiseTokens:    []string{},
		ProgramCodes:   []ProgramCode{},
		KeywordSlots:   []KeywordSlot{},
		RemoteKeywords: []string{"zoom"},
		RemotePrefix:   "Zoom ",
		CacheDir:       "/var/lib/kurskal/ics-cache",
		StatePath:      "/var/lib/kurskal/synced.json",
		Notion: NotionConfig{
			TitleProperty: "Name",
			DateProperty:  "Due",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Stockholm"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.Primary == nil {
		c.Primary = []SourceConfig{}
	}
	if c.IncludeCodes == nil {
		c.IncludeCodes = []string{}
	}
	if c.ExcludeCodes == nil {
		c.ExcludeCodes = []string{}
	}
	if c.ExcludeMarkers == nil {
		c.ExcludeMarkers = []string{}
	}
	if c.NoiseTokens == nil {
		c.NoiseTokens = []string{}
	}
	if c.ProgramCodes == nil {
		c.ProgramCodes = []ProgramCode{}
	}
	if c.KeywordSlots == nil {
		c.KeywordSlots = []KeywordSlot{}
	}
	if c.RemoteKeywords == nil {
		c.RemoteKeywords = []string{"zoom"}
	}
	if c.RemotePrefix == "" {
		c.RemotePrefix = "Zoom "
	}
	if c.CacheDir == "" {
		c.CacheDir = "/var/lib/kurskal/ics-cache"
	}
	if c.StatePath == "" {
		c.StatePath = "/var/lib/kurskal/synced.json"
	}
	if c.Notion.TitleProperty == "" {
		c.Notion.TitleProperty = "Name"
	}
	if c.Notion.DateProperty == "" {
		c.Notion.DateProperty = "Due"
	}
}

// Location resolves the configured timezone, falling back to time.Local
// when the name is empty or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".kurskal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
