package config

import (
	"fmt"

	"github.com/caarlos0/env"
)

// Env holds secrets and overrides supplied out of band via environment
// variables. None are required at parse time; commands that need the
// Notion credentials validate them explicitly.
type Env struct {
	NotionAPIKey     string `env:"NOTION_API_KEY"`
	NotionDatabaseID string `env:"NOTION_DATABASE_ID"`

	// ICSURL, when set, replaces the configured primary sources with a
	// single source. Mirrors the original deployment where the feed URL
	// was environment-only.
	ICSURL string `env:"KURSKAL_ICS_URL"`
}

// LoadEnv parses environment variables into an Env.
func LoadEnv() (*Env, error) {
	e := &Env{}
	if err := env.Parse(e); err != nil {
		return nil, fmt.Errorf("error parsing environment variables %w", err)
	}
	return e, nil
}

// NotionConfigured reports whether both Notion credentials are present.
func (e *Env) NotionConfigured() bool {
	return e.NotionAPIKey != "" && e.NotionDatabaseID != ""
}
