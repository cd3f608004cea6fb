package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kurskal/internal/clean"
	"kurskal/internal/config"
	"kurskal/internal/ics"
	"kurskal/internal/model"
)

// Pipeline wires fetch, parse and reconcile into one run-to-completion
// pass: fetch the primary sources (and the optional secondary), parse
// them into raw events and hand both sequences to the reconciler. A
// primary or secondary fetch/parse failure aborts the run with no
// partial output; the fetcher's disk cache already absorbs transient
// upstream hiccups.
type Pipeline struct {
	cfg     *config.Config
	loc     *time.Location
	fetcher *ics.Fetcher
	rec     *clean.Reconciler
	log     *logrus.Entry
}

// New builds a Pipeline from configuration. It fails fast on malformed
// static tables (bad clock strings) rather than at run time.
func New(cfg *config.Config, log *logrus.Entry) (*Pipeline, error) {
	loc := cfg.Location()

	cleanCfg, err := cleanConfig(cfg, loc)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		loc:     loc,
		fetcher: ics.NewFetcher(cfg.CacheDir, log),
		rec:     clean.NewReconciler(cleanCfg, log),
		log:     log,
	}, nil
}

// Run fetches and cleans the configured calendar feed.
func (p *Pipeline) Run(ctx context.Context) ([]model.CleanEvent, error) {
	if len(p.cfg.Primary) == 0 {
		return nil, errors.New("no primary sources configured")
	}

	primary := make([]model.RawEvent, 0)
	for _, sc := range p.cfg.Primary {
		events, err := p.fetchSource(ctx, sc)
		if err != nil {
			return nil, err
		}
		primary = append(primary, events...)
	}

	var secondary []model.RawEvent
	if p.cfg.Secondary != nil && p.cfg.Secondary.URL != "" {
		events, err := p.fetchSource(ctx, *p.cfg.Secondary)
		if err != nil {
			return nil, err
		}
		secondary = events
	}

	return p.rec.Reconcile(primary, secondary), nil
}

func (p *Pipeline) fetchSource(ctx context.Context, sc config.SourceConfig) ([]model.RawEvent, error) {
	src := ics.Source{ID: sourceID(sc), URL: sc.URL}

	res, err := p.fetcher.FetchOne(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", src.ID, err)
	}

	events, err := ics.ParseICS(src, res.Body, p.loc)
	if err != nil {
		return nil, fmt.Errorf("parse source %s: %w", src.ID, err)
	}

	p.log.WithFields(logrus.Fields{
		"id":          src.ID,
		"event_count": len(events),
		"from_cache":  res.FromCache,
	}).Info("source parsed")

	return events, nil
}

// sourceID picks a stable identifier for logging and cache keying.
func sourceID(sc config.SourceConfig) string {
	if sc.ID != "" {
		return sc.ID
	}
	if sc.Name != "" {
		return sc.Name
	}
	return sc.URL
}

// cleanConfig translates the YAML configuration into the reconciler's
// typed config.
func cleanConfig(cfg *config.Config, loc *time.Location) (clean.Config, error) {
	slotStrings := make([]clean.SlotString, 0, len(cfg.KeywordSlots))
	for _, ks := range cfg.KeywordSlots {
		slotStrings = append(slotStrings, clean.SlotString{
			Keyword: ks.Keyword,
			Start:   ks.Start,
			End:     ks.End,
		})
	}
	slots, err := clean.SlotsFromStrings(slotStrings)
	if err != nil {
		return clean.Config{}, fmt.Errorf("keyword slot table: %w", err)
	}

	programCodes := make([]clean.ProgramCode, 0, len(cfg.ProgramCodes))
	for _, pc := range cfg.ProgramCodes {
		programCodes = append(programCodes, clean.ProgramCode{Name: pc.Name, Code: pc.Code})
	}

	return clean.Config{
		IncludeCodes:   cfg.IncludeCodes,
		ExcludeCodes:   cfg.ExcludeCodes,
		ExcludeMarkers: cfg.ExcludeMarkers,
		Normalizer: clean.NormalizerConfig{
			NoiseTokens:   cfg.NoiseTokens,
			PreferredCode: cfg.PreferredCode,
			ProgramCodes:  programCodes,
		},
		Resolver: clean.ResolverConfig{
			Location: loc,
			Slots:    slots,
		},
		RemoteKeywords: cfg.RemoteKeywords,
		RemotePrefix:   cfg.RemotePrefix,
	}, nil
}
