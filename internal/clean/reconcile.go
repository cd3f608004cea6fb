package clean

import (
	"strings"

	"github.com/sirupsen/logrus"

	"kurskal/internal/model"
)

// Config bundles the static inputs of a reconcile pass. The reconciler
// never mutates it.
type Config struct {
	// IncludeCodes, when non-empty, keeps only events whose raw summary
	// contains one of them (the original single-course deployment).
	IncludeCodes   []string
	ExcludeCodes   []string
	ExcludeMarkers []string

	Normalizer NormalizerConfig
	Resolver   ResolverConfig

	// RemoteKeywords mark an event as remote when found in its location or
	// description (case-insensitive); RemotePrefix is then prepended to
	// the title unless already present.
	RemoteKeywords []string
	RemotePrefix   string
}

// Reconciler runs the cleaning pipeline over a primary event sequence:
// filter, normalize, resolve, compose. Output order preserves input
// order; no event is duplicated or reordered.
type Reconciler struct {
	cfg Config
	log *logrus.Entry
}

// NewReconciler constructs a Reconciler.
func NewReconciler(cfg Config, log *logrus.Entry) *Reconciler {
	return &Reconciler{cfg: cfg, log: log}
}

// Reconcile produces the cleaned event sequence for primary, consulting
// secondary (which may be nil) only for time lookups on date-only events.
// It is a pure function of its inputs plus the reconciler config.
func (r *Reconciler) Reconcile(primary, secondary []model.RawEvent) []model.CleanEvent {
	sec := make([]SecondaryEvent, 0, len(secondary))
	for _, ev := range secondary {
		sec = append(sec, SecondaryEvent{
			Title: Normalize(ev.Summary, r.cfg.Normalizer).Title(),
			Event: ev,
		})
	}

	out := make([]model.CleanEvent, 0, len(primary))
	dropped := 0

	for _, raw := range primary {
		if !Retain(raw, r.cfg.IncludeCodes, r.cfg.ExcludeCodes, r.cfg.ExcludeMarkers) {
			dropped++
			r.log.WithField("summary", raw.Summary).Debug("event excluded")
			continue
		}

		label := Normalize(raw.Summary, r.cfg.Normalizer)
		resolved := Resolve(raw, label, sec, r.cfg.Resolver)

		title := label.Title()
		if r.isRemote(raw) && r.cfg.RemotePrefix != "" && !strings.HasPrefix(title, r.cfg.RemotePrefix) {
			title = r.cfg.RemotePrefix + title
		}

		out = append(out, model.CleanEvent{
			Title:       title,
			Start:       resolved.Start,
			End:         resolved.End,
			Location:    raw.Location,
			Description: raw.Description,
		})
	}

	r.log.WithFields(logrus.Fields{
		"in":      len(primary),
		"out":     len(out),
		"dropped": dropped,
	}).Info("reconcile completed")

	return out
}

// isRemote reports whether the event's location or description mentions
// any configured remote-meeting keyword.
func (r *Reconciler) isRemote(raw model.RawEvent) bool {
	for _, kw := range r.cfg.RemoteKeywords {
		if kw == "" {
			continue
		}
		if containsFold(raw.Location, kw) || containsFold(raw.Description, kw) {
			return true
		}
	}
	return false
}
