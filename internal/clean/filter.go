package clean

import (
	"strings"

	"kurskal/internal/model"
)

// Retain reports whether a raw event survives the configured code lists.
// When includeCodes is non-empty, only events whose raw summary contains
// at least one of them are considered at all; the exclusion lists then
// drop events regardless of inclusion. Matching is case-sensitive
// substring containment against the raw summary: codes appear verbatim
// in source summaries, often embedded in longer strings, so no
// word-boundary rule applies.
//
// Filtering must run before normalization — the normalizer may strip the
// very tokens the code lists match on.
func Retain(raw model.RawEvent, includeCodes, excludeCodes, excludeMarkers []string) bool {
	if len(includeCodes) > 0 {
		included := false
		for _, code := range includeCodes {
			if code != "" && strings.Contains(raw.Summary, code) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, code := range excludeCodes {
		if code != "" && strings.Contains(raw.Summary, code) {
			return false
		}
	}
	for _, marker := range excludeMarkers {
		if marker != "" && strings.Contains(raw.Summary, marker) {
			return false
		}
	}
	return true
}
