package model

import "time"

// RawEvent represents a single calendar entry as read from an ICS source,
// before filtering, title normalization or time resolution. It is produced
// by internal/ics and treated as immutable afterwards.
type RawEvent struct {
	SourceID string // calendar source ID (e.g., config source ID)

	Summary     string
	Description string
	Location    string

	// Start / End in the configured display timezone. When DateOnly is
	// true, Start carries only the calendar date (midnight local) and End
	// may be zero; concrete instants are assigned by the time resolver.
	Start    time.Time
	End      time.Time
	DateOnly bool
}

// NormalizedLabel is the structured form of a raw summary: a short
// alphanumeric activity code (possibly empty) and the human-readable
// moment text. Derived purely from the summary.
type NormalizedLabel struct {
	Code   string // e.g. "BMA451"; empty when no code was recognized
	Moment string
}

// Title composes the display title for a label: "CODE: Moment" when a
// code is present, the bare moment text otherwise.
func (l NormalizedLabel) Title() string {
	if l.Code == "" {
		return l.Moment
	}
	if l.Moment == "" {
		return l.Code
	}
	return l.Code + ": " + l.Moment
}

// ResolvedTime holds concrete start/end instants for an event.
// Invariant: End is strictly after Start.
type ResolvedTime struct {
	Start time.Time
	End   time.Time
}

// CleanEvent is one calendar entry after filtering, title normalization
// and time resolution. This is the unit handed to downstream consumers
// (ICS serialization, task sync); immutable once produced.
type CleanEvent struct {
	Title       string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
}
