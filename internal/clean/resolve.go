package clean

import (
	"errors"
	"fmt"
	"time"

	"kurskal/internal/model"
)

// defaultDuration is applied when an event carries a start time but no
// usable end time.
const defaultDuration = time.Hour

// Default slot for date-only events nothing else can place: a late-evening
// placeholder so downstream consumers always get concrete instants.
var (
	defaultSlotStart = ClockTime{Hour: 23, Minute: 0}
	defaultSlotEnd   = ClockTime{Hour: 23, Minute: 59}
)

// ClockTime is a time of day without a date.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses a "HH:MM" clock string.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// at anchors a clock time onto the calendar date of day in loc.
func (c ClockTime) at(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

// Slot maps a moment-text keyword to a fixed start/end time of day.
type Slot struct {
	Keyword string
	Start   ClockTime
	End     ClockTime
}

// ResolverConfig carries the static inputs of time resolution.
type ResolverConfig struct {
	// Location is the timezone slots are expressed in; time.Local if nil.
	Location *time.Location

	// Slots is the ordered keyword table; first match against the moment
	// text wins. Keyword matching ignores case.
	Slots []Slot
}

// SecondaryEvent pairs a secondary-source event with its pre-computed
// normalized title, so lookups do not re-normalize per primary event.
type SecondaryEvent struct {
	Title string
	Event model.RawEvent
}

// Resolve assigns concrete start/end instants to a raw event.
//
// Policy, in order:
//   - an explicit start time is kept verbatim; a missing end becomes
//     start + 1h
//   - date-only events try the keyword slot table against the moment text
//   - then a secondary-source lookup: an event on the same calendar date
//     whose normalized title substring-matches this one (either
//     direction) donates its start/end verbatim
//   - otherwise the default 23:00–23:59 slot applies
//
// Resolve is total: it never fails, and End is always after Start.
func Resolve(raw model.RawEvent, label model.NormalizedLabel, secondary []SecondaryEvent, cfg ResolverConfig) model.ResolvedTime {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	if !raw.DateOnly && !raw.Start.IsZero() {
		return withEnd(raw.Start, raw.End)
	}

	day := raw.Start

	for _, slot := range cfg.Slots {
		if slot.Keyword == "" || !containsFold(label.Moment, slot.Keyword) {
			continue
		}
		return model.ResolvedTime{
			Start: slot.Start.at(day, loc),
			End:   slot.End.at(day, loc),
		}
	}

	title := label.Title()
	for _, se := range secondary {
		if se.Event.DateOnly || se.Event.Start.IsZero() {
			continue
		}
		if !sameDate(se.Event.Start, day, loc) {
			continue
		}
		if se.Title == "" || title == "" {
			continue
		}
		if !containsFold(se.Title, title) && !containsFold(title, se.Title) {
			continue
		}
		return withEnd(se.Event.Start, se.Event.End)
	}

	// A date-only end on a later date keeps the multi-day span: 23:59 is
	// anchored on the end date, not the start date.
	start := defaultSlotStart.at(day, loc)
	end := defaultSlotEnd.at(day, loc)
	if !raw.End.IsZero() {
		if e := defaultSlotEnd.at(raw.End, loc); e.After(start) {
			end = e
		}
	}
	return model.ResolvedTime{Start: start, End: end}
}

// withEnd keeps start verbatim and repairs a missing or non-increasing
// end with the default duration.
func withEnd(start, end time.Time) model.ResolvedTime {
	if end.IsZero() || !end.After(start) {
		end = start.Add(defaultDuration)
	}
	return model.ResolvedTime{Start: start, End: end}
}

func sameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// SlotsFromStrings builds the slot table from "HH:MM" clock strings,
// typically straight out of configuration.
func SlotsFromStrings(entries []SlotString) ([]Slot, error) {
	slots := make([]Slot, 0, len(entries))
	for _, e := range entries {
		if e.Keyword == "" {
			return nil, errors.New("keyword slot with empty keyword")
		}
		start, err := ParseClock(e.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(e.End)
		if err != nil {
			return nil, err
		}
		slots = append(slots, Slot{Keyword: e.Keyword, Start: start, End: end})
	}
	return slots, nil
}

// SlotString is the unparsed form of a keyword slot.
type SlotString struct {
	Keyword string
	Start   string
	End     string
}
