package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"kurskal/internal/model"
)

// ParseICS parses a single ICS payload into a list of RawEvent.
//
//   - It relies on the underlying library's VTIMEZONE/TZID handling to
//     construct proper time.Time values for timed events.
//   - It detects date-only events by inspecting the DTSTART value format
//     (VALUE=DATE parameter, or no time part in the value).
//   - Timed events are converted into loc; date-only starts are parsed as
//     midnight in loc so the calendar date survives intact.
//
// Events without a DTSTART are skipped; everything downstream requires at
// least a calendar date.
func ParseICS(src Source, body []byte, loc *time.Location) ([]model.RawEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]model.RawEvent, 0)

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp, loc)
		if perr != nil {
			// Skip this event, but keep parsing others.
			continue
		}
		events = append(events, ev)
	}

	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (model.RawEvent, error) {
	var out model.RawEvent
	out.SourceID = src.ID

	// Summary / Description / Location
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	// Detect date-only: VALUE=DATE parameter or no 'T' in the value.
	dateOnly := !strings.Contains(dtStart.Value, "T")
	if params := dtStart.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			dateOnly = true
		}
	}
	out.DateOnly = dateOnly

	if dateOnly {
		start, err := parseICSTime(dtStart.Value, loc)
		if err != nil {
			return out, err
		}
		out.Start = start
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseICSTime(dtEnd.Value, loc); err == nil {
				out.End = end
			}
		}
		return out, nil
	}

	// Timed event: use the library's helpers for timezone logic, falling
	// back to a direct parse of the property value.
	start, err := ve.GetStartAt()
	if err != nil {
		start, err = parseICSTime(dtStart.Value, loc)
		if err != nil {
			return out, err
		}
	}
	out.Start = start.In(loc)

	if end, err := ve.GetEndAt(); err == nil {
		out.End = end.In(loc)
	} else if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		if end, err := parseICSTime(dtEnd.Value, loc); err == nil {
			out.End = end
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string into time.Time.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, loc)
	}

	// Date-only, e.g., 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, loc)
}
