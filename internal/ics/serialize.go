package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	ical "github.com/arran4/golang-ical"

	"kurskal/internal/model"
)

const prodID = "-//kurskal//Cleaned Course Calendar//EN"

// Serialize renders a sequence of clean events into an ICS document.
// Event UIDs are derived deterministically from (title, start) so that a
// re-fetch of the published calendar updates events in place instead of
// duplicating them in subscribing clients.
func Serialize(events []model.CleanEvent) []byte {
	cal := ical.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetRefreshInterval("PT12H")

	for _, ev := range events {
		calEvent := cal.AddEvent(eventUID(ev))
		calEvent.SetSummary(ev.Title)
		calEvent.SetDtStampTime(ev.Start)
		calEvent.SetStartAt(ev.Start)
		calEvent.SetEndAt(ev.End)
		if ev.Location != "" {
			calEvent.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			calEvent.SetDescription(ev.Description)
		}
	}

	return []byte(cal.Serialize())
}

// eventUID derives a stable UID for a clean event from its dedup identity.
func eventUID(ev model.CleanEvent) string {
	sum := sha256.Sum256([]byte(ev.Title + "|" + ev.Start.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:8]) + "@kurskal"
}
