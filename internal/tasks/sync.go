package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kurskal/internal/model"
)

// Tracker pushes clean events into an external tracker exactly once per
// dedup key. Single-threaded, single-process per run: the key set is
// checked and mutated serially, so no locking is needed. A concurrent
// port would have to make the check-then-act atomic per key.
type Tracker struct {
	keys    *KeySet
	creator TaskCreator
	log     *logrus.Entry
}

// NewTracker constructs a Tracker over a loaded key set.
func NewTracker(keys *KeySet, creator TaskCreator, log *logrus.Entry) *Tracker {
	return &Tracker{keys: keys, creator: creator, log: log}
}

// Result summarizes one sync pass.
type Result struct {
	Created int
	Skipped int
	Failed  int
}

// SyncAll processes each event in order. A key already in the set is
// skipped without an external call. Otherwise the creator is invoked; on
// success the key is recorded and the set persisted immediately, so a
// crash after one success neither loses the record nor re-fires it on
// retry. On create failure the key stays unrecorded and the event
// remains eligible on the next run (at-least-once, never at-most-once).
//
// Per-event create failures are isolated; the pass only errors when a
// key-set persist fails (durable state is broken) or when every
// processed event failed.
func (t *Tracker) SyncAll(ctx context.Context, events []model.CleanEvent) (Result, error) {
	var res Result

	for _, ev := range events {
		key := Key(ev.Title, ev.Start)
		entry := t.log.WithFields(logrus.Fields{"title": ev.Title, "key": key})

		if t.keys.Has(key) {
			res.Skipped++
			entry.Debug("already synced, skipping")
			continue
		}

		if err := t.creator.CreateTask(ctx, ev.Title, ev.Start); err != nil {
			res.Failed++
			entry.WithError(err).Error("task create failed")
			continue
		}

		t.keys.Add(key, KeyRecord{
			Title:    ev.Title,
			Start:    ev.Start,
			SyncedAt: time.Now().UTC(),
		})
		if err := t.keys.Save(); err != nil {
			// The task exists but its key did not persist; abort so the
			// operator notices before a retry re-creates tasks.
			return res, fmt.Errorf("persist synced keys: %w", err)
		}
		res.Created++
	}

	if res.Failed > 0 && res.Created == 0 && res.Skipped == 0 {
		return res, errors.New("all task creates failed")
	}
	return res, nil
}
