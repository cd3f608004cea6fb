package clean_test

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kurskal/internal/clean"
	"kurskal/internal/model"
)

func discardLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func testReconciler(t *testing.T, loc *time.Location) *clean.Reconciler {
	t.Helper()
	return clean.NewReconciler(clean.Config{
		ExcludeCodes:   []string{"BMA152"},
		ExcludeMarkers: []string{"[BMA152 HT24]"},
		Normalizer:     clean.NormalizerConfig{PreferredCode: "BMA451"},
		Resolver:       clean.ResolverConfig{Location: loc, Slots: labSlots(t)},
		RemoteKeywords: []string{"zoom"},
		RemotePrefix:   "Zoom ",
	}, discardLog())
}

func TestReconcile(t *testing.T) {
	loc := stockholm(t)
	r := testReconciler(t, loc)

	start := time.Date(2025, 3, 13, 10, 0, 0, 0, loc)

	primary := []model.RawEvent{
		{
			Summary: "BMA451 Moment: Hematologi Aktivitetstyp: Undervisning",
			Start:   start,
			End:     start.Add(2 * time.Hour),
		},
		{
			// Excluded by code; must not appear in the output.
			Summary: "Tentamen BMA152",
			Start:   start,
		},
		{
			Summary:  "BMA451 Moment: Introduktion Aktivitetstyp: Undervisning",
			Location: "Zoom meeting 123",
			Start:    start.Add(3 * time.Hour),
		},
	}

	got := r.Reconcile(primary, nil)
	require.Len(t, got, 2)

	// Output preserves input order.
	assert.Equal(t, "BMA451: Hematologi", got[0].Title)
	assert.True(t, got[0].Start.Equal(start))
	assert.True(t, got[0].End.Equal(start.Add(2*time.Hour)))

	// Remote events get the modality prefix.
	assert.Equal(t, "Zoom BMA451: Introduktion", got[1].Title)
	assert.Equal(t, "Zoom meeting 123", got[1].Location)
}

func TestReconcileNoDoubleRemotePrefix(t *testing.T) {
	loc := stockholm(t)
	r := testReconciler(t, loc)

	start := time.Date(2025, 3, 13, 10, 0, 0, 0, loc)
	primary := []model.RawEvent{
		{
			Summary:     "Zoom Introduktion",
			Description: "Länk: zoom.us/j/123",
			Start:       start,
		},
	}

	got := r.Reconcile(primary, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Zoom Introduktion", got[0].Title)
}

func TestReconcileExcludedCodesAbsent(t *testing.T) {
	loc := stockholm(t)
	r := testReconciler(t, loc)

	day := time.Date(2025, 3, 13, 0, 0, 0, 0, loc)
	primary := []model.RawEvent{
		{Summary: "BMA152 Moment: Introduktion", Start: day, DateOnly: true},
		{Summary: "Föreläsning [BMA152 HT24]", Start: day, DateOnly: true},
		{Summary: "BMA451 Moment: Hematologi", Start: day, DateOnly: true},
	}

	got := r.Reconcile(primary, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "BMA451: Hematologi", got[0].Title)
}

func TestReconcileUsesSecondaryForDateOnly(t *testing.T) {
	loc := stockholm(t)
	r := testReconciler(t, loc)

	day := time.Date(2025, 3, 13, 0, 0, 0, 0, loc)
	primary := []model.RawEvent{
		{Summary: "BMA451 Moment: Hematologi", Start: day, DateOnly: true},
	}
	secondary := []model.RawEvent{
		{
			Summary: "BMA451 Moment: Hematologi grupp A",
			Start:   time.Date(2025, 3, 13, 13, 0, 0, 0, loc),
			End:     time.Date(2025, 3, 13, 15, 0, 0, 0, loc),
		},
	}

	got := r.Reconcile(primary, secondary)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(time.Date(2025, 3, 13, 13, 0, 0, 0, loc)))
	assert.True(t, got[0].End.Equal(time.Date(2025, 3, 13, 15, 0, 0, 0, loc)))
}
