package services

import (
	"testing"
	"time"

	"prison-pulse/internal/extraction"
	"prison-pulse/internal/facilities"
	"prison-pulse/internal/models"

	"github.com/stretchr/testify/assert"
)

func newEventsService(t *testing.T) *EventsService {
	t.Helper()
	return NewEventsService(setupTestDB(t), facilities.NewNormalizer(facilities.DefaultTable()))
}

func intPtr(n int) *int { return &n }

func TestSaveEventsNormalizesFacilityAndRegion(t *testing.T) {
	es := newEventsService(t)
	runDate := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	result, err := es.SaveEvents([]extraction.ExtractedEvent{
		{
			EventType:   "suicide",
			EventDate:   "2026-01-10",
			Facility:    "carcere di Poggioreale",
			Description: "Un detenuto si è tolto la vita",
			SourceURL:   "https://example.org/a",
			Confidence:  0.9,
		},
	}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Saved)

	var event models.PrisonEvent
	assert.NoError(t, es.db.First(&event).Error)
	assert.Equal(t, "Poggioreale (Napoli)", event.Facility)
	assert.Equal(t, "Campania", event.Region)
	assert.False(t, event.IsAggregate)
}

func TestSaveEventsCrossSourceDuplicate(t *testing.T) {
	es := newEventsService(t)
	runDate := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	first, err := es.SaveEvents([]extraction.ExtractedEvent{
		{
			EventType:   "suicide",
			EventDate:   "2026-01-10",
			Facility:    "Brescia Canton Mombello",
			Description: "Suicidio in cella",
			SourceURL:   "https://giornale-uno.it/articolo",
			Confidence:  0.9,
		},
	}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Saved)

	// Same incident from a second outlet under a different raw spelling.
	// Both names normalize to the same canonical facility.
	second, err := es.SaveEvents([]extraction.ExtractedEvent{
		{
			EventType:   "suicide",
			EventDate:   "2026-01-10",
			Facility:    "Canton Mombello",
			Description: "Tragedia nel carcere bresciano",
			SourceURL:   "https://giornale-due.it/notizia",
			Confidence:  0.8,
		},
	}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 0, second.Saved)
	assert.Equal(t, 1, second.Skipped)

	var count int64
	es.db.Model(&models.PrisonEvent{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSaveEventsSameSourceDuplicateWithoutDate(t *testing.T) {
	es := newEventsService(t)
	runDate := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	event := extraction.ExtractedEvent{
		EventType:   "protest",
		Facility:    "Rebibbia",
		Description: "Protesta dei detenuti",
		SourceURL:   "https://example.org/b",
		Confidence:  0.7,
	}

	first, err := es.SaveEvents([]extraction.ExtractedEvent{event}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Saved)

	// Re-running the same extraction must not create a second row even
	// though the event has no date.
	second, err := es.SaveEvents([]extraction.ExtractedEvent{event}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
}

func TestSaveEventsUndatedEventsDoNotCollideAcrossSources(t *testing.T) {
	es := newEventsService(t)
	runDate := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	result, err := es.SaveEvents([]extraction.ExtractedEvent{
		{EventType: "protest", Facility: "Rebibbia", SourceURL: "https://uno.it/x", Confidence: 0.7},
		{EventType: "protest", Facility: "Rebibbia", SourceURL: "https://due.it/y", Confidence: 0.7},
	}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
}

func TestSaveEventsSkipsInvalidRecords(t *testing.T) {
	es := newEventsService(t)
	runDate := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	result, err := es.SaveEvents([]extraction.ExtractedEvent{
		{EventDate: "2026-01-10", SourceURL: "https://example.org/c", Confidence: 0.9},
		{EventType: "suicide", EventDate: "2026-01-10", SourceURL: "https://example.org/d", Confidence: 0.9},
	}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 1, result.Skipped)
}

func TestIsAggregateEvent(t *testing.T) {
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	june := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		candidate extraction.ExtractedEvent
		date      *time.Time
		want      bool
	}{
		{
			"Explicit flag",
			extraction.ExtractedEvent{IsAggregate: true},
			&june, true,
		},
		{
			"Roundup phrase",
			extraction.ExtractedEvent{Description: "Dall'inizio dell'anno sono morti 45 detenuti"},
			&june, true,
		},
		{
			"Annual balance phrase",
			extraction.ExtractedEvent{Description: "Il bilancio annuale parla di 60 suicidi"},
			nil, true,
		},
		{
			"High count on January 1st",
			extraction.ExtractedEvent{Count: intPtr(45), Facility: "Rebibbia"},
			&jan1, true,
		},
		{
			"High count mid-year with facility",
			extraction.ExtractedEvent{Count: intPtr(45), Facility: "Rebibbia"},
			&june, false,
		},
		{
			"Facility-less multi-count",
			extraction.ExtractedEvent{Count: intPtr(2)},
			&june, true,
		},
		{
			"Single incident",
			extraction.ExtractedEvent{Count: intPtr(1), Facility: "Rebibbia", Description: "Un suicidio"},
			&june, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAggregateEvent(tt.candidate, tt.date))
		})
	}
}

func TestSaveSnapshotsDedupAndDateRequired(t *testing.T) {
	es := newEventsService(t)
	runDate := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	rate := 1.45
	snapshot := extraction.ExtractedSnapshot{
		Facility:      "carcere di San Vittore",
		SnapshotDate:  "2026-01-10",
		Inmates:       intPtr(1050),
		Capacity:      intPtr(724),
		OccupancyRate: &rate,
		SourceURL:     "https://example.org/report",
	}

	first, err := es.SaveSnapshots([]extraction.ExtractedSnapshot{snapshot}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Saved)

	var saved models.FacilitySnapshot
	assert.NoError(t, es.db.First(&saved).Error)
	assert.Equal(t, "San Vittore (Milano)", saved.Facility)
	assert.Equal(t, "Lombardia", saved.Region)

	// Same facility, date and source again: skipped.
	second, err := es.SaveSnapshots([]extraction.ExtractedSnapshot{snapshot}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)

	// A different snapshot date is a new reading.
	snapshot.SnapshotDate = "2026-02-01"
	third, err := es.SaveSnapshots([]extraction.ExtractedSnapshot{snapshot}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, third.Saved)
}

func TestSaveSnapshotsRejectsMissingDate(t *testing.T) {
	es := newEventsService(t)
	runDate := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	result, err := es.SaveSnapshots([]extraction.ExtractedSnapshot{
		{Facility: "Rebibbia", SourceURL: "https://example.org/report"},
		{Facility: "Rebibbia", SnapshotDate: "gennaio 2026", SourceURL: "https://example.org/report"},
	}, runDate)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 2, result.Skipped)
}
