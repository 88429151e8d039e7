package services

import (
	"testing"
	"time"

	"prison-pulse/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func seedSnapshot(t *testing.T, db *gorm.DB, facility, region string, day time.Time, inmates, capacity int, rate float64) {
	t.Helper()
	snapshot := models.FacilitySnapshot{
		ID:            uuid.New(),
		Facility:      facility,
		Region:        region,
		SnapshotDate:  day,
		Inmates:       &inmates,
		Capacity:      &capacity,
		OccupancyRate: &rate,
		SourceURL:     "https://example.org/report",
	}
	if err := db.Create(&snapshot).Error; err != nil {
		t.Fatalf("seed snapshot failed: %v", err)
	}
}

func TestCountByTypeExcludesAggregates(t *testing.T) {
	db := setupTestDB(t)
	ss := NewStatsService(db)

	seedEvent(t, db, models.PrisonEvent{EventType: "suicide", EventDate: datePtr(2026, 1, 10), Facility: "Rebibbia (Roma)", SourceURL: "https://a.it/1"})
	seedEvent(t, db, models.PrisonEvent{EventType: "suicide", EventDate: datePtr(2026, 2, 5), Facility: "Poggioreale (Napoli)", SourceURL: "https://a.it/2"})
	seedEvent(t, db, models.PrisonEvent{EventType: "protest", EventDate: datePtr(2026, 2, 6), Facility: "Rebibbia (Roma)", SourceURL: "https://a.it/3"})
	seedEvent(t, db, models.PrisonEvent{EventType: "suicide", Count: intPtr(45), IsAggregate: true, SourceURL: "https://a.it/4"})

	counts, err := ss.CountByType(nil, nil)
	assert.NoError(t, err)

	byType := map[string]int64{}
	for _, c := range counts {
		byType[c.EventType] = c.Count
	}
	assert.Equal(t, int64(2), byType["suicide"])
	assert.Equal(t, int64(1), byType["protest"])
}

func TestCountByTypeDateRange(t *testing.T) {
	db := setupTestDB(t)
	ss := NewStatsService(db)

	seedEvent(t, db, models.PrisonEvent{EventType: "suicide", EventDate: datePtr(2026, 1, 10), SourceURL: "https://a.it/1"})
	seedEvent(t, db, models.PrisonEvent{EventType: "suicide", EventDate: datePtr(2026, 3, 10), SourceURL: "https://a.it/2"})

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	counts, err := ss.CountByType(&from, nil)
	assert.NoError(t, err)
	assert.Len(t, counts, 1)
	assert.Equal(t, int64(1), counts[0].Count)
}

func TestCountByFacilityOrdersByVolume(t *testing.T) {
	db := setupTestDB(t)
	ss := NewStatsService(db)

	for i := 0; i < 3; i++ {
		seedEvent(t, db, models.PrisonEvent{EventType: "suicide", EventDate: datePtr(2026, 1, i+1), Facility: "Poggioreale (Napoli)", SourceURL: "https://a.it/p" + string(rune('0'+i))})
	}
	seedEvent(t, db, models.PrisonEvent{EventType: "suicide", EventDate: datePtr(2026, 1, 9), Facility: "Rebibbia (Roma)", SourceURL: "https://a.it/r"})

	counts, err := ss.CountByFacility("suicide", 10)
	assert.NoError(t, err)
	assert.Len(t, counts, 2)
	assert.Equal(t, "Poggioreale (Napoli)", counts[0].Facility)
	assert.Equal(t, int64(3), counts[0].Count)
}

func TestLatestSnapshotsOnePerFacility(t *testing.T) {
	db := setupTestDB(t)
	ss := NewStatsService(db)

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	seedSnapshot(t, db, "San Vittore (Milano)", "Lombardia", jan, 1000, 724, 1.38)
	seedSnapshot(t, db, "San Vittore (Milano)", "Lombardia", feb, 1050, 724, 1.45)
	seedSnapshot(t, db, "Rebibbia (Roma)", "Lazio", jan, 1500, 1300, 1.15)

	latest, err := ss.LatestSnapshots()
	assert.NoError(t, err)
	assert.Len(t, latest, 2)
	assert.Equal(t, "San Vittore (Milano)", latest[0].Facility)
	assert.Equal(t, 1050, *latest[0].Inmates)
}

func TestRegionalSummary(t *testing.T) {
	db := setupTestDB(t)
	ss := NewStatsService(db)

	day := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	seedSnapshot(t, db, "San Vittore (Milano)", "Lombardia", day, 1050, 724, 1.45)
	seedSnapshot(t, db, "Bollate (Milano)", "Lombardia", day, 1200, 1100, 1.09)
	seedSnapshot(t, db, "Rebibbia (Roma)", "Lazio", day, 1500, 1300, 1.15)

	summaries, err := ss.RegionalSummary()
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Equal(t, "Lombardia", summaries[0].Region)
	assert.Equal(t, 2250, summaries[0].TotalInmates)
	assert.InDelta(t, 1.27, summaries[0].AvgOccupancy, 0.01)
	assert.Equal(t, "Lazio", summaries[1].Region)
}
