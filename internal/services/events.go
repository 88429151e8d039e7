package services

import (
	"fmt"
	"log"
	"regexp"
	"time"

	"prison-pulse/internal/extraction"
	"prison-pulse/internal/facilities"
	"prison-pulse/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// aggregateCountThreshold: a count above this on a January 1st date is
// treated as an administrative annual tally, not a single incident.
const aggregateCountThreshold = 3

// Phrases that mark a description as a statistical roundup rather than a
// discrete incident.
var aggregatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)dall'inizio dell'anno`),
	regexp.MustCompile(`(?i)da inizio anno`),
	regexp.MustCompile(`(?i)nel corso del \d{4}`),
	regexp.MustCompile(`(?i)nel \d{4} sono`),
	regexp.MustCompile(`(?i)bilancio annuale`),
	regexp.MustCompile(`(?i)in totale`),
	regexp.MustCompile(`(?i)complessivamente`),
}

// EventsService persists extracted prison events and capacity snapshots,
// deduplicating against what the store already holds
type EventsService struct {
	db         *gorm.DB
	normalizer *facilities.Normalizer
}

// NewEventsService creates a new events service
func NewEventsService(db *gorm.DB, normalizer *facilities.Normalizer) *EventsService {
	return &EventsService{db: db, normalizer: normalizer}
}

// SaveResult reports how many records a save pass kept and skipped.
type SaveResult struct {
	Saved   int
	Skipped int
}

// SaveEvents validates, normalizes, deduplicates and persists a batch of
// extracted events. Invalid records and duplicates are skipped with a log
// line; a database error aborts the batch.
func (es *EventsService) SaveEvents(events []extraction.ExtractedEvent, runDate time.Time) (SaveResult, error) {
	var result SaveResult

	for _, candidate := range events {
		if err := candidate.Validate(); err != nil {
			log.Printf("Skipping invalid event: %v", err)
			result.Skipped++
			continue
		}

		facility := es.normalizer.Normalize(candidate.Facility)
		region := candidate.Region
		if region == "" && facility != "" {
			region = es.normalizer.Region(facility)
		}
		eventDate := extraction.ParseDate(candidate.EventDate)

		duplicate, err := es.isDuplicateEvent(candidate, facility, eventDate)
		if err != nil {
			return result, err
		}
		if duplicate {
			result.Skipped++
			continue
		}

		event := models.PrisonEvent{
			ID:          uuid.New(),
			EventType:   candidate.EventType,
			EventDate:   eventDate,
			Facility:    facility,
			Region:      region,
			Count:       candidate.Count,
			Description: candidate.Description,
			SourceURL:   candidate.SourceURL,
			Confidence:  candidate.Confidence,
			IsAggregate: IsAggregateEvent(candidate, eventDate),
			ExtractedAt: runDate,
		}
		if err := es.db.Create(&event).Error; err != nil {
			return result, fmt.Errorf("failed to save event: %w", err)
		}
		result.Saved++
	}

	log.Printf("Events saved: %d, skipped: %d", result.Saved, result.Skipped)
	return result, nil
}

// isDuplicateEvent applies the two duplicate checks: an exact composite-key
// match on (source, type, date, facility), and a cross-source match on
// (type, date, normalized facility) that catches the same incident reported
// under different raw spellings. Candidates without both a date and a
// facility can only hit the exact check.
func (es *EventsService) isDuplicateEvent(candidate extraction.ExtractedEvent, facility string, eventDate *time.Time) (bool, error) {
	exact := es.db.Model(&models.PrisonEvent{}).
		Where("source_url = ? AND event_type = ?", candidate.SourceURL, candidate.EventType)
	exact = whereDate(exact, eventDate)
	exact = exact.Where("facility = ?", facility)

	var count int64
	if err := exact.Count(&count).Error; err != nil {
		return false, fmt.Errorf("duplicate check failed: %w", err)
	}
	if count > 0 {
		log.Printf("Duplicate event (same source): %s %s at %s", candidate.EventType, candidate.EventDate, facility)
		return true, nil
	}

	if eventDate == nil || facility == "" {
		return false, nil
	}

	// Cross-source: the facility column always holds normalized names, so
	// a plain equality match compares canonical identities.
	cross := es.db.Model(&models.PrisonEvent{}).
		Where("event_type = ? AND event_date = ? AND facility = ?", candidate.EventType, *eventDate, facility)
	if err := cross.Count(&count).Error; err != nil {
		return false, fmt.Errorf("duplicate check failed: %w", err)
	}
	if count > 0 {
		log.Printf("Duplicate event (cross-source): %s %s at %s", candidate.EventType, candidate.EventDate, facility)
		return true, nil
	}
	return false, nil
}

// IsAggregateEvent decides whether a candidate describes a statistical
// roll-up instead of a discrete incident: an explicit flag, a roundup
// phrase in the description, a high count dated January 1st, or a
// facility-less multi-count record.
func IsAggregateEvent(candidate extraction.ExtractedEvent, eventDate *time.Time) bool {
	if candidate.IsAggregate {
		return true
	}
	for _, pattern := range aggregatePatterns {
		if pattern.MatchString(candidate.Description) {
			return true
		}
	}
	if candidate.Count != nil {
		if *candidate.Count > aggregateCountThreshold && eventDate != nil &&
			eventDate.Month() == time.January && eventDate.Day() == 1 {
			return true
		}
		if candidate.Facility == "" && *candidate.Count > 1 {
			return true
		}
	}
	return false
}

// SaveSnapshots validates, normalizes, deduplicates and persists capacity
// snapshots. A snapshot without a parseable date is rejected rather than
// stored with a guessed one; so is one whose facility cannot be normalized
// to anything.
func (es *EventsService) SaveSnapshots(snapshots []extraction.ExtractedSnapshot, runDate time.Time) (SaveResult, error) {
	var result SaveResult

	for _, candidate := range snapshots {
		if err := candidate.Validate(); err != nil {
			log.Printf("Skipping invalid snapshot: %v", err)
			result.Skipped++
			continue
		}

		facility := es.normalizer.Normalize(candidate.Facility)
		if facility == "" {
			result.Skipped++
			continue
		}
		region := candidate.Region
		if region == "" {
			region = es.normalizer.Region(facility)
		}

		parsed := extraction.ParseDate(candidate.SnapshotDate)
		if parsed == nil {
			log.Printf("Skipping snapshot without a usable date: %s", candidate.Facility)
			result.Skipped++
			continue
		}
		snapshotDate := *parsed

		var count int64
		err := es.db.Model(&models.FacilitySnapshot{}).
			Where("facility = ? AND snapshot_date = ? AND source_url = ?", facility, snapshotDate, candidate.SourceURL).
			Count(&count).Error
		if err != nil {
			return result, fmt.Errorf("snapshot duplicate check failed: %w", err)
		}
		if count > 0 {
			result.Skipped++
			continue
		}

		snapshot := models.FacilitySnapshot{
			ID:            uuid.New(),
			Facility:      facility,
			Region:        region,
			SnapshotDate:  snapshotDate,
			Inmates:       candidate.Inmates,
			Capacity:      candidate.Capacity,
			OccupancyRate: candidate.OccupancyRate,
			SourceURL:     candidate.SourceURL,
			ExtractedAt:   runDate,
		}
		if err := es.db.Create(&snapshot).Error; err != nil {
			return result, fmt.Errorf("failed to save snapshot: %w", err)
		}
		result.Saved++
	}

	log.Printf("Snapshots saved: %d, skipped: %d", result.Saved, result.Skipped)
	return result, nil
}

func whereDate(query *gorm.DB, date *time.Time) *gorm.DB {
	if date == nil {
		return query.Where("event_date IS NULL")
	}
	return query.Where("event_date = ?", *date)
}
