package services

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"prison-pulse/internal/facilities"
	"prison-pulse/internal/models"

	"gorm.io/gorm"
)

// Victim extraction: a person-reference phrase followed by a capitalized
// name, with an optional age figure nearby. Heuristic over free text; it
// misses rephrased duplicates and can merge distinct victims who share
// name and age.
var (
	victimNamePattern = regexp.MustCompile(`(?:[Dd]etenut[oa]|[Uu]omo|[Dd]onna|[Gg]iovane|[Rr]agazz[oa])[ ,]+(?:di \d{1,2} anni[ ,]+)?([A-ZÀÈÉÌÒÙ][a-zàèéìòù]+(?: [A-ZÀÈÉÌÒÙ][a-zàèéìòù]+)+)`)
	victimAgePattern  = regexp.MustCompile(`\b(\d{1,2})\s*(?:anni|enne)\b`)
)

// fatalityTypes are the event types the same-victim pass applies to.
var fatalityTypes = []string{"suicide", "death"}

// CleanupService runs offline maintenance passes over stored events and
// snapshots: facility re-normalization, late aggregate marking, and the
// duplicate sweeps that need the whole table in view.
type CleanupService struct {
	db         *gorm.DB
	normalizer *facilities.Normalizer
	dryRun     bool
}

// NewCleanupService creates a new cleanup service. With dryRun set it
// reports what it would change without writing.
func NewCleanupService(db *gorm.DB, normalizer *facilities.Normalizer, dryRun bool) *CleanupService {
	return &CleanupService{db: db, normalizer: normalizer, dryRun: dryRun}
}

// CleanupReport summarizes one full cleanup run.
type CleanupReport struct {
	FacilitiesRewritten int `json:"facilities_rewritten"`
	AggregatesMarked    int `json:"aggregates_marked"`
	DuplicatesRemoved   int `json:"duplicates_removed"`
	VictimDupsRemoved   int `json:"victim_duplicates_removed"`
}

// Run executes every pass in order. Facility rewriting goes first so the
// duplicate sweeps compare canonical names.
func (cs *CleanupService) Run() (CleanupReport, error) {
	var report CleanupReport
	var err error

	if report.FacilitiesRewritten, err = cs.NormalizeFacilities(); err != nil {
		return report, err
	}
	if report.AggregatesMarked, err = cs.MarkAggregates(); err != nil {
		return report, err
	}
	if report.DuplicatesRemoved, err = cs.DedupEvents(); err != nil {
		return report, err
	}
	if report.VictimDupsRemoved, err = cs.DedupVictims(); err != nil {
		return report, err
	}

	log.Printf("🧹 Cleanup done: %d facilities rewritten, %d aggregates marked, %d duplicates removed, %d victim duplicates removed",
		report.FacilitiesRewritten, report.AggregatesMarked, report.DuplicatesRemoved, report.VictimDupsRemoved)
	return report, nil
}

// NormalizeFacilities rewrites stored facility names to their canonical
// form and backfills missing regions, on both events and snapshots.
func (cs *CleanupService) NormalizeFacilities() (int, error) {
	rewritten := 0

	var events []models.PrisonEvent
	if err := cs.db.Where("facility <> ''").Find(&events).Error; err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}
	for _, event := range events {
		canonical := cs.normalizer.Normalize(event.Facility)
		region := event.Region
		if region == "" {
			region = cs.normalizer.Region(canonical)
		}
		if canonical == event.Facility && region == event.Region {
			continue
		}
		rewritten++
		if cs.dryRun {
			log.Printf("Would rewrite event facility %q -> %q", event.Facility, canonical)
			continue
		}
		err := cs.db.Model(&models.PrisonEvent{}).Where("id = ?", event.ID).
			Updates(map[string]interface{}{"facility": canonical, "region": region}).Error
		if err != nil {
			return rewritten, fmt.Errorf("failed to rewrite event facility: %w", err)
		}
	}

	var snapshots []models.FacilitySnapshot
	if err := cs.db.Find(&snapshots).Error; err != nil {
		return rewritten, fmt.Errorf("failed to load snapshots: %w", err)
	}
	for _, snapshot := range snapshots {
		canonical := cs.normalizer.Normalize(snapshot.Facility)
		region := snapshot.Region
		if region == "" {
			region = cs.normalizer.Region(canonical)
		}
		if canonical == snapshot.Facility && region == snapshot.Region {
			continue
		}
		rewritten++
		if cs.dryRun {
			log.Printf("Would rewrite snapshot facility %q -> %q", snapshot.Facility, canonical)
			continue
		}
		err := cs.db.Model(&models.FacilitySnapshot{}).Where("id = ?", snapshot.ID).
			Updates(map[string]interface{}{"facility": canonical, "region": region}).Error
		if err != nil {
			return rewritten, fmt.Errorf("failed to rewrite snapshot facility: %w", err)
		}
	}

	return rewritten, nil
}

// MarkAggregates flags stored events that the live heuristic would now
// classify as roll-ups: roundup phrasing or a facility-less multi-count.
func (cs *CleanupService) MarkAggregates() (int, error) {
	var events []models.PrisonEvent
	if err := cs.db.Where("is_aggregate = ?", false).Find(&events).Error; err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}

	marked := 0
	for _, event := range events {
		if !storedEventLooksAggregate(event) {
			continue
		}
		marked++
		if cs.dryRun {
			log.Printf("Would mark aggregate: %s %q", event.EventType, truncate(event.Description, 60))
			continue
		}
		err := cs.db.Model(&models.PrisonEvent{}).Where("id = ?", event.ID).
			Update("is_aggregate", true).Error
		if err != nil {
			return marked, fmt.Errorf("failed to mark aggregate: %w", err)
		}
	}
	return marked, nil
}

// storedEventLooksAggregate re-applies the aggregate heuristic to a record
// already in the store.
func storedEventLooksAggregate(event models.PrisonEvent) bool {
	for _, pattern := range aggregatePatterns {
		if pattern.MatchString(event.Description) {
			return true
		}
	}
	if event.Count != nil {
		if *event.Count > aggregateCountThreshold && event.EventDate != nil &&
			event.EventDate.Month() == 1 && event.EventDate.Day() == 1 {
			return true
		}
		if event.Facility == "" && *event.Count > 1 {
			return true
		}
	}
	return false
}

// DedupEvents removes non-aggregate events that share (date, facility,
// type) with an earlier record, keeping the one with the longest
// description per group.
func (cs *CleanupService) DedupEvents() (int, error) {
	var events []models.PrisonEvent
	err := cs.db.
		Where("is_aggregate = ? AND event_date IS NOT NULL AND facility <> ''", false).
		Order("created_at").
		Find(&events).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}

	groups := make(map[string][]models.PrisonEvent)
	for _, event := range events {
		key := fmt.Sprintf("%s|%s|%s", event.EventDate.Format("2006-01-02"), event.Facility, event.EventType)
		groups[key] = append(groups[key], event)
	}

	removed := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, event := range group[1:] {
			if len(event.Description) > len(keep.Description) {
				keep = event
			}
		}
		for _, event := range group {
			if event.ID == keep.ID {
				continue
			}
			removed++
			if cs.dryRun {
				log.Printf("Would remove duplicate: %s %s at %s", event.EventType, event.EventDate.Format("2006-01-02"), event.Facility)
				continue
			}
			if err := cs.db.Delete(&models.PrisonEvent{}, "id = ?", event.ID).Error; err != nil {
				return removed, fmt.Errorf("failed to remove duplicate: %w", err)
			}
		}
	}
	return removed, nil
}

// DedupVictims removes fatality reports that describe the same victim
// across unrelated articles. First-seen wins; later records sharing a
// victim identifier are dropped.
func (cs *CleanupService) DedupVictims() (int, error) {
	var events []models.PrisonEvent
	err := cs.db.
		Where("is_aggregate = ? AND event_type IN ?", false, fatalityTypes).
		Order("created_at").
		Find(&events).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load fatality events: %w", err)
	}

	seen := make(map[string]bool)
	removed := 0
	for _, event := range events {
		identifier := victimIdentifier(event)
		if identifier == "" {
			continue
		}
		if !seen[identifier] {
			seen[identifier] = true
			continue
		}
		removed++
		if cs.dryRun {
			log.Printf("Would remove same-victim duplicate %q: %s", identifier, truncate(event.Description, 60))
			continue
		}
		if err := cs.db.Delete(&models.PrisonEvent{}, "id = ?", event.ID).Error; err != nil {
			return removed, fmt.Errorf("failed to remove victim duplicate: %w", err)
		}
	}
	return removed, nil
}

// victimIdentifier builds a heuristic key for the victim of a fatality
// report: the extracted name plus any age figure, or (date, facility, age)
// when no name is extractable. Returns "" when nothing usable is found.
func victimIdentifier(event models.PrisonEvent) string {
	age := ""
	if match := victimAgePattern.FindStringSubmatch(event.Description); match != nil {
		age = match[1]
	}

	if match := victimNamePattern.FindStringSubmatch(event.Description); match != nil {
		name := strings.ToLower(strings.TrimSpace(match[1]))
		return "name:" + name + "|" + age
	}

	if event.EventDate != nil && event.Facility != "" && age != "" {
		return "coarse:" + event.EventDate.Format("2006-01-02") + "|" + event.Facility + "|" + age
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
