package services

import (
	"sort"
	"time"

	"prison-pulse/internal/models"

	"gorm.io/gorm"
)

// StatsService answers analytics queries over persisted events and
// snapshots for the dashboard and bulletin generation. Aggregate roll-up
// records are excluded from incident counts by default.
type StatsService struct {
	db *gorm.DB
}

// NewStatsService creates a new stats service
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// TypeCount is an event count for one event type.
type TypeCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// RegionCount is an event count for one region.
type RegionCount struct {
	Region string `json:"region"`
	Count  int64  `json:"count"`
}

// FacilityCount is an event count for one facility.
type FacilityCount struct {
	Facility string `json:"facility"`
	Count    int64  `json:"count"`
}

// MonthCount is an event count for one year-month bucket.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// CountByType counts non-aggregate events grouped by type within an
// optional date range.
func (ss *StatsService) CountByType(dateFrom, dateTo *time.Time) ([]TypeCount, error) {
	var counts []TypeCount
	query := ss.db.Model(&models.PrisonEvent{}).
		Select("event_type, COUNT(*) as count").
		Where("is_aggregate = ?", false).
		Group("event_type")
	query = applyDateRange(query, dateFrom, dateTo)
	err := query.Scan(&counts).Error
	return counts, err
}

// CountByRegion counts non-aggregate events grouped by region, optionally
// filtered by event type and date range.
func (ss *StatsService) CountByRegion(eventType string, dateFrom, dateTo *time.Time) ([]RegionCount, error) {
	var counts []RegionCount
	query := ss.db.Model(&models.PrisonEvent{}).
		Select("region, COUNT(*) as count").
		Where("is_aggregate = ? AND region <> ''", false).
		Group("region")
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	query = applyDateRange(query, dateFrom, dateTo)
	err := query.Scan(&counts).Error
	return counts, err
}

// CountByFacility counts non-aggregate events grouped by facility, sorted
// by count descending, limited to the busiest facilities.
func (ss *StatsService) CountByFacility(eventType string, limit int) ([]FacilityCount, error) {
	var counts []FacilityCount
	query := ss.db.Model(&models.PrisonEvent{}).
		Select("facility, COUNT(*) as count").
		Where("is_aggregate = ? AND facility <> ''", false).
		Group("facility").
		Order("count DESC").
		Limit(limit)
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	err := query.Scan(&counts).Error
	return counts, err
}

// CountByMonth counts non-aggregate dated events grouped by year-month,
// sorted chronologically.
func (ss *StatsService) CountByMonth(eventType string, dateFrom, dateTo *time.Time) ([]MonthCount, error) {
	var counts []MonthCount
	query := ss.db.Model(&models.PrisonEvent{}).
		Select("strftime('%Y-%m', event_date) as month, COUNT(*) as count").
		Where("is_aggregate = ? AND event_date IS NOT NULL", false).
		Group("month").
		Order("month")
	if ss.db.Dialector.Name() == "postgres" {
		query = ss.db.Model(&models.PrisonEvent{}).
			Select("to_char(event_date, 'YYYY-MM') as month, COUNT(*) as count").
			Where("is_aggregate = ? AND event_date IS NOT NULL", false).
			Group("month").
			Order("month")
	}
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	query = applyDateRange(query, dateFrom, dateTo)
	err := query.Scan(&counts).Error
	return counts, err
}

// Timeline returns dated non-aggregate events for visualization, newest
// first.
func (ss *StatsService) Timeline(eventType string, limit int) ([]models.PrisonEvent, error) {
	var events []models.PrisonEvent
	query := ss.db.
		Where("is_aggregate = ? AND event_date IS NOT NULL", false).
		Order("event_date DESC").
		Limit(limit)
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	err := query.Find(&events).Error
	return events, err
}

// LatestSnapshots returns the most recent snapshot per facility, sorted by
// occupancy rate descending.
func (ss *StatsService) LatestSnapshots() ([]models.FacilitySnapshot, error) {
	var snapshots []models.FacilitySnapshot
	subquery := ss.db.Model(&models.FacilitySnapshot{}).
		Select("facility, MAX(snapshot_date) as max_date").
		Group("facility")
	err := ss.db.
		Joins("JOIN (?) latest ON facility_snapshots.facility = latest.facility AND facility_snapshots.snapshot_date = latest.max_date", subquery).
		Order("occupancy_rate DESC").
		Find(&snapshots).Error
	return snapshots, err
}

// TrendPoint is one step of the national occupancy trend.
type TrendPoint struct {
	SnapshotDate  time.Time `json:"snapshot_date"`
	TotalInmates  int64     `json:"total_inmates"`
	TotalCapacity int64     `json:"total_capacity"`
	AvgOccupancy  float64   `json:"avg_occupancy"`
}

// NationalTrend aggregates inmate totals and average occupancy per
// snapshot date.
func (ss *StatsService) NationalTrend(dateFrom, dateTo *time.Time) ([]TrendPoint, error) {
	var points []TrendPoint
	query := ss.db.Model(&models.FacilitySnapshot{}).
		Select("snapshot_date, SUM(inmates) as total_inmates, SUM(capacity) as total_capacity, AVG(occupancy_rate) as avg_occupancy").
		Where("inmates IS NOT NULL").
		Group("snapshot_date").
		Order("snapshot_date")
	if dateFrom != nil {
		query = query.Where("snapshot_date >= ?", *dateFrom)
	}
	if dateTo != nil {
		query = query.Where("snapshot_date <= ?", *dateTo)
	}
	err := query.Scan(&points).Error
	return points, err
}

// RegionSummary aggregates the latest snapshot per facility by region.
type RegionSummary struct {
	Region        string  `json:"region"`
	TotalInmates  int     `json:"total_inmates"`
	TotalCapacity int     `json:"total_capacity"`
	AvgOccupancy  float64 `json:"avg_occupancy"`
}

// RegionalSummary sums the latest per-facility snapshots by region, sorted
// by average occupancy descending.
func (ss *StatsService) RegionalSummary() ([]RegionSummary, error) {
	latest, err := ss.LatestSnapshots()
	if err != nil {
		return nil, err
	}

	type acc struct {
		inmates  int
		capacity int
		rates    []float64
	}
	regions := make(map[string]*acc)
	for _, snap := range latest {
		if snap.Region == "" {
			continue
		}
		a, ok := regions[snap.Region]
		if !ok {
			a = &acc{}
			regions[snap.Region] = a
		}
		if snap.Inmates != nil {
			a.inmates += *snap.Inmates
		}
		if snap.Capacity != nil {
			a.capacity += *snap.Capacity
		}
		if snap.OccupancyRate != nil {
			a.rates = append(a.rates, *snap.OccupancyRate)
		}
	}

	summaries := make([]RegionSummary, 0, len(regions))
	for region, a := range regions {
		avg := 0.0
		if len(a.rates) > 0 {
			total := 0.0
			for _, r := range a.rates {
				total += r
			}
			avg = total / float64(len(a.rates))
		}
		summaries = append(summaries, RegionSummary{
			Region:        region,
			TotalInmates:  a.inmates,
			TotalCapacity: a.capacity,
			AvgOccupancy:  avg,
		})
	}

	// Highest pressure first
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].AvgOccupancy > summaries[j].AvgOccupancy
	})
	return summaries, nil
}

func applyDateRange(query *gorm.DB, dateFrom, dateTo *time.Time) *gorm.DB {
	if dateFrom != nil {
		query = query.Where("event_date >= ?", *dateFrom)
	}
	if dateTo != nil {
		query = query.Where("event_date <= ?", *dateTo)
	}
	return query
}
