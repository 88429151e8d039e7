package models

import (
	"time"

	"github.com/google/uuid"
)

// FacilitySnapshot represents a point-in-time capacity reading for a
// facility. Uniqueness key: (facility, snapshot_date, source_url).
type FacilitySnapshot struct {
	ID uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`

	Facility string `json:"facility" db:"facility" gorm:"not null;index"`
	Region   string `json:"region" db:"region" gorm:"index"`

	SnapshotDate time.Time `json:"snapshot_date" db:"snapshot_date" gorm:"not null;index"`

	Inmates       *int     `json:"inmates" db:"inmates"`
	Capacity      *int     `json:"capacity" db:"capacity"`
	OccupancyRate *float64 `json:"occupancy_rate" db:"occupancy_rate"`

	SourceURL string `json:"source_url" db:"source_url" gorm:"index"`

	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the FacilitySnapshot model
func (FacilitySnapshot) TableName() string {
	return "facility_snapshots"
}
