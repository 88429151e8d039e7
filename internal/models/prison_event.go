package models

import (
	"time"

	"github.com/google/uuid"
)

// PrisonEvent represents a discrete incident extracted from an article.
// Records are created once per (source, type, date, normalized facility)
// combination that survives deduplication and are never updated in place.
type PrisonEvent struct {
	ID uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`

	EventType string     `json:"event_type" db:"event_type" gorm:"not null;index"`
	EventDate *time.Time `json:"event_date" db:"event_date" gorm:"index"`

	// Facility is always stored in canonical (normalized) form
	Facility string `json:"facility" db:"facility" gorm:"index"`
	Region   string `json:"region" db:"region" gorm:"index"`

	Count       *int    `json:"count" db:"count"`
	Description string  `json:"description" db:"description" gorm:"type:text"`
	SourceURL   string  `json:"source_url" db:"source_url" gorm:"index"`
	Confidence  float64 `json:"confidence" db:"confidence" gorm:"default:1.0"`

	// IsAggregate flags statistical roll-ups (e.g. year-to-date totals)
	// that must not be counted alongside individual incidents
	IsAggregate bool `json:"is_aggregate" db:"is_aggregate" gorm:"default:false;index"`

	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the PrisonEvent model
func (PrisonEvent) TableName() string {
	return "prison_events"
}
