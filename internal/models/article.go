package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Article represents a collected and enriched press article persisted for
// archive browsing and re-extraction runs
type Article struct {
	ID    uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Link  string    `json:"link" db:"link" gorm:"uniqueIndex;not null"`
	Title string    `json:"title" db:"title"`

	// Raw feed content and AI-extracted metadata
	Content string `json:"content" db:"content" gorm:"type:text"`
	Author  string `json:"author" db:"author"`
	Source  string `json:"source" db:"source"`
	Summary string `json:"summary" db:"summary" gorm:"type:text"`

	PublishedDate *time.Time     `json:"published_date" db:"published_date"`
	Category      string         `json:"category" db:"category" gorm:"index"`
	Importance    string         `json:"importance" db:"importance"`
	Tags          pq.StringArray `json:"tags" db:"tags" gorm:"type:text[]"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the Article model
func (Article) TableName() string {
	return "articles"
}
