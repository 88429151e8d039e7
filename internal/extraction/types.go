// Package extraction defines the typed boundary for AI extraction output.
// Payloads arrive as untrusted JSON and are validated record by record
// before entering the merge logic; a bad record is skipped, never fatal.
package extraction

import (
	"encoding/json"
	"fmt"
	"time"
)

// StoryResult is the story extraction payload.
type StoryResult struct {
	UpdatedStories []UpdatedStory  `json:"updated_stories"`
	NewStories     []ProposedStory `json:"new_stories"`
}

// UpdatedStory proposes a merge into an existing story thread.
type UpdatedStory struct {
	ID          string   `json:"id"`
	NewSummary  string   `json:"new_summary"`
	NewKeywords []string `json:"new_keywords"`
	ImpactScore float64  `json:"impact_score"`
	ArticleURLs []string `json:"article_urls"`
}

// ProposedStory proposes a brand new story thread.
type ProposedStory struct {
	Topic       string   `json:"topic"`
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	ImpactScore float64  `json:"impact_score"`
	ArticleURLs []string `json:"article_urls"`
}

// CharacterResult is the character extraction payload.
type CharacterResult struct {
	UpdatedCharacters []UpdatedCharacter  `json:"updated_characters"`
	NewCharacters     []ProposedCharacter `json:"new_characters"`
}

// Position is a stance attributed to a character.
type Position struct {
	Stance    string `json:"stance"`
	SourceURL string `json:"source_url"`
}

// UpdatedCharacter proposes a new position for an existing character.
type UpdatedCharacter struct {
	Name        string    `json:"name"`
	NewPosition *Position `json:"new_position"`
}

// ProposedCharacter proposes a new tracked character.
type ProposedCharacter struct {
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	Aliases         []string  `json:"aliases"`
	InitialPosition *Position `json:"initial_position"`
}

// FollowUpResult is the follow-up detection payload.
type FollowUpResult struct {
	FollowUps []ProposedFollowUp `json:"followups"`
}

// ProposedFollowUp proposes a future event to track.
type ProposedFollowUp struct {
	Event        string `json:"event"`
	ExpectedDate string `json:"expected_date"`
	StoryID      string `json:"story_id"`
	SourceURL    string `json:"source_url"`
}

// EventResult is the incident extraction payload.
type EventResult struct {
	Events []ExtractedEvent `json:"events"`
}

// ExtractedEvent is a candidate prison incident before normalization and
// deduplication.
type ExtractedEvent struct {
	EventType   string  `json:"event_type"`
	EventDate   string  `json:"event_date"`
	Facility    string  `json:"facility"`
	Region      string  `json:"region"`
	Count       *int    `json:"count"`
	Description string  `json:"description"`
	SourceURL   string  `json:"source_url"`
	Confidence  float64 `json:"confidence"`
	IsAggregate bool    `json:"is_aggregate"`
}

// SnapshotResult is the capacity snapshot extraction payload.
type SnapshotResult struct {
	Snapshots []ExtractedSnapshot `json:"snapshots"`
}

// ExtractedSnapshot is a candidate capacity reading.
type ExtractedSnapshot struct {
	Facility      string   `json:"facility"`
	Region        string   `json:"region"`
	SnapshotDate  string   `json:"snapshot_date"`
	Inmates       *int     `json:"inmates"`
	Capacity      *int     `json:"capacity"`
	OccupancyRate *float64 `json:"occupancy_rate"`
	SourceURL     string   `json:"source_url"`
}

// ParseStoryResult decodes and returns a story extraction payload.
func ParseStoryResult(data []byte) (StoryResult, error) {
	var result StoryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return StoryResult{}, fmt.Errorf("invalid story extraction payload: %w", err)
	}
	return result, nil
}

// ParseCharacterResult decodes and returns a character extraction payload.
func ParseCharacterResult(data []byte) (CharacterResult, error) {
	var result CharacterResult
	if err := json.Unmarshal(data, &result); err != nil {
		return CharacterResult{}, fmt.Errorf("invalid character extraction payload: %w", err)
	}
	return result, nil
}

// ParseFollowUpResult decodes and returns a follow-up payload.
func ParseFollowUpResult(data []byte) (FollowUpResult, error) {
	var result FollowUpResult
	if err := json.Unmarshal(data, &result); err != nil {
		return FollowUpResult{}, fmt.Errorf("invalid followup payload: %w", err)
	}
	return result, nil
}

// ParseEventResult decodes and returns an incident payload.
func ParseEventResult(data []byte) (EventResult, error) {
	var result EventResult
	if err := json.Unmarshal(data, &result); err != nil {
		return EventResult{}, fmt.Errorf("invalid event payload: %w", err)
	}
	return result, nil
}

// ParseSnapshotResult decodes and returns a snapshot payload.
func ParseSnapshotResult(data []byte) (SnapshotResult, error) {
	var result SnapshotResult
	if err := json.Unmarshal(data, &result); err != nil {
		return SnapshotResult{}, fmt.Errorf("invalid snapshot payload: %w", err)
	}
	return result, nil
}

// ParseDate parses an ISO date string. A malformed or empty string yields
// nil: downstream code treats "no date" as a legal state rather than an
// error.
func ParseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}

// Validate checks an updated-story record for mergeable content.
func (u UpdatedStory) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("updated story missing id")
	}
	if u.ImpactScore < 0 || u.ImpactScore > 1 {
		return fmt.Errorf("impact score %v out of range [0,1]", u.ImpactScore)
	}
	return nil
}

// Validate checks a proposed-story record.
func (p ProposedStory) Validate() error {
	if p.Topic == "" {
		return fmt.Errorf("new story missing topic")
	}
	if p.ImpactScore < 0 || p.ImpactScore > 1 {
		return fmt.Errorf("impact score %v out of range [0,1]", p.ImpactScore)
	}
	return nil
}

// Validate checks an updated-character record.
func (u UpdatedCharacter) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("updated character missing name")
	}
	if u.NewPosition == nil || u.NewPosition.Stance == "" {
		return fmt.Errorf("updated character %q missing new position", u.Name)
	}
	return nil
}

// Validate checks a proposed-character record.
func (p ProposedCharacter) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("new character missing name")
	}
	return nil
}

// Validate checks a proposed follow-up; the expected date must parse.
func (p ProposedFollowUp) Validate() error {
	if p.Event == "" {
		return fmt.Errorf("followup missing event description")
	}
	if ParseDate(p.ExpectedDate) == nil {
		return fmt.Errorf("followup %q has unparseable expected_date %q", p.Event, p.ExpectedDate)
	}
	return nil
}

// Validate checks an extracted event record.
func (e ExtractedEvent) Validate() error {
	if e.EventType == "" {
		return fmt.Errorf("event missing event_type")
	}
	if e.SourceURL == "" {
		return fmt.Errorf("event missing source_url")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("event confidence %v out of range [0,1]", e.Confidence)
	}
	return nil
}

// Validate checks an extracted snapshot record.
func (s ExtractedSnapshot) Validate() error {
	if s.Facility == "" {
		return fmt.Errorf("snapshot missing facility")
	}
	if s.SourceURL == "" {
		return fmt.Errorf("snapshot missing source_url")
	}
	return nil
}
