// Package narrative tracks ongoing story threads, key public figures, and
// pending follow-up events across daily collection runs.
package narrative

import (
	"strings"
	"time"
)

// Story thread statuses. A thread only moves active -> dormant (by age) or
// to resolved (editorial decision); dormant threads are kept, not deleted.
const (
	StoryActive   = "active"
	StoryDormant  = "dormant"
	StoryResolved = "resolved"
)

// DefaultEditorialTone is the tone guidance carried in every context.
const DefaultEditorialTone = "Riflessivo e professionale, attento ai progressi ma consapevole delle sfide sistemiche"

// StoryThread is an ongoing story being tracked across issues.
type StoryThread struct {
	ID              string    `json:"id"`
	Topic           string    `json:"topic"`
	Status          string    `json:"status"`
	FirstSeen       time.Time `json:"first_seen"`
	LastUpdate      time.Time `json:"last_update"`
	Summary         string    `json:"summary"`
	Keywords        []string  `json:"keywords"`
	RelatedArticles []string  `json:"related_articles"`
	MentionCount    int       `json:"mention_count"`
	ImpactScore     float64   `json:"impact_score"`
	WeeklyHighlight bool      `json:"weekly_highlight"`
}

// CharacterPosition is a recorded stance on a specific date. Positions are
// append-only; past entries are never rewritten.
type CharacterPosition struct {
	Date      time.Time `json:"date"`
	Stance    string    `json:"stance"`
	SourceURL string    `json:"source_url,omitempty"`
}

// KeyCharacter is a tracked public figure in the prison/justice system.
type KeyCharacter struct {
	Name      string              `json:"name"`
	Role      string              `json:"role"`
	Aliases   []string            `json:"aliases"`
	Positions []CharacterPosition `json:"positions"`
}

// FollowUp is an expected future event or deadline. StoryID is a weak
// reference: it may point at a story that no longer exists and is resolved
// through GetStoryByID, never held as a pointer.
type FollowUp struct {
	ID           string    `json:"id"`
	Event        string    `json:"event"`
	ExpectedDate time.Time `json:"expected_date"`
	StoryID      string    `json:"story_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Resolved     bool      `json:"resolved"`
}

// Context is the root narrative aggregate. It is read and rewritten as a
// whole on every run; see Storage.
type Context struct {
	OngoingStorylines []StoryThread  `json:"ongoing_storylines"`
	KeyCharacters     []KeyCharacter `json:"key_characters"`
	PendingFollowups  []FollowUp     `json:"pending_followups"`
	EditorialTone     string         `json:"editorial_tone"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// NewContext returns an empty aggregate with the default editorial tone.
func NewContext() *Context {
	return &Context{EditorialTone: DefaultEditorialTone}
}

// ActiveStories returns stories that are still active.
func (c *Context) ActiveStories() []*StoryThread {
	return c.storiesByStatus(StoryActive)
}

// DormantStories returns stories that are dormant but not resolved.
func (c *Context) DormantStories() []*StoryThread {
	return c.storiesByStatus(StoryDormant)
}

func (c *Context) storiesByStatus(status string) []*StoryThread {
	var stories []*StoryThread
	for i := range c.OngoingStorylines {
		if c.OngoingStorylines[i].Status == status {
			stories = append(stories, &c.OngoingStorylines[i])
		}
	}
	return stories
}

// PendingFollowUps returns follow-ups that are not yet resolved.
func (c *Context) PendingFollowUps() []*FollowUp {
	var pending []*FollowUp
	for i := range c.PendingFollowups {
		if !c.PendingFollowups[i].Resolved {
			pending = append(pending, &c.PendingFollowups[i])
		}
	}
	return pending
}

// DueFollowUps returns unresolved follow-ups due on or before asOf.
func (c *Context) DueFollowUps(asOf time.Time) []*FollowUp {
	var due []*FollowUp
	for i := range c.PendingFollowups {
		f := &c.PendingFollowups[i]
		if !f.Resolved && !f.ExpectedDate.After(asOf) {
			due = append(due, f)
		}
	}
	return due
}

// GetCharacterByName finds a character by case-insensitive match against
// its name or any alias.
func (c *Context) GetCharacterByName(name string) *KeyCharacter {
	lower := strings.ToLower(name)
	for i := range c.KeyCharacters {
		char := &c.KeyCharacters[i]
		if strings.ToLower(char.Name) == lower {
			return char
		}
		for _, alias := range char.Aliases {
			if strings.ToLower(alias) == lower {
				return char
			}
		}
	}
	return nil
}

// GetStoryByID finds a story by its ID, or nil if no such story exists.
func (c *Context) GetStoryByID(id string) *StoryThread {
	for i := range c.OngoingStorylines {
		if c.OngoingStorylines[i].ID == id {
			return &c.OngoingStorylines[i]
		}
	}
	return nil
}

// StoriesByKeyword finds stories whose topic or keywords contain the given
// keyword (case-insensitive).
func (c *Context) StoriesByKeyword(keyword string) []*StoryThread {
	lower := strings.ToLower(keyword)
	var matches []*StoryThread
	for i := range c.OngoingStorylines {
		story := &c.OngoingStorylines[i]
		if strings.Contains(strings.ToLower(story.Topic), lower) {
			matches = append(matches, story)
			continue
		}
		for _, kw := range story.Keywords {
			if strings.Contains(strings.ToLower(kw), lower) {
				matches = append(matches, story)
				break
			}
		}
	}
	return matches
}
