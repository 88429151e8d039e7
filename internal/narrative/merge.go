package narrative

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoryUpdate is an AI-proposed update to an existing story thread.
type StoryUpdate struct {
	NewSummary  string
	NewKeywords []string
	ImpactScore float64
	ArticleURLs []string
}

// NewStory is an AI-proposed story thread that matched nothing existing.
type NewStory struct {
	Topic       string
	Summary     string
	Keywords    []string
	ImpactScore float64
	ArticleURLs []string
}

// ApplyStoryUpdate merges an update into the story with the given id.
// The summary is replaced wholesale, keywords are unioned
// case-insensitively (never shrinking), the impact score is last-write-wins,
// and the mention count increments by exactly one per merge no matter how
// many article URLs arrived. Returns false if the story does not exist.
func (c *Context) ApplyStoryUpdate(id string, update StoryUpdate, runDate time.Time) bool {
	story := c.GetStoryByID(id)
	if story == nil {
		return false
	}

	if update.NewSummary != "" {
		story.Summary = update.NewSummary
	}
	story.Keywords = unionKeywords(story.Keywords, update.NewKeywords)
	story.ImpactScore = update.ImpactScore
	story.LastUpdate = runDate
	story.MentionCount++

	for _, url := range update.ArticleURLs {
		if !containsString(story.RelatedArticles, url) {
			story.RelatedArticles = append(story.RelatedArticles, url)
		}
	}
	return true
}

// AddStory creates a new story thread with a fresh id and returns it.
func (c *Context) AddStory(proposed NewStory, runDate time.Time) *StoryThread {
	story := StoryThread{
		ID:              uuid.New().String(),
		Topic:           proposed.Topic,
		Status:          StoryActive,
		FirstSeen:       runDate,
		LastUpdate:      runDate,
		Summary:         proposed.Summary,
		Keywords:        unionKeywords(nil, proposed.Keywords),
		RelatedArticles: append([]string(nil), proposed.ArticleURLs...),
		MentionCount:    1,
		ImpactScore:     proposed.ImpactScore,
	}
	c.OngoingStorylines = append(c.OngoingStorylines, story)
	return &c.OngoingStorylines[len(c.OngoingStorylines)-1]
}

// AddCharacterPosition appends a new position to the named character
// (matched by name or alias). Past positions are never modified.
// Returns false if the character is unknown.
func (c *Context) AddCharacterPosition(name string, position CharacterPosition) bool {
	char := c.GetCharacterByName(name)
	if char == nil {
		return false
	}
	char.Positions = append(char.Positions, position)
	return true
}

// AddCharacter registers a new key character and returns it.
func (c *Context) AddCharacter(char KeyCharacter) *KeyCharacter {
	c.KeyCharacters = append(c.KeyCharacters, char)
	return &c.KeyCharacters[len(c.KeyCharacters)-1]
}

// AddFollowUp appends a follow-up with a fresh id. There is no merge path
// for follow-ups: every detected follow-up becomes one record.
func (c *Context) AddFollowUp(event string, expectedDate time.Time, storyID string, runDate time.Time) *FollowUp {
	followup := FollowUp{
		ID:           uuid.New().String(),
		Event:        event,
		ExpectedDate: expectedDate,
		StoryID:      storyID,
		CreatedAt:    runDate,
	}
	c.PendingFollowups = append(c.PendingFollowups, followup)
	return &c.PendingFollowups[len(c.PendingFollowups)-1]
}

// unionKeywords merges two keyword lists case-insensitively, preserving the
// first-seen spelling and order.
func unionKeywords(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, kw := range existing {
		lower := strings.ToLower(kw)
		if !seen[lower] {
			seen[lower] = true
			merged = append(merged, kw)
		}
	}
	for _, kw := range incoming {
		lower := strings.ToLower(kw)
		if !seen[lower] {
			seen[lower] = true
			merged = append(merged, kw)
		}
	}
	return merged
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
