package handlers

import (
	"net/http"
	"sort"
	"time"

	"prison-pulse/internal/narrative"

	"github.com/gin-gonic/gin"
)

// NarrativeHandler handles HTTP requests for the narrative context
type NarrativeHandler struct {
	storage *narrative.Storage
}

// NewNarrativeHandler creates a new narrative handler
func NewNarrativeHandler(storage *narrative.Storage) *NarrativeHandler {
	return &NarrativeHandler{storage: storage}
}

// GetContext handles GET /api/narrative
func (h *NarrativeHandler) GetContext(c *gin.Context) {
	ctx, err := h.storage.LoadContext()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load narrative context",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ctx)
}

// GetStories handles GET /api/narrative/stories with an optional
// status=active|dormant|resolved filter and a keyword filter.
func (h *NarrativeHandler) GetStories(c *gin.Context) {
	ctx, err := h.storage.LoadContext()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load narrative context",
			"details": err.Error(),
		})
		return
	}

	status := c.Query("status")
	keyword := c.Query("keyword")

	var stories []narrative.StoryThread
	for _, story := range ctx.OngoingStorylines {
		if status != "" && story.Status != status {
			continue
		}
		stories = append(stories, story)
	}
	if keyword != "" {
		var filtered []narrative.StoryThread
		for _, story := range stories {
			for _, match := range ctx.StoriesByKeyword(keyword) {
				if match.ID == story.ID {
					filtered = append(filtered, story)
					break
				}
			}
		}
		stories = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"stories": stories,
		"total":   len(stories),
	})
}

// GetStory handles GET /api/narrative/stories/:id
func (h *NarrativeHandler) GetStory(c *gin.Context) {
	ctx, err := h.storage.LoadContext()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load narrative context",
			"details": err.Error(),
		})
		return
	}

	story := ctx.GetStoryByID(c.Param("id"))
	if story == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}
	c.JSON(http.StatusOK, story)
}

// GetCharacters handles GET /api/narrative/characters
func (h *NarrativeHandler) GetCharacters(c *gin.Context) {
	ctx, err := h.storage.LoadContext()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load narrative context",
			"details": err.Error(),
		})
		return
	}

	if name := c.Query("name"); name != "" {
		char := ctx.GetCharacterByName(name)
		if char == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
			return
		}
		c.JSON(http.StatusOK, char)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"characters": ctx.KeyCharacters,
		"total":      len(ctx.KeyCharacters),
	})
}

// GetFollowUps handles GET /api/narrative/followups. With due=true only
// unresolved follow-ups due today or earlier are returned.
func (h *NarrativeHandler) GetFollowUps(c *gin.Context) {
	ctx, err := h.storage.LoadContext()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load narrative context",
			"details": err.Error(),
		})
		return
	}

	var followups []*narrative.FollowUp
	if c.Query("due") == "true" {
		followups = ctx.DueFollowUps(time.Now())
	} else {
		followups = ctx.PendingFollowUps()
	}
	sort.Slice(followups, func(i, j int) bool {
		return followups[i].ExpectedDate.Before(followups[j].ExpectedDate)
	})

	c.JSON(http.StatusOK, gin.H{
		"followups": followups,
		"total":     len(followups),
	})
}
