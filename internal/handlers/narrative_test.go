package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prison-pulse/internal/narrative"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupNarrativeRouter(t *testing.T) (*gin.Engine, *narrative.Storage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storage, err := narrative.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}

	handler := NewNarrativeHandler(storage)
	r := gin.New()
	r.GET("/api/narrative", handler.GetContext)
	r.GET("/api/narrative/stories", handler.GetStories)
	r.GET("/api/narrative/stories/:id", handler.GetStory)
	r.GET("/api/narrative/characters", handler.GetCharacters)
	r.GET("/api/narrative/followups", handler.GetFollowUps)
	return r, storage
}

func seedContext(t *testing.T, storage *narrative.Storage) (*narrative.Context, string) {
	t.Helper()
	runDate := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	ctx := narrative.NewContext()
	story := ctx.AddStory(narrative.NewStory{
		Topic:    "Decreto Carceri",
		Summary:  "In discussione alla Camera",
		Keywords: []string{"decreto", "carceri"},
	}, runDate)
	dormant := ctx.AddStory(narrative.NewStory{Topic: "Vecchia inchiesta"}, runDate.AddDate(0, -6, 0))
	dormant.Status = narrative.StoryDormant
	ctx.AddCharacter(narrative.KeyCharacter{
		Name:    "Carlo Nordio",
		Role:    "Ministro della Giustizia",
		Aliases: []string{"Nordio"},
	})
	ctx.AddFollowUp("Voto al Senato", runDate.AddDate(0, 1, 0), story.ID, runDate)

	if err := storage.SaveContext(ctx); err != nil {
		t.Fatalf("SaveContext failed: %v", err)
	}
	return ctx, story.ID
}

func doRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetStoriesFiltersByStatus(t *testing.T) {
	r, storage := setupNarrativeRouter(t)
	seedContext(t, storage)

	w := doRequest(r, "/api/narrative/stories?status=active")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Stories []narrative.StoryThread `json:"stories"`
		Total   int                     `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Total)
	assert.Equal(t, "Decreto Carceri", response.Stories[0].Topic)
}

func TestGetStoryByID(t *testing.T) {
	r, storage := setupNarrativeRouter(t)
	_, storyID := seedContext(t, storage)

	w := doRequest(r, "/api/narrative/stories/"+storyID)
	assert.Equal(t, http.StatusOK, w.Code)

	var story narrative.StoryThread
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &story))
	assert.Equal(t, storyID, story.ID)

	// Unknown id is a 404, not an error
	w = doRequest(r, "/api/narrative/stories/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCharacterByAlias(t *testing.T) {
	r, storage := setupNarrativeRouter(t)
	seedContext(t, storage)

	w := doRequest(r, "/api/narrative/characters?name=nordio")
	assert.Equal(t, http.StatusOK, w.Code)

	var char narrative.KeyCharacter
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &char))
	assert.Equal(t, "Carlo Nordio", char.Name)
}

func TestGetFollowUps(t *testing.T) {
	r, storage := setupNarrativeRouter(t)
	seedContext(t, storage)

	w := doRequest(r, "/api/narrative/followups")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Total int `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Total)
}

func TestGetContextEmptyState(t *testing.T) {
	r, _ := setupNarrativeRouter(t)

	w := doRequest(r, "/api/narrative")
	assert.Equal(t, http.StatusOK, w.Code)

	var ctx narrative.Context
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &ctx))
	assert.Equal(t, narrative.DefaultEditorialTone, ctx.EditorialTone)
	assert.Empty(t, ctx.OngoingStorylines)
}
