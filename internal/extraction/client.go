package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"prison-pulse/internal/models"
	"prison-pulse/internal/narrative"
)

// Client talks to the external extraction service. Each category is one
// POST; the response body is the raw JSON payload handed to the parsers in
// this package.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an extraction client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// extractionRequest is the body sent for every category. Context is omitted
// for the categories that do not need narrative grounding. The candidate
// maps ground the service's output: per article, which existing stories
// its keywords already overlap and which tracked characters it mentions.
type extractionRequest struct {
	Context             *narrative.Context                `json:"context,omitempty"`
	Articles            map[string]models.EnrichedArticle `json:"articles"`
	CandidateStories    map[string][]string               `json:"candidate_stories,omitempty"`
	MentionedCharacters map[string][]string               `json:"mentioned_characters,omitempty"`
}

// ExtractStories requests story updates and proposals.
func (c *Client) ExtractStories(ctx *narrative.Context, articles map[string]models.EnrichedArticle) ([]byte, error) {
	candidates := make(map[string][]string)
	for link, article := range articles {
		for _, match := range narrative.FindMatchingStories(article, ctx, narrative.DefaultMinMatchScore) {
			candidates[link] = append(candidates[link], match.Story.ID)
		}
	}
	return c.post("stories", extractionRequest{Context: ctx, Articles: articles, CandidateStories: candidates})
}

// ExtractCharacters requests character updates and proposals.
func (c *Client) ExtractCharacters(ctx *narrative.Context, articles map[string]models.EnrichedArticle) ([]byte, error) {
	mentioned := make(map[string][]string)
	for link, article := range articles {
		for _, char := range narrative.FindMentionedCharacters(article, ctx) {
			mentioned[link] = append(mentioned[link], char.Name)
		}
	}
	return c.post("characters", extractionRequest{Context: ctx, Articles: articles, MentionedCharacters: mentioned})
}

// ExtractFollowUps requests follow-up detection.
func (c *Client) ExtractFollowUps(ctx *narrative.Context, articles map[string]models.EnrichedArticle) ([]byte, error) {
	return c.post("followups", extractionRequest{Context: ctx, Articles: articles})
}

// ExtractEvents requests prison incident extraction.
func (c *Client) ExtractEvents(articles map[string]models.EnrichedArticle) ([]byte, error) {
	return c.post("events", extractionRequest{Articles: articles})
}

// ExtractSnapshots requests capacity snapshot extraction.
func (c *Client) ExtractSnapshots(articles map[string]models.EnrichedArticle) ([]byte, error) {
	return c.post("snapshots", extractionRequest{Articles: articles})
}

func (c *Client) post(category string, request extractionRequest) ([]byte, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", category, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	url := c.baseURL + "/extract/" + category
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", category, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s extraction request failed: %w", category, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s extraction returned HTTP %d", category, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", category, err)
	}
	return payload, nil
}
