// Package collector orchestrates a daily collection run: fetch articles,
// run each extraction category, merge the results into the narrative
// context, and persist events and snapshots. A failure in one category
// never blocks the others.
package collector

import (
	"fmt"
	"log"
	"time"

	"prison-pulse/internal/extraction"
	"prison-pulse/internal/models"
	"prison-pulse/internal/narrative"
	"prison-pulse/internal/services"
)

// Fetcher supplies the day's enriched articles keyed by URL.
type Fetcher interface {
	FetchArticles() (map[string]models.EnrichedArticle, error)
}

// Extractor runs one extraction category over the collected articles and
// returns the raw JSON payload. The context is passed read-only so the
// extractor can ground its output in existing stories and characters.
type Extractor interface {
	ExtractStories(ctx *narrative.Context, articles map[string]models.EnrichedArticle) ([]byte, error)
	ExtractCharacters(ctx *narrative.Context, articles map[string]models.EnrichedArticle) ([]byte, error)
	ExtractFollowUps(ctx *narrative.Context, articles map[string]models.EnrichedArticle) ([]byte, error)
	ExtractEvents(articles map[string]models.EnrichedArticle) ([]byte, error)
	ExtractSnapshots(articles map[string]models.EnrichedArticle) ([]byte, error)
}

// Collector wires the fetcher, the extractor and the stores together.
type Collector struct {
	storage   *narrative.Storage
	events    *services.EventsService
	articles  *services.ArticlesService
	fetcher   Fetcher
	extractor Extractor
}

// New creates a collector. The articles service may be nil to skip the
// relational article archive.
func New(storage *narrative.Storage, events *services.EventsService, articles *services.ArticlesService, fetcher Fetcher, extractor Extractor) *Collector {
	return &Collector{storage: storage, events: events, articles: articles, fetcher: fetcher, extractor: extractor}
}

// RunReport summarizes one collection run. Errors holds one entry per
// failed category; a run with errors still saves whatever succeeded.
type RunReport struct {
	Articles        int      `json:"articles"`
	StoriesUpdated  int      `json:"stories_updated"`
	StoriesCreated  int      `json:"stories_created"`
	StoriesArchived int      `json:"stories_archived"`
	Characters      int      `json:"characters"`
	FollowUps       int      `json:"followups"`
	EventsSaved     int      `json:"events_saved"`
	SnapshotsSaved  int      `json:"snapshots_saved"`
	Errors          []string `json:"errors,omitempty"`
}

// Run executes one full collection pass for the given run date. Only a
// fetch failure or a context save failure is fatal; each extraction
// category fails independently and is recorded in the report.
func (c *Collector) Run(runDate time.Time) (RunReport, error) {
	var report RunReport
	log.Printf("🔄 Starting collection run for %s", runDate.Format("2006-01-02"))

	articles, err := c.fetcher.FetchArticles()
	if err != nil {
		return report, fmt.Errorf("article fetch failed: %w", err)
	}
	report.Articles = len(articles)

	if _, err := c.storage.SaveCollectedArticles(articles, runDate); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("save collected articles: %v", err))
	}
	if c.articles != nil {
		if _, err := c.articles.SaveArticles(articles, runDate); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("archive articles: %v", err))
		}
	}

	ctx, err := c.storage.LoadContext()
	if err != nil {
		return report, fmt.Errorf("failed to load narrative context: %w", err)
	}

	// Age out stale threads before merging so the extractor's view of
	// active stories matches what the next issue will use.
	report.StoriesArchived = c.storage.ArchiveOldStories(ctx, runDate)

	c.mergeStories(ctx, articles, runDate, &report)
	c.mergeCharacters(ctx, articles, runDate, &report)
	c.mergeFollowUps(ctx, articles, runDate, &report)
	c.saveEvents(articles, runDate, &report)
	c.saveSnapshots(articles, runDate, &report)

	if err := c.storage.SaveContext(ctx); err != nil {
		return report, fmt.Errorf("failed to save narrative context: %w", err)
	}

	log.Printf("✅ Collection run complete: %d articles, %d stories updated, %d created, %d events, %d snapshots, %d errors",
		report.Articles, report.StoriesUpdated, report.StoriesCreated, report.EventsSaved, report.SnapshotsSaved, len(report.Errors))
	return report, nil
}

func (c *Collector) mergeStories(ctx *narrative.Context, articles map[string]models.EnrichedArticle, runDate time.Time, report *RunReport) {
	payload, err := c.extractor.ExtractStories(ctx, articles)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("stories: %v", err))
		return
	}
	result, err := extraction.ParseStoryResult(payload)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("stories: %v", err))
		return
	}

	for _, update := range result.UpdatedStories {
		if err := update.Validate(); err != nil {
			log.Printf("Skipping story update: %v", err)
			continue
		}
		applied := ctx.ApplyStoryUpdate(update.ID, narrative.StoryUpdate{
			NewSummary:  update.NewSummary,
			NewKeywords: update.NewKeywords,
			ImpactScore: update.ImpactScore,
			ArticleURLs: update.ArticleURLs,
		}, runDate)
		if !applied {
			log.Printf("Story update for unknown id %s dropped", update.ID)
			continue
		}
		report.StoriesUpdated++
	}

	for _, proposed := range result.NewStories {
		if err := proposed.Validate(); err != nil {
			log.Printf("Skipping new story: %v", err)
			continue
		}
		ctx.AddStory(narrative.NewStory{
			Topic:       proposed.Topic,
			Summary:     proposed.Summary,
			Keywords:    proposed.Keywords,
			ImpactScore: proposed.ImpactScore,
			ArticleURLs: proposed.ArticleURLs,
		}, runDate)
		report.StoriesCreated++
	}
}

func (c *Collector) mergeCharacters(ctx *narrative.Context, articles map[string]models.EnrichedArticle, runDate time.Time, report *RunReport) {
	payload, err := c.extractor.ExtractCharacters(ctx, articles)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("characters: %v", err))
		return
	}
	result, err := extraction.ParseCharacterResult(payload)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("characters: %v", err))
		return
	}

	for _, update := range result.UpdatedCharacters {
		if err := update.Validate(); err != nil {
			log.Printf("Skipping character update: %v", err)
			continue
		}
		applied := ctx.AddCharacterPosition(update.Name, narrative.CharacterPosition{
			Date:      runDate,
			Stance:    update.NewPosition.Stance,
			SourceURL: update.NewPosition.SourceURL,
		})
		if !applied {
			log.Printf("Position for unknown character %q dropped", update.Name)
			continue
		}
		report.Characters++
	}

	for _, proposed := range result.NewCharacters {
		if err := proposed.Validate(); err != nil {
			log.Printf("Skipping new character: %v", err)
			continue
		}
		if ctx.GetCharacterByName(proposed.Name) != nil {
			log.Printf("Character %q already tracked, skipping", proposed.Name)
			continue
		}
		char := narrative.KeyCharacter{
			Name:    proposed.Name,
			Role:    proposed.Role,
			Aliases: proposed.Aliases,
		}
		if proposed.InitialPosition != nil {
			char.Positions = []narrative.CharacterPosition{{
				Date:      runDate,
				Stance:    proposed.InitialPosition.Stance,
				SourceURL: proposed.InitialPosition.SourceURL,
			}}
		}
		ctx.AddCharacter(char)
		report.Characters++
	}
}

func (c *Collector) mergeFollowUps(ctx *narrative.Context, articles map[string]models.EnrichedArticle, runDate time.Time, report *RunReport) {
	payload, err := c.extractor.ExtractFollowUps(ctx, articles)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("followups: %v", err))
		return
	}
	result, err := extraction.ParseFollowUpResult(payload)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("followups: %v", err))
		return
	}

	for _, proposed := range result.FollowUps {
		if err := proposed.Validate(); err != nil {
			log.Printf("Skipping followup: %v", err)
			continue
		}
		expected := extraction.ParseDate(proposed.ExpectedDate)
		// A story_id pointing nowhere is tolerated; the reference stays
		// and resolves to nothing on lookup.
		ctx.AddFollowUp(proposed.Event, *expected, proposed.StoryID, runDate)
		report.FollowUps++
	}
}

func (c *Collector) saveEvents(articles map[string]models.EnrichedArticle, runDate time.Time, report *RunReport) {
	payload, err := c.extractor.ExtractEvents(articles)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("events: %v", err))
		return
	}
	result, err := extraction.ParseEventResult(payload)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("events: %v", err))
		return
	}
	saved, err := c.events.SaveEvents(result.Events, runDate)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("events: %v", err))
		return
	}
	report.EventsSaved = saved.Saved
}

func (c *Collector) saveSnapshots(articles map[string]models.EnrichedArticle, runDate time.Time, report *RunReport) {
	payload, err := c.extractor.ExtractSnapshots(articles)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("snapshots: %v", err))
		return
	}
	result, err := extraction.ParseSnapshotResult(payload)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("snapshots: %v", err))
		return
	}
	saved, err := c.events.SaveSnapshots(result.Snapshots, runDate)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("snapshots: %v", err))
		return
	}
	report.SnapshotsSaved = saved.Saved
}
