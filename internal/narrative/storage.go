package narrative

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"prison-pulse/internal/models"
)

// DefaultArchiveDays is how long an active story may go without updates
// before it is marked dormant.
const DefaultArchiveDays = 90

const collectedDirName = "collected_articles"

// Storage persists the narrative context as a single JSON document and
// keeps a dated archive of collected articles. The aggregate is always
// read and rewritten as a whole; concurrent writers must be serialized
// externally.
type Storage struct {
	dataDir     string
	contextFile string
	archiveDays int
}

// NewStorage creates a storage rooted at dataDir, creating the directory
// structure if needed.
func NewStorage(dataDir string) (*Storage, error) {
	s := &Storage{
		dataDir:     dataDir,
		contextFile: "narrative_context.json",
		archiveDays: DefaultArchiveDays,
	}
	if err := os.MkdirAll(filepath.Join(dataDir, collectedDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return s, nil
}

// SetArchiveDays overrides the story archival threshold.
func (s *Storage) SetArchiveDays(days int) {
	s.archiveDays = days
}

// ContextPath returns the path of the narrative context file.
func (s *Storage) ContextPath() string {
	return filepath.Join(s.dataDir, s.contextFile)
}

func (s *Storage) collectedDir() string {
	return filepath.Join(s.dataDir, collectedDirName)
}

// LoadContext loads the narrative context from disk. A missing file yields
// an empty context, never an error; read or decode failures propagate.
func (s *Storage) LoadContext() (*Context, error) {
	data, err := os.ReadFile(s.ContextPath())
	if os.IsNotExist(err) {
		log.Printf("Narrative context not found at %s, starting empty", s.ContextPath())
		return NewContext(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read narrative context: %w", err)
	}

	var ctx Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("failed to parse narrative context: %w", err)
	}
	if ctx.EditorialTone == "" {
		ctx.EditorialTone = DefaultEditorialTone
	}

	log.Printf("Loaded narrative context: %d stories, %d characters, %d followups",
		len(ctx.OngoingStorylines), len(ctx.KeyCharacters), len(ctx.PendingFollowups))
	return &ctx, nil
}

// SaveContext writes the whole aggregate to disk, stamping LastUpdated.
func (s *Storage) SaveContext(ctx *Context) error {
	ctx.LastUpdated = time.Now()

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode narrative context: %w", err)
	}
	if err := os.WriteFile(s.ContextPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write narrative context: %w", err)
	}

	log.Printf("Saved narrative context with %d stories", len(ctx.OngoingStorylines))
	return nil
}

// ArchiveOldStories flips active stories whose last update is older than
// the archive threshold to dormant. Dormant and resolved stories are left
// untouched, so a second call with the same asOf archives nothing.
func (s *Storage) ArchiveOldStories(ctx *Context, asOf time.Time) int {
	cutoff := asOf.AddDate(0, 0, -s.archiveDays)
	archived := 0

	for i := range ctx.OngoingStorylines {
		story := &ctx.OngoingStorylines[i]
		if story.Status == StoryActive && story.LastUpdate.Before(cutoff) {
			story.Status = StoryDormant
			archived++
			log.Printf("Archived story %s (%s)", story.ID, story.Topic)
		}
	}
	return archived
}

// SaveCollectedArticles writes a run's enriched articles to a dated JSON
// file and returns its path.
func (s *Storage) SaveCollectedArticles(articles map[string]models.EnrichedArticle, collectionDate time.Time) (string, error) {
	path := filepath.Join(s.collectedDir(), collectionDate.Format("2006-01-02")+".json")

	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode collected articles: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write collected articles: %w", err)
	}

	log.Printf("Saved %d collected articles to %s", len(articles), path)
	return path, nil
}

// LoadCollectedArticles loads the articles collected on a given date, or an
// empty map if no collection exists for that date.
func (s *Storage) LoadCollectedArticles(collectionDate time.Time) (map[string]models.EnrichedArticle, error) {
	path := filepath.Join(s.collectedDir(), collectionDate.Format("2006-01-02")+".json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("No collected articles for %s", collectionDate.Format("2006-01-02"))
		return map[string]models.EnrichedArticle{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collected articles: %w", err)
	}

	var articles map[string]models.EnrichedArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse collected articles: %w", err)
	}
	return articles, nil
}

// AvailableCollectionDates lists the dates with collected articles, oldest
// first. Files that are not named after a date are skipped.
func (s *Storage) AvailableCollectionDates() ([]time.Time, error) {
	entries, err := os.ReadDir(s.collectedDir())
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var dates []time.Time
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		d, err := time.Parse("2006-01-02", name[:len(name)-len(".json")])
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// CleanupOldCollections removes collected-article files older than the
// archive window and returns how many were deleted.
func (s *Storage) CleanupOldCollections(asOf time.Time) (int, error) {
	dates, err := s.AvailableCollectionDates()
	if err != nil {
		return 0, err
	}

	cutoff := asOf.AddDate(0, 0, -s.archiveDays)
	removed := 0
	for _, d := range dates {
		if d.Before(cutoff) {
			path := filepath.Join(s.collectedDir(), d.Format("2006-01-02")+".json")
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove old collection: %w", err)
			}
			removed++
		}
	}

	if removed > 0 {
		log.Printf("Removed %d old collection files", removed)
	}
	return removed, nil
}
