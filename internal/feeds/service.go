// Package feeds pulls articles from Italian prison and justice news RSS
// feeds and shapes them into enriched articles for the collection run.
package feeds

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"prison-pulse/internal/metadata"
	"prison-pulse/internal/models"

	"github.com/mmcdole/gofeed"
)

// Source is one RSS feed to poll.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DefaultSources are the feeds polled when no configuration overrides them.
func DefaultSources() []Source {
	return []Source{
		{Name: "Ristretti Orizzonti", URL: "https://www.ristretti.org/rss"},
		{Name: "Antigone", URL: "https://www.antigone.it/feed"},
		{Name: "Il Dubbio Carcere", URL: "https://www.ildubbio.news/carcere/feed"},
		{Name: "Redattore Sociale Giustizia", URL: "https://www.redattoresociale.it/rss/giustizia"},
	}
}

// Topic keywords an item must mention somewhere in title or description.
var topicKeywords = []string{
	"carcer", "detenut", "penitenziar", "cella", "sovraffollament",
	"rebibbia", "poggioreale", "san vittore", "cpr", "dap",
}

// Service fetches and filters feed items. Items older than the window or
// off-topic are dropped before enrichment.
type Service struct {
	parser    *gofeed.Parser
	extractor *metadata.MetadataExtractor
	sources   []Source
	window    time.Duration
}

// NewService creates a feed service over the given sources. A nil extractor
// disables page-level enrichment; feed-provided fields are used as-is.
func NewService(sources []Source, extractor *metadata.MetadataExtractor) *Service {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Service{
		parser:    gofeed.NewParser(),
		extractor: extractor,
		sources:   sources,
		window:    48 * time.Hour,
	}
}

// FetchArticles polls every source and returns the on-topic recent articles
// keyed by URL. A failing source is logged and skipped; the method fails
// only when every source fails.
func (s *Service) FetchArticles() (map[string]models.EnrichedArticle, error) {
	articles := make(map[string]models.EnrichedArticle)
	failures := 0
	var lastErr error

	for _, source := range s.sources {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		feed, err := s.parser.ParseURLWithContext(source.URL, ctx)
		cancel()
		if err != nil {
			log.Printf("Feed %s failed: %v", source.Name, err)
			failures++
			lastErr = err
			continue
		}

		kept := 0
		for _, item := range feed.Items {
			article, ok := s.itemToArticle(source, item)
			if !ok {
				continue
			}
			articles[article.Link] = article
			kept++
		}
		log.Printf("Feed %s: %d items, %d kept", source.Name, len(feed.Items), kept)
	}

	if failures == len(s.sources) && lastErr != nil {
		return nil, lastErr
	}
	return articles, nil
}

func (s *Service) itemToArticle(source Source, item *gofeed.Item) (models.EnrichedArticle, bool) {
	if item.Link == "" {
		return models.EnrichedArticle{}, false
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published != nil && time.Since(*published) > s.window {
		return models.EnrichedArticle{}, false
	}

	if !onTopic(item.Title + " " + item.Description) {
		return models.EnrichedArticle{}, false
	}

	article := models.EnrichedArticle{
		RawArticle: models.RawArticle{
			Title:         item.Title,
			Link:          item.Link,
			Content:       item.Content,
			PublishedDate: published,
		},
		Source:  sourceName(source, item.Link),
		Summary: item.Description,
	}
	if item.Author != nil {
		article.Author = item.Author.Name
	}

	// Feeds often carry only a teaser; fetch the page for the full text
	// and the byline when an extractor is wired in.
	if s.extractor != nil && (article.Content == "" || article.Author == "") {
		s.enrichFromPage(&article)
	}
	if article.Content == "" {
		article.Content = item.Description
	}
	return article, true
}

func (s *Service) enrichFromPage(article *models.EnrichedArticle) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	meta, err := s.extractor.ExtractMetadata(ctx, article.Link)
	if err != nil {
		log.Printf("Page enrichment failed for %s: %v", article.Link, err)
		return
	}
	if article.Content == "" {
		article.Content = meta.TextContent
	}
	if article.Author == "" {
		article.Author = meta.Author
	}
	if article.Summary == "" {
		article.Summary = meta.Description
	}
	if article.PublishedDate == nil {
		article.PublishedDate = meta.PublishedAt
	}
}

func onTopic(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range topicKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// sourceName prefers the configured name, falling back to the link host.
func sourceName(source Source, link string) string {
	if source.Name != "" {
		return source.Name
	}
	if u, err := url.Parse(link); err == nil {
		return u.Host
	}
	return ""
}
