package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"prison-pulse/internal/models"
	"prison-pulse/internal/narrative"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// maxArticleTags caps the keyword tags stored per article.
const maxArticleTags = 10

// ArticlesService persists collected articles to the relational archive so
// past runs can be browsed and re-extracted.
type ArticlesService struct {
	db *gorm.DB
}

// NewArticlesService creates a new articles service
func NewArticlesService(db *gorm.DB) *ArticlesService {
	return &ArticlesService{db: db}
}

// SaveArticles stores a batch of enriched articles, skipping links already
// archived. Tags are the article's extracted keywords.
func (as *ArticlesService) SaveArticles(articles map[string]models.EnrichedArticle, runDate time.Time) (SaveResult, error) {
	var result SaveResult

	for link, enriched := range articles {
		var count int64
		if err := as.db.Model(&models.Article{}).Where("link = ?", link).Count(&count).Error; err != nil {
			return result, fmt.Errorf("article lookup failed: %w", err)
		}
		if count > 0 {
			result.Skipped++
			continue
		}

		article := models.Article{
			ID:            uuid.New(),
			Link:          link,
			Title:         enriched.Title,
			Content:       enriched.Content,
			Author:        enriched.Author,
			Source:        enriched.Source,
			Summary:       enriched.Summary,
			PublishedDate: enriched.PublishedDate,
			Tags:          articleTags(enriched),
		}
		if err := as.db.Create(&article).Error; err != nil {
			return result, fmt.Errorf("failed to save article: %w", err)
		}
		result.Saved++
	}

	log.Printf("Articles archived: %d, skipped: %d", result.Saved, result.Skipped)
	return result, nil
}

// RecentArticles returns the newest archived articles.
func (as *ArticlesService) RecentArticles(limit int) ([]models.Article, error) {
	var articles []models.Article
	err := as.db.Order("created_at DESC").Limit(limit).Find(&articles).Error
	return articles, err
}

// articleTags derives tags from the title and summary keywords.
func articleTags(article models.EnrichedArticle) pq.StringArray {
	keywords := narrative.ExtractKeywords(article.Title + " " + article.Summary)

	tags := make([]string, 0, len(keywords))
	for keyword := range keywords {
		tags = append(tags, keyword)
	}
	sort.Strings(tags)
	if len(tags) > maxArticleTags {
		tags = tags[:maxArticleTags]
	}
	return pq.StringArray(tags)
}
