package models

import "time"

// RawArticle is an article as it arrives from the RSS feed, before any
// AI enrichment.
type RawArticle struct {
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	Content       string     `json:"content"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

// EnrichedArticle is a raw article with AI-extracted metadata attached.
// The enrichment output is untrusted; empty fields are normal.
type EnrichedArticle struct {
	RawArticle
	Author  string `json:"author"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
}
