// Package metadata fetches an article page and pulls out the fields the
// enrichment step needs: author, summary, publication date and body text.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ArticleMetadata represents extracted metadata from an article page
type ArticleMetadata struct {
	Title       string
	Description string
	Author      string
	SiteName    string
	PublishedAt *time.Time
	TextContent string
	WordCount   int64
	Language    string
}

// MetadataExtractor handles extracting metadata from web articles
type MetadataExtractor struct {
	httpClient *http.Client
}

// NewMetadataExtractor creates a new metadata extractor
func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// ExtractMetadata fetches an article URL and extracts its metadata.
func (me *MetadataExtractor) ExtractMetadata(ctx context.Context, articleURL string) (*ArticleMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "PrisonPulse/1.0 (newsletter pipeline)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.8,en;q=0.5")

	resp, err := me.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	metadata := &ArticleMetadata{}
	me.extractMetaTags(doc, metadata)
	me.extractJSONLD(doc, metadata)
	me.extractTitleTag(doc, metadata)
	me.extractTextContent(doc, metadata)
	me.extractLanguage(doc, metadata)
	return metadata, nil
}

// extractMetaTags walks every <meta> tag once and fills in whatever Open
// Graph or plain-name metadata is present. First value wins per field.
func (me *MetadataExtractor) extractMetaTags(doc *html.Node, metadata *ArticleMetadata) {
	walkElements(doc, "meta", func(n *html.Node) {
		var key, content string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "property", "name":
				key = attr.Val
			case "content":
				content = attr.Val
			}
		}
		if key == "" || content == "" {
			return
		}

		switch key {
		case "og:title":
			if metadata.Title == "" {
				metadata.Title = content
			}
		case "og:description", "description", "twitter:description":
			if metadata.Description == "" {
				metadata.Description = content
			}
		case "og:site_name":
			if metadata.SiteName == "" {
				metadata.SiteName = content
			}
		case "author", "article:author":
			if metadata.Author == "" {
				metadata.Author = content
			}
		case "article:published_time", "article:published":
			if metadata.PublishedAt == nil {
				if parsed, err := time.Parse(time.RFC3339, content); err == nil {
					metadata.PublishedAt = &parsed
				}
			}
		}
	})
}

func (me *MetadataExtractor) extractJSONLD(doc *html.Node, metadata *ArticleMetadata) {
	walkElements(doc, "script", func(n *html.Node) {
		isJSONLD := false
		for _, attr := range n.Attr {
			if attr.Key == "type" && attr.Val == "application/ld+json" {
				isJSONLD = true
			}
		}
		if !isJSONLD || n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
			return
		}
		me.extractFromJSONLD(strings.TrimSpace(n.FirstChild.Data), metadata)
	})
}

func (me *MetadataExtractor) extractFromJSONLD(jsonldText string, metadata *ArticleMetadata) {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonldText), &data); err != nil {
		return
	}

	var processItem func(interface{})
	processItem = func(item interface{}) {
		if obj, ok := item.(map[string]interface{}); ok {
			typeStr, _ := obj["@type"].(string)
			if typeStr != "NewsArticle" && typeStr != "Article" {
				return
			}
			if headline, ok := obj["headline"].(string); ok && metadata.Title == "" {
				metadata.Title = headline
			}
			if description, ok := obj["description"].(string); ok && metadata.Description == "" {
				metadata.Description = description
			}
			if author, ok := obj["author"].(map[string]interface{}); ok {
				if name, ok := author["name"].(string); ok && metadata.Author == "" {
					metadata.Author = name
				}
			}
			if publisher, ok := obj["publisher"].(map[string]interface{}); ok {
				if name, ok := publisher["name"].(string); ok && metadata.SiteName == "" {
					metadata.SiteName = name
				}
			}
			if datePublished, ok := obj["datePublished"].(string); ok && metadata.PublishedAt == nil {
				if parsed, err := time.Parse(time.RFC3339, datePublished); err == nil {
					metadata.PublishedAt = &parsed
				}
			}
		} else if arr, ok := item.([]interface{}); ok {
			for _, subItem := range arr {
				processItem(subItem)
			}
		}
	}

	processItem(data)
}

func (me *MetadataExtractor) extractTitleTag(doc *html.Node, metadata *ArticleMetadata) {
	if metadata.Title != "" {
		return
	}
	walkElements(doc, "title", func(n *html.Node) {
		if metadata.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			metadata.Title = strings.TrimSpace(n.FirstChild.Data)
		}
	})
}

func (me *MetadataExtractor) extractTextContent(doc *html.Node, metadata *ArticleMetadata) {
	var extractText func(*html.Node) string
	extractText = func(n *html.Node) string {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return ""
		}

		var text strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				text.WriteString(c.Data)
			} else if c.Type == html.ElementNode {
				childText := extractText(c)
				if childText != "" {
					if text.Len() > 0 {
						text.WriteString(" ")
					}
					text.WriteString(childText)
				}
			}
		}
		return text.String()
	}

	re := regexp.MustCompile(`\s+`)
	cleanText := re.ReplaceAllString(strings.TrimSpace(extractText(doc)), " ")

	metadata.TextContent = cleanText
	if cleanText != "" {
		metadata.WordCount = int64(len(strings.Fields(cleanText)))
	}
}

func (me *MetadataExtractor) extractLanguage(doc *html.Node, metadata *ArticleMetadata) {
	walkElements(doc, "html", func(n *html.Node) {
		for _, attr := range n.Attr {
			if attr.Key == "lang" && metadata.Language == "" {
				metadata.Language = attr.Val
			}
		}
	})
}

// walkElements calls fn on every element node with the given tag name.
func walkElements(n *html.Node, tag string, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.Data == tag {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, tag, fn)
	}
}
