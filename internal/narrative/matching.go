package narrative

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"prison-pulse/internal/models"
)

// DefaultMinMatchScore is the keyword-overlap threshold below which a
// story is not considered related to an article.
const DefaultMinMatchScore = 0.15

var keywordPattern = regexp.MustCompile(`\b[a-zA-ZàèéìòùÀÈÉÌÒÙ]{4,}\b`)

// StoryMatch pairs a matched story with its overlap score.
type StoryMatch struct {
	Story *StoryThread
	Score float64
}

// NormalizeText lowercases text and collapses runs of whitespace.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ExtractKeywords returns the distinct alphabetic tokens of length >= 4
// from the text, lowercased.
func ExtractKeywords(text string) map[string]bool {
	words := keywordPattern.FindAllString(strings.ToLower(text), -1)
	keywords := make(map[string]bool, len(words))
	for _, w := range words {
		keywords[w] = true
	}
	return keywords
}

// KeywordOverlap computes the Jaccard similarity between two keyword sets,
// case-insensitively. Returns 0 when either set is empty.
func KeywordOverlap(keywords1, keywords2 []string) float64 {
	set1 := lowerSet(keywords1)
	set2 := lowerSet(keywords2)

	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	intersection := 0
	for k := range set1 {
		if set2[k] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func lowerSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[strings.ToLower(k)] = true
	}
	return set
}

// FindMatchingStories finds non-resolved stories whose keyword set overlaps
// the article's, sorted by score descending. The article's keywords come
// from its title, summary, and the first 500 characters of content; a
// story's come from its stored keywords, topic, and summary.
func FindMatchingStories(article models.EnrichedArticle, ctx *Context, minScore float64) []StoryMatch {
	content := runePrefix(article.Content, 500)
	articleKeywords := ExtractKeywords(article.Title + " " + article.Summary + " " + content)

	var matches []StoryMatch
	for i := range ctx.OngoingStorylines {
		story := &ctx.OngoingStorylines[i]
		if story.Status == StoryResolved {
			continue
		}

		storyKeywords := lowerSet(story.Keywords)
		storyKeywords[strings.ToLower(story.Topic)] = true
		for kw := range ExtractKeywords(story.Summary) {
			storyKeywords[kw] = true
		}

		score := KeywordOverlap(setToSlice(articleKeywords), setToSlice(storyKeywords))
		if score >= minScore {
			matches = append(matches, StoryMatch{Story: story, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// FindMentionedCharacters finds characters whose name or any alias appears
// in the article text. Each character is reported at most once.
func FindMentionedCharacters(article models.EnrichedArticle, ctx *Context) []*KeyCharacter {
	articleText := NormalizeText(article.Title + " " + article.Content)

	var mentioned []*KeyCharacter
	for i := range ctx.KeyCharacters {
		char := &ctx.KeyCharacters[i]
		names := append([]string{char.Name}, char.Aliases...)
		for _, name := range names {
			if strings.Contains(articleText, NormalizeText(name)) {
				mentioned = append(mentioned, char)
				break
			}
		}
	}
	return mentioned
}

// runePrefix cuts text to at most n characters without splitting a
// multi-byte rune.
func runePrefix(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}

func setToSlice(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
