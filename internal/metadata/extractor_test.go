package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func TestExtractMetadata(t *testing.T) {
	htmlContent, err := os.ReadFile("testdata/sample_article.html")
	if err != nil {
		t.Fatalf("Failed to read test HTML file: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(htmlContent)
	}))
	defer server.Close()

	extractor := NewMetadataExtractor()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metadata, err := extractor.ExtractMetadata(ctx, server.URL)
	if err != nil {
		t.Fatalf("Failed to extract metadata: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Title", metadata.Title, "Carceri, il decreto approda in aula"},
		{"Description", metadata.Description, "Il decreto sulle carceri arriva alla Camera tra le proteste delle opposizioni."},
		{"Author", metadata.Author, "Giulia Ferri"},
		{"SiteName", metadata.SiteName, "Cronaca Giustizia"},
		{"Language", metadata.Language, "it"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %s = %q, got %q", tt.name, tt.expected, tt.got)
			}
		})
	}

	if metadata.WordCount == 0 {
		t.Error("Expected WordCount > 0")
	}

	if metadata.PublishedAt == nil {
		t.Error("Expected PublishedAt to be set")
	} else {
		expectedTime := time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC)
		if !metadata.PublishedAt.Equal(expectedTime) {
			t.Errorf("Expected PublishedAt = %v, got %v", expectedTime, *metadata.PublishedAt)
		}
	}

	if !strings.Contains(metadata.TextContent, "primo paragrafo") {
		t.Error("Expected TextContent to contain article text")
	}

	// Script and style bodies must not leak into the text
	if strings.Contains(metadata.TextContent, "tracking") || strings.Contains(metadata.TextContent, "font-family") {
		t.Errorf("TextContent contains non-article text: %q", metadata.TextContent)
	}
}

func TestExtractMetadataMinimalHTML(t *testing.T) {
	minimalHTML := `<!DOCTYPE html>
<html>
<head>
	<title>Titolo semplice</title>
</head>
<body>
	<h1>Contenuto</h1>
	<p>Una pagina minima senza metadati strutturati.</p>
</body>
</html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(minimalHTML))
	}))
	defer server.Close()

	extractor := NewMetadataExtractor()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metadata, err := extractor.ExtractMetadata(ctx, server.URL)
	if err != nil {
		t.Fatalf("Failed to extract metadata: %v", err)
	}

	if metadata.Title != "Titolo semplice" {
		t.Errorf("Expected title = 'Titolo semplice', got %q", metadata.Title)
	}

	if metadata.WordCount == 0 {
		t.Error("Expected WordCount > 0 even for minimal HTML")
	}
}

func TestExtractMetadataHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
	}))
	defer server.Close()

	extractor := NewMetadataExtractor()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := extractor.ExtractMetadata(ctx, server.URL)
	if err == nil {
		t.Error("Expected error for 404 response")
	}

	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected error to mention 404, got: %v", err)
	}
}

func TestExtractMetadataInvalidURL(t *testing.T) {
	extractor := NewMetadataExtractor()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := extractor.ExtractMetadata(ctx, "not-a-valid-url")
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestExtractMetadataTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	extractor := NewMetadataExtractor()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := extractor.ExtractMetadata(ctx, server.URL)
	if err == nil {
		t.Error("Expected timeout error")
	}
}
