package facilities

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeKnownAliases(t *testing.T) {
	n := NewNormalizer(DefaultTable())

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Exact alias", "canton mombello", "Canton Mombello (Brescia)"},
		{"City alias", "Brescia", "Canton Mombello (Brescia)"},
		{"Combined spelling", "Brescia Canton Mombello", "Canton Mombello (Brescia)"},
		{"Institutional prefix", "Casa Circondariale di Rebibbia", "Rebibbia (Roma)"},
		{"Carcere prefix", "carcere di padova", "Due Palazzi (Padova)"},
		{"Substring containment", "il carcere milanese di San Vittore", "San Vittore (Milano)"},
		{"Abbreviation", "SMCV", "Santa Maria Capua Vetere"},
		{"Canonical passes through", "Canton Mombello (Brescia)", "Canton Mombello (Brescia)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeUnknownFacility(t *testing.T) {
	n := NewNormalizer(DefaultTable())

	// Unknown facilities get a cleaned title-cased fallback, never an error
	got := n.Normalize("carcere di vigevano")
	if got != "Vigevano" {
		t.Errorf("expected best-effort fallback 'Vigevano', got %q", got)
	}

	if got := n.Normalize(""); got != "" {
		t.Errorf("expected empty output for empty input, got %q", got)
	}
	if got := n.Normalize("   "); got != "" {
		t.Errorf("expected empty output for blank input, got %q", got)
	}
}

func TestNormalizeIsFixedPoint(t *testing.T) {
	n := NewNormalizer(DefaultTable())

	inputs := []string{
		"canton mombello",
		"Casa Circondariale di Brescia",
		"carcere di vigevano",
		"ISTITUTO PENITENZIARIO DI LANCIANO",
		"Rebibbia Nuovo Complesso",
		"Santa Maria Capua Vetere",
		"Via Arginone, Ferrara",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalizeIsDeterministicForMultiFacilityText(t *testing.T) {
	n := NewNormalizer(DefaultTable())

	// Mentions two facilities; the resolved canonical must not vary
	// between calls, since normalized names are stored dedup keys.
	input := "rivolta nelle carceri di brescia e cremona"
	first := n.Normalize(input)
	if first != "Canton Mombello (Brescia)" {
		t.Fatalf("Normalize(%q) = %q, want %q", input, first, "Canton Mombello (Brescia)")
	}
	for i := 0; i < 500; i++ {
		if got := n.Normalize(input); got != first {
			t.Fatalf("Normalize(%q) flipped from %q to %q on call %d", input, first, got, i)
		}
	}

	// A fresh normalizer over the same table agrees too.
	if got := NewNormalizer(DefaultTable()).Normalize(input); got != first {
		t.Errorf("Normalize(%q) differs across normalizers: %q vs %q", input, got, first)
	}
}

func TestRegionIsDeterministicForMultiRegionText(t *testing.T) {
	n := NewNormalizer(DefaultTable())

	input := "istituto di roma e torino"
	first := n.Region(input)
	if first != "Piemonte" {
		t.Fatalf("Region(%q) = %q, want %q", input, first, "Piemonte")
	}
	for i := 0; i < 500; i++ {
		if got := n.Region(input); got != first {
			t.Fatalf("Region(%q) flipped from %q to %q on call %d", input, first, got, i)
		}
	}
}

func TestRegionInference(t *testing.T) {
	n := NewNormalizer(DefaultTable())

	tests := []struct {
		facility string
		region   string
	}{
		{"Canton Mombello (Brescia)", "Lombardia"},
		{"Rebibbia (Roma)", "Lazio"},
		{"Due Palazzi (Padova)", "Veneto"},
		{"Poggioreale (Napoli)", "Campania"},
		{"Asti", "Piemonte"},
		{"Sconosciuto", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := n.Region(tt.facility); got != tt.region {
			t.Errorf("Region(%q) = %q, want %q", tt.facility, got, tt.region)
		}
	}
}

func TestLoadTableOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facilities.yaml")

	config := `aliases:
  "Le Vallette (Torino)":
    - "le vallette"
    - "lorusso e cutugno"
    - "carcere di torino"
`
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	n := NewNormalizer(table)
	if got := n.Normalize("Lorusso e Cutugno"); got != "Le Vallette (Torino)" {
		t.Errorf("expected custom alias to resolve, got %q", got)
	}

	// Regions section was omitted, so defaults still apply
	if got := n.Region("torino"); got != "Piemonte" {
		t.Errorf("expected default regions to apply, got %q", got)
	}
}
