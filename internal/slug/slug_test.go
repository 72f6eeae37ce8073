package slug

import (
	"strings"
	"testing"
)

// TestGenerate exercises the slug generator with category-style names,
// punctuation, accents and edge cases.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal names ---
		{name: "simple two words", input: "Running Shoes", want: "running-shoes"},
		{name: "single word", input: "Accessories", want: "accessories"},
		{name: "with year", input: "Summer Sale 2026", want: "summer-sale-2026"},
		{name: "already a slug", input: "running-shoes", want: "running-shoes"},

		// --- Separators and punctuation ---
		{name: "ampersand", input: "Rock & Roll", want: "rock-roll"},
		{name: "apostrophe dropped", input: "Men's Shoes", want: "mens-shoes"},
		{name: "slash", input: "Tops/Tees", want: "tops-tees"},
		{name: "underscore", input: "gift_cards", want: "gift-cards"},
		{name: "dots dropped", input: "Version 2.0.1", want: "version-201"},
		{name: "parentheses", input: "Jackets (Winter)", want: "jackets-winter"},
		{name: "plus and equals", input: "1 + 1 = 2", want: "1-1-2"},
		{name: "tabs and newlines", input: "hello\tworld\nagain", want: "hello-world-again"},

		// --- Accents ---
		{name: "french accents folded", input: "Crème Brûlée", want: "creme-brulee"},
		{name: "german umlauts folded", input: "Über die Brücke", want: "uber-die-brucke"},
		{name: "spanish tilde", input: "Niño Jamón", want: "nino-jamon"},
		{name: "non latin dropped", input: "Shoes 靴", want: "shoes"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "     ", want: ""},
		{name: "only hyphens", input: "-----", want: ""},
		{name: "only punctuation", input: "!@#$%^*()", want: ""},
		{name: "leading and trailing separators", input: "  --hello -- world--  ", want: "hello-world"},
		{name: "single character", input: "A", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies that a valid slug maps to itself.
func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"hello-world", "sale-2026", "a", "123"} {
		if got := Generate(s); got != s {
			t.Errorf("Generate(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestTruncate(t *testing.T) {
	short := "running-shoes"
	if got := Truncate(short); got != short {
		t.Errorf("Truncate(%q) = %q", short, got)
	}

	long := Generate(strings.Repeat("category name ", 20))
	got := Truncate(long)
	if len(got) > MaxLength {
		t.Errorf("Truncate returned %d bytes, want <= %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") || strings.HasSuffix(got, "-nam") {
		t.Errorf("Truncate cut mid-word: %q", got)
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"shoes": true, "shoes-2": true}
	isTaken := func(s string) bool { return taken[s] }

	if got := Unique("boots", isTaken); got != "boots" {
		t.Errorf("Unique(boots) = %q, want boots", got)
	}
	if got := Unique("shoes", isTaken); got != "shoes-3" {
		t.Errorf("Unique(shoes) = %q, want shoes-3", got)
	}
}
