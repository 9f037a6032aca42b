package wordlist

import "testing"

func TestFilterForLang(t *testing.T) {
	tests := []struct {
		lang string
		word string
		keep bool
	}{
		{"en", "hello", true},
		{"EN", "hello", true},
		{"en", "résumé", false},
		{"en", "don’t", false},
		{"en", "co-op", false},
		{"en", "Hello", false},
		{"en", "", false},
		{"es", "año", true},
		{"es", "qué", true},
		{"es", "naïve", false},
		{"de", "straße", true},
		{"de", "año", false},
		{"xx", "42", true},
		{"xx", "", false},
	}
	for _, tt := range tests {
		if got := FilterForLang(tt.lang)(tt.word); got != tt.keep {
			t.Fatalf("FilterForLang(%q)(%q) = %v, want %v", tt.lang, tt.word, got, tt.keep)
		}
	}
}
