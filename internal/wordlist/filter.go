package wordlist

import "strings"

// FilterFunc reports whether a word is kept.
type FilterFunc func(string) bool

const latin = "abcdefghijklmnopqrstuvwxyz"

// alphabets holds the lowercase letters a practice word may contain, per
// language. Words with digits, apostrophes or foreign accents are dropped.
var alphabets = map[string]string{
	"en": latin,
	"es": latin + "áéíóúüñ",
	"de": latin + "äöüß",
	"fr": latin + "àâæçéèêëîïôœùûüÿ",
	"pt": latin + "áâãàçéêíóôõú",
}

// FilterForLang returns the word filter for lang. Languages without a known
// alphabet keep every non-empty word.
func FilterForLang(lang string) FilterFunc {
	letters, ok := alphabets[strings.ToLower(lang)]
	if !ok {
		return func(w string) bool { return w != "" }
	}
	return func(w string) bool {
		if w == "" {
			return false
		}
		for _, r := range w {
			if !strings.ContainsRune(letters, r) {
				return false
			}
		}
		return true
	}
}
