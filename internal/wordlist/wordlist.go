// Package wordlist loads word lists from files or the built-in pools.
package wordlist

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed builtin/*.txt
var builtinFS embed.FS

// Source tells where a word list came from.
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceFile    Source = "file"
)

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file)
}

// Builtin returns the embedded word pool for lang.
func Builtin(lang string) ([]string, error) {
	file, err := builtinFS.Open("builtin/" + strings.ToLower(lang) + ".txt")
	if err != nil {
		return nil, fmt.Errorf("no built-in word list for %q", lang)
	}
	defer func() {
		_ = file.Close()
	}()
	return readWords(file)
}

// Resolve loads <dir>/<lang>.txt when present and falls back to the built-in
// pool otherwise. Words rejected by the language filter are dropped.
func Resolve(dir, lang string) ([]string, Source, error) {
	words, src, err := resolve(dir, lang)
	if err != nil {
		return nil, "", err
	}
	keep := FilterForLang(lang)
	filtered := words[:0]
	for _, w := range words {
		if keep(w) {
			filtered = append(filtered, w)
		}
	}
	if len(filtered) == 0 {
		return nil, "", fmt.Errorf("word list for %q has no usable words", lang)
	}
	return filtered, src, nil
}

func resolve(dir, lang string) ([]string, Source, error) {
	if dir != "" {
		path := filepath.Join(dir, strings.ToLower(lang)+".txt")
		words, err := LoadWords(path)
		if err == nil {
			return words, SourceFile, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	words, err := Builtin(lang)
	if err != nil {
		return nil, "", err
	}
	return words, SourceBuiltin, nil
}

// Langs lists the languages available from dir and the built-in pools.
func Langs(dir string) (map[string]Source, error) {
	out := map[string]Source{}
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		out[strings.TrimSuffix(entry.Name(), ".txt")] = SourceBuiltin
	}
	if dir == "" {
		return out, nil
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("failed to read word list directory: %w", err)
	}
	for _, entry := range files {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		out[strings.TrimSuffix(name, ".txt")] = SourceFile
	}
	return out, nil
}

// SortedLangs returns the keys of langs in order.
func SortedLangs(langs map[string]Source) []string {
	keys := make([]string, 0, len(langs))
	for k := range langs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
