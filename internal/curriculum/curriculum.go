// Package curriculum provides the ordered lesson book and lesson progress.
package curriculum

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lessons.yaml
var builtinLessons []byte

// Passing is the threshold a run must meet to complete a lesson.
type Passing struct {
	Accuracy int `yaml:"accuracy"`
	WPM      int `yaml:"wpm"`
}

// Lesson is one step of the curriculum.
type Lesson struct {
	ID      int      `yaml:"id"`
	Title   string   `yaml:"title"`
	Keys    []string `yaml:"keys"`
	Content string   `yaml:"content"`
	Passing Passing  `yaml:"passing"`
	// TargetWPM is the speed the adaptive controller expects before moving
	// on. Zero means unset.
	TargetWPM int `yaml:"target_wpm"`
}

type file struct {
	Lessons []Lesson `yaml:"lessons"`
}

// Book is an ordered, read-only lesson list.
type Book struct {
	lessons []Lesson
	index   map[int]int
}

// Builtin returns the embedded lesson book.
func Builtin() (*Book, error) {
	return LoadFromReader(bytes.NewReader(builtinLessons))
}

// Load reads a lesson book from path, falling back to the embedded book when
// path is empty or does not exist.
func Load(path string) (*Book, error) {
	if path == "" {
		return Builtin()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Builtin()
		}
		return nil, fmt.Errorf("failed to open lessons: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only lessons file.
			_ = cerr
		}
	}()
	book, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return book, nil
}

// LoadFromReader decodes and validates a lesson book.
func LoadFromReader(r io.Reader) (*Book, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode lessons: %w", err)
	}
	if err := validate(doc.Lessons); err != nil {
		return nil, err
	}
	lessons := append([]Lesson(nil), doc.Lessons...)
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].ID < lessons[j].ID })
	index := make(map[int]int, len(lessons))
	for i, l := range lessons {
		lessons[i].Content = strings.TrimSpace(l.Content)
		index[l.ID] = i
	}
	return &Book{lessons: lessons, index: index}, nil
}

func validate(lessons []Lesson) error {
	if len(lessons) == 0 {
		return errors.New("lesson book is empty")
	}
	var errs []error
	seen := map[int]bool{}
	for _, l := range lessons {
		if l.ID <= 0 {
			errs = append(errs, fmt.Errorf("lesson %q: id must be > 0", l.Title))
		}
		if seen[l.ID] {
			errs = append(errs, fmt.Errorf("lesson %d: duplicate id", l.ID))
		}
		seen[l.ID] = true
		if strings.TrimSpace(l.Content) == "" {
			errs = append(errs, fmt.Errorf("lesson %d: content is empty", l.ID))
		}
		if l.Passing.Accuracy < 0 || l.Passing.Accuracy > 100 {
			errs = append(errs, fmt.Errorf("lesson %d: passing accuracy must be between 0 and 100", l.ID))
		}
		if l.Passing.WPM < 0 || l.TargetWPM < 0 {
			errs = append(errs, fmt.Errorf("lesson %d: wpm must be >= 0", l.ID))
		}
	}
	return errors.Join(errs...)
}

// Lessons returns all lessons in id order.
func (b *Book) Lessons() []Lesson {
	return append([]Lesson(nil), b.lessons...)
}

// Lesson returns the lesson with id.
func (b *Book) Lesson(id int) (Lesson, bool) {
	i, ok := b.index[id]
	if !ok {
		return Lesson{}, false
	}
	return b.lessons[i], true
}

// First returns the lowest-id lesson.
func (b *Book) First() Lesson {
	return b.lessons[0]
}

// Next returns the lesson immediately after id.
func (b *Book) Next(id int) (Lesson, bool) {
	after := b.After(id)
	if len(after) == 0 {
		return Lesson{}, false
	}
	return after[0], true
}

// After returns the lessons that follow id, in order.
func (b *Book) After(id int) []Lesson {
	i := sort.Search(len(b.lessons), func(i int) bool { return b.lessons[i].ID > id })
	return append([]Lesson(nil), b.lessons[i:]...)
}
