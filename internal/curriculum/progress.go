package curriculum

import (
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
)

// Progress is the lesson progress table keyed by lesson id.
type Progress map[int]model.LessonProgress

// Completed reports whether lesson id has been passed.
func (p Progress) Completed(id int) bool {
	return p[id].Completed
}

// Unlocked reports whether lesson id may be practiced. The first lesson of
// a book is always unlocked.
func (p Progress) Unlocked(b *Book, id int) bool {
	if b != nil && b.First().ID == id {
		return true
	}
	return p[id].Unlocked
}

// Record counts one run of lesson id and returns the updated row together
// with whether the run met the passing criteria.
func (p Progress) Record(id int, s stats.Snapshot, criteria Passing) (model.LessonProgress, bool) {
	lp := p[id]
	lp.LessonID = id
	lp.Unlocked = true
	lp.Runs++
	if s.WPM > lp.BestWPM {
		lp.BestWPM = s.WPM
	}
	if s.Accuracy > lp.BestAccuracy {
		lp.BestAccuracy = s.Accuracy
	}
	passed := s.Accuracy >= criteria.Accuracy && s.WPM >= criteria.WPM
	if passed {
		lp.Completed = true
	}
	p[id] = lp
	return lp, passed
}

// Unlock marks lesson id as available and returns the row.
func (p Progress) Unlock(id int) model.LessonProgress {
	lp := p[id]
	lp.LessonID = id
	lp.Unlocked = true
	p[id] = lp
	return lp
}
