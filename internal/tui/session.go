package tui

import (
	"context"

	"github.com/verte-zerg/keydrill/internal/adaptive"
	"github.com/verte-zerg/keydrill/internal/content"
	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/weakness"
)

// startDefault begins a run of the configured mode.
func (m *Model) startDefault() {
	switch m.config.Mode {
	case model.ModeTime:
		m.start(content.TimedPool{}, model.ModeTime, "")
	case model.ModeCustom:
		m.start(content.Custom{Text: m.config.Text}, model.ModeCustom, "")
	case model.ModeCurriculum:
		m.startLesson(m.lessonID)
	case model.ModeSmart:
		m.start(content.Smart{Count: m.config.Words, Weak: m.weakSet, Factor: m.config.WeakFactor}, model.ModeSmart, "")
	default:
		m.start(content.FixedWords{Count: m.config.Words}, model.ModeWords, "")
	}
}

func (m *Model) startLesson(id int) {
	if m.book == nil {
		m.start(content.FixedWords{Count: m.config.Words}, model.ModeWords, "")
		return
	}
	lesson, ok := m.book.Lesson(id)
	if !ok {
		lesson = m.book.First()
	}
	m.lessonID = lesson.ID
	m.start(content.Curriculum{Text: lesson.Content}, model.ModeCurriculum, lesson.Title)
}

func (m *Model) startDrill(chars []string) {
	spec := m.ctrl.GenerateDrill(chars)
	m.start(content.Drill{Text: spec.Text}, model.ModeDrill, spec.Title)
}

func (m *Model) start(mode content.Mode, name, title string) {
	opts := engine.Options{StopOnError: m.config.StopOnError}
	if name == model.ModeTime {
		opts.Mode = engine.ModeTimed
		opts.Duration = m.config.Duration
	}
	m.engine = engine.New(m.gen.Generate(mode), opts)
	m.run++
	m.modeName = name
	m.title = title
	m.result = nil
	m.live = idleLive()
	m.checkEmpty()
}

// checkEmpty puts an empty run straight on the result screen, so Enter can
// start over instead of waiting on a text that never completes.
func (m *Model) checkEmpty() {
	if m.engine.Len() > 0 {
		return
	}
	m.log.Error("practice text is empty", "mode", m.modeName, "lesson", m.lessonID)
	m.result = &runResult{empty: true}
}

// advance starts the run chosen after a result.
func (m *Model) advance() {
	decision := m.result.decision
	m.result = nil
	switch d := decision.(type) {
	case adaptive.Drill:
		m.startDrill(d.Chars)
		return
	case adaptive.Next:
		if m.config.Mode == model.ModeCurriculum {
			m.startLesson(d.LessonID)
			return
		}
	}
	m.startDefault()
}

func (m *Model) lessonForRecord() int {
	if m.config.Mode == model.ModeCurriculum {
		return m.lessonID
	}
	return 0
}

// finish persists the completed run and picks what comes next.
func (m *Model) finish() {
	if !m.engine.State().Started() {
		return
	}
	rec := m.engine.Record(m.modeName, m.lessonForRecord(), m.config.Lang)
	snap := m.engine.State().Stats
	session := weakness.Analyze(m.engine.Log(), rec.EndedAt)
	ctx := context.Background()

	res := &runResult{
		record:  rec,
		enemies: weakness.EnemyKeys(session.Chars, 0),
		slow:    weakness.Bottlenecks(session.Bigrams, 0),
	}

	if m.store != nil {
		chars := weakness.SessionCharRows(session)
		bigrams := weakness.SessionBigramRows(session.Bigrams)
		if _, err := m.store.InsertSession(ctx, rec, chars, bigrams); err != nil {
			m.log.Error("failed to save session", "session", rec.ID, "err", err)
		}
	}

	m.heatmap.Update(session)
	if m.store != nil {
		hc, hb := m.heatmap.Rows()
		if err := m.store.SaveHeatmap(ctx, hc, hb); err != nil {
			m.log.Error("failed to save heatmap", "err", err)
		}
	}

	if m.modeName == model.ModeCurriculum && m.book != nil {
		res.passed = m.recordLesson(ctx, snap)
	}

	if m.ctrl != nil && m.modeName != model.ModeDrill &&
		(m.modeName == model.ModeCurriculum || m.config.Adaptive) {
		res.decision = m.ctrl.DecideNextStep(m.lessonID, snap, m.progress, m.heatmap)
		m.log.Info("next step decided", "lesson", m.lessonID, "decision", m.describeDecision(res.decision))
	}

	if m.config.Mode == model.ModeSmart {
		m.refreshWeakSet()
	}

	m.lastWPM = rec.WPM
	m.lastAcc = rec.Accuracy
	m.hasLast = true
	m.allWPM = (m.allWPM*float64(m.allRuns) + float64(rec.WPM)) / float64(m.allRuns+1)
	m.allAcc = (m.allAcc*float64(m.allRuns) + float64(rec.Accuracy)) / float64(m.allRuns+1)
	m.allRuns++

	m.result = res
}

func (m *Model) recordLesson(ctx context.Context, snap stats.Snapshot) bool {
	lesson, ok := m.book.Lesson(m.lessonID)
	if !ok {
		return false
	}
	lp, passed := m.progress.Record(lesson.ID, snap, lesson.Passing)
	m.saveProgress(ctx, lp)
	if !passed {
		return false
	}
	if next, ok := m.book.Next(lesson.ID); ok {
		m.saveProgress(ctx, m.progress.Unlock(next.ID))
	}
	return true
}

func (m *Model) saveProgress(ctx context.Context, lp model.LessonProgress) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveProgress(ctx, lp); err != nil {
		m.log.Error("failed to save lesson progress", "lesson", lp.LessonID, "err", err)
	}
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{Lang: m.config.Lang})
	if err != nil {
		m.log.Error("failed to load session stats", "err", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastWPM = last.WPM
	m.lastAcc = last.Accuracy
	m.hasLast = true

	var wpm, acc float64
	for _, s := range sessions {
		wpm += float64(s.WPM)
		acc += float64(s.Accuracy)
	}
	m.allRuns = len(sessions)
	m.allWPM = wpm / float64(m.allRuns)
	m.allAcc = acc / float64(m.allRuns)
}

func (m *Model) refreshWeakSet() {
	if m.store == nil {
		return
	}
	aggs, err := m.store.GetWeakChars(context.Background(), m.config.WeakWindow, m.config.Lang)
	if err != nil {
		m.log.Error("failed to load weak chars", "err", err)
		return
	}
	m.weakSet = stats.SelectWeakChars(aggs, m.config.WeakTop)
}
