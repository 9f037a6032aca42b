// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keydrill/internal/adaptive"
	"github.com/verte-zerg/keydrill/internal/content"
	"github.com/verte-zerg/keydrill/internal/curriculum"
	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/logging"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/store"
	"github.com/verte-zerg/keydrill/internal/weakness"
	"github.com/verte-zerg/keydrill/internal/worker"
)

const tickInterval = 250 * time.Millisecond

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	extraStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8071A")).Strikethrough(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

type tickMsg time.Time

type liveMsg worker.Result

type liveClosedMsg struct{}

// Options wires the practice screen to its collaborators. Store, Book and
// Controller may be nil.
type Options struct {
	Config     model.Config
	Store      *store.Store
	Generator  *content.Generator
	Book       *curriculum.Book
	Controller *adaptive.Controller
	Progress   curriculum.Progress
	Heatmap    weakness.Heatmap
	WeakSet    map[rune]struct{}
	Logger     *logging.Logger
}

type runResult struct {
	record   model.SessionRecord
	enemies  []weakness.Key
	slow     []weakness.Bigram
	decision adaptive.Decision
	passed   bool
	// empty marks a run whose text came out empty; nothing was typed.
	empty    bool
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config   model.Config
	store    *store.Store
	gen      *content.Generator
	book     *curriculum.Book
	ctrl     *adaptive.Controller
	progress curriculum.Progress
	heatmap  weakness.Heatmap
	weakSet  map[rune]struct{}
	log      *logging.Logger
	now      func() time.Time

	keys   keyMap
	bar    progress.Model
	worker *worker.Worker
	cancel context.CancelFunc

	width  int
	height int

	engine   *engine.Engine
	run      uint64
	modeName string
	lessonID int
	title    string
	live     stats.LiveStats
	result   *runResult

	lastWPM int
	lastAcc int
	hasLast bool

	allWPM  float64
	allAcc  float64
	allRuns int
}

// NewModel constructs a typing TUI model and starts its stats worker.
// Call Close once the program has exited.
func NewModel(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Progress == nil {
		opts.Progress = curriculum.Progress{}
	}
	if opts.Heatmap.Chars == nil {
		opts.Heatmap = weakness.NewHeatmap()
	}
	m := &Model{
		config:   opts.Config,
		store:    opts.Store,
		gen:      opts.Generator,
		book:     opts.Book,
		ctrl:     opts.Controller,
		progress: opts.Progress,
		heatmap:  opts.Heatmap,
		weakSet:  opts.WeakSet,
		log:      opts.Logger,
		now:      time.Now,
		keys:     defaultKeyMap(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		worker:   worker.New(8),
		lessonID: opts.Config.Lesson,
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.worker.Start(ctx)
	m.startDefault()
	m.loadFooterStats()
	return m
}

// Close stops the stats worker.
func (m *Model) Close() {
	m.cancel()
	m.worker.Stop()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForLive(m.worker.Results()))
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForLive(ch <-chan worker.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return liveClosedMsg{}
		}
		return liveMsg(res)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = m.contentWidth()
		return m, nil
	case tickMsg:
		m.onTick(time.Time(msg))
		return m, tick()
	case liveMsg:
		if m.result == nil && msg.Stats.Run == m.run && m.engine.State().Started() {
			m.live = msg.Stats
		}
		return m, waitForLive(m.worker.Results())
	case liveClosedMsg:
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) onTick(now time.Time) {
	if m.result != nil {
		return
	}
	if m.engine.Options().Mode == engine.ModeTimed {
		m.engine.UpdateTimeLeft(now)
		if m.engine.Complete() {
			m.finish()
			return
		}
	}
	if m.engine.State().Started() {
		m.submitLive(now)
	}
}

// submitLive hands a copy of the engine counters to the stats worker.
func (m *Model) submitLive(now time.Time) {
	in := m.engine.Sample()
	in.Run = m.run
	m.worker.Submit(in, now)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Restart):
		m.result = nil
		m.engine.Reset()
		m.run++
		m.live = idleLive()
		m.checkEmpty()
		return m, nil
	}
	if m.result != nil {
		if key.Matches(msg, m.keys.Continue) {
			m.advance()
		}
		return m, nil
	}

	now := m.now()
	for _, name := range keyNames(msg) {
		m.engine.KeyDown(name, now)
		if m.engine.Complete() {
			break
		}
	}
	if m.engine.Complete() {
		m.finish()
		return m, nil
	}
	m.submitLive(now)
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	if m.result != nil {
		body = m.renderResult()
	} else {
		body = m.renderText()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	bodyHeight := m.height - 1
	main := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return main + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderText() string {
	text := []rune(m.engine.Text())
	if len(text) == 0 {
		return pendingStyle.Render("Nothing to type.")
	}
	styled := buildStyledRunes(text, m.engine.Words(), m.engine.State())
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styled)
	}
	width := m.contentWidth()
	lines := []string{}
	if m.title != "" {
		lines = append(lines, titleStyle.Render(m.title), "")
	}
	lines = append(lines, lipgloss.NewStyle().Width(width).Render(wrapStyledRunes(styled, width)))
	if m.engine.Options().Mode == engine.ModeTimed {
		lines = append(lines, "", m.bar.ViewAs(m.timeFraction()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) timeFraction() float64 {
	total := int(m.engine.Options().Duration / time.Second)
	if total <= 0 {
		return 0
	}
	left := m.engine.State().TimeLeft
	return float64(total-left) / float64(total)
}

func (m *Model) renderFooter() string {
	if m.engine == nil {
		return ""
	}
	st := m.engine.State()
	var segments []string
	if m.engine.Options().Mode == engine.ModeTimed {
		segments = append(segments, fmt.Sprintf("Time %ds", st.TimeLeft))
	} else {
		segments = append(segments, fmt.Sprintf("Progress %d%%", percent(st.Cursor, m.engine.Len())))
	}
	if st.Started() && m.result == nil {
		segments = append(segments, fmt.Sprintf("Now %d WPM · %d%%", m.live.RollingWPM, m.live.Accuracy))
		segments = append(segments, fmt.Sprintf("Combo %d", st.Combo))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", m.lastWPM, m.lastAcc))
	}
	if m.allRuns > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", m.allWPM, m.allAcc))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderResult() string {
	r := m.result
	if r.empty {
		return strings.Join([]string{
			titleStyle.Render("Nothing to type"),
			"",
			"The practice text is empty. Check the word list, the lesson file or --text.",
			"",
			footerStyle.Render("enter try again · ctrl+c quit"),
		}, "\n")
	}
	rec := r.record
	lines := []string{
		titleStyle.Render("Run complete"),
		"",
		fmt.Sprintf("WPM %d  Raw %d  Accuracy %d%%  Errors %d  Time %.1fs",
			rec.WPM, rec.RawWPM, rec.Accuracy, rec.ErrorCount, float64(rec.DurationMs)/1000),
	}
	if len(r.enemies) > 0 {
		keys := make([]string, len(r.enemies))
		for i, k := range r.enemies {
			keys[i] = stats.CharLabel(k.Char)
		}
		lines = append(lines, "Enemy keys: "+strings.Join(keys, " "))
	}
	if len(r.slow) > 0 {
		pairs := make([]string, len(r.slow))
		for i, b := range r.slow {
			pairs[i] = fmt.Sprintf("%s (%dms)", stats.CharLabel(b.Pair), b.AvgLatency().Milliseconds())
		}
		lines = append(lines, "Slow pairs: "+strings.Join(pairs, ", "))
	}
	if m.modeName == model.ModeCurriculum {
		if r.passed {
			lines = append(lines, "Lesson passed.")
		} else {
			lines = append(lines, "Lesson not passed yet.")
		}
	}
	if next := m.describeDecision(r.decision); next != "" {
		lines = append(lines, "Next: "+next)
	}
	lines = append(lines, "", footerStyle.Render("enter continue · esc retry · ctrl+c quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) describeDecision(d adaptive.Decision) string {
	switch d := d.(type) {
	case adaptive.Next:
		if m.book != nil {
			if l, ok := m.book.Lesson(d.LessonID); ok {
				return fmt.Sprintf("lesson %d, %s", l.ID, l.Title)
			}
		}
		return fmt.Sprintf("lesson %d", d.LessonID)
	case adaptive.Drill:
		labels := make([]string, len(d.Chars))
		for i, ch := range d.Chars {
			labels[i] = stats.CharLabel(strings.ToUpper(ch))
		}
		return "drill " + strings.Join(labels, " ")
	case adaptive.Repeat:
		return "repeat"
	default:
		return ""
	}
}

func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(n) / float64(total) * 100)
}

func idleLive() stats.LiveStats {
	return stats.LiveStats{Accuracy: 100}
}
