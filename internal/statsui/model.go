// Package statsui provides the Bubble Tea stats browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keydrill/internal/curriculum"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/store"
	"github.com/verte-zerg/keydrill/internal/weakness"
)

const (
	tabOverview = iota
	tabChars
	tabWeakness
)

const (
	fieldLang = iota
	fieldSince
	fieldLast
	fieldWindow
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats browser.
type Model struct {
	store *store.Store
	book  *curriculum.Book
	cfg   model.StatsConfig

	report   stats.Report
	progress curriculum.Progress
	errMsg   string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	charTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats browser. book may be nil, in which case the
// weakness tab omits lesson progress.
func NewModel(st *store.Store, book *curriculum.Book, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		book:  book,
		cfg:   cfg,
		tabs:  []string{"Overview", "Chars", "Weakness"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.filterInputs = []textinput.Model{
		newInput("Lang: "),
		newInput("Since (YYYY-MM-DD): "),
		newInput("Last: "),
		newInput("Curve window: "),
	}
	m.charTable = table.New(table.WithColumns(charColumns()), table.WithStyles(tableStyles()))
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.renderTabs()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l":
			m.moveTab(1)
			return m, nil
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refresh()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refresh()
			return m, nil
		case "/":
			m.filterMode = true
			m.filterError = ""
			m.fillInputs()
			return m, m.focusInput(fieldLang)
		}
		var cmd tea.Cmd
		if m.activeTab == tabChars {
			m.charTable, cmd = m.charTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderNav() + "\n" + headerStyle.Render(truncateLine(m.filterSummary(), m.width))
	footer := m.renderHelp()
	bodyHeight := m.bodyHeight()

	var body string
	switch {
	case m.filterMode:
		body = m.renderFilterForm()
	case m.activeTab == tabChars && len(m.report.CharAggsWindow) == 0:
		body = "No character stats found."
	case m.activeTab == tabChars:
		body = mutedStyle.Render(m.charTable.View())
	default:
		body = m.viewports[m.activeTab].View()
	}
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), footer}, "\n")
}

func (m *Model) bodyHeight() int {
	navHeight := lipgloss.Height(activeNavStyle.Render("X"))
	footerHeight := lipgloss.Height(m.renderHelp())
	h := m.height - navHeight - 1 - footerHeight
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	h := m.bodyHeight()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = h
	}
	m.charTable.SetWidth(m.width)
	m.charTable.SetHeight(maxInt(1, h-1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = maxInt(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabChars {
		m.charTable.Focus()
	} else {
		m.charTable.Blur()
	}
}

func (m *Model) refresh() {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.report = report
	if m.book != nil {
		progress, err := m.store.LoadProgress(ctx)
		if err != nil {
			m.errMsg = err.Error()
			return
		}
		m.progress = progress
	}
	m.charTable.SetRows(charRows(report.CharAggsWindow))
	m.renderTabs()
}

func (m *Model) renderTabs() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Sessions, m.cfg.CurveWindow, width))
	m.viewports[tabWeakness].SetContent(renderWeakness(m.report, m.book, m.progress))
}

func (m *Model) renderNav() string {
	parts := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts[i] = activeNavStyle.Render(tab)
		} else {
			parts[i] = inactiveNavStyle.Render(tab)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) filterSummary() string {
	lang := m.cfg.Lang
	if lang == "" {
		lang = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("lang=%s  since=%s  last=%s  window=%d", lang, since, last, m.cfg.CurveWindow)
}

func (m *Model) renderHelp() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("left/right: tab  up/down: scroll  -/=: window  /: filter  q: quit")
	if m.errMsg != "" {
		help += "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter"}
	for _, in := range m.filterInputs {
		lines = append(lines, in.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		return m, nil
	case tea.KeyEnter:
		cfg, err := parseFilter(m.filterValues(), m.cfg.Top)
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.refresh()
		return m, nil
	case tea.KeyTab:
		return m, m.focusInput(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.focusInput(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) fillInputs() {
	m.filterInputs[fieldLang].SetValue(m.cfg.Lang)
	m.filterInputs[fieldSince].SetValue("")
	if m.cfg.Since != nil {
		m.filterInputs[fieldSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	}
	m.filterInputs[fieldLast].SetValue("")
	if m.cfg.Last > 0 {
		m.filterInputs[fieldLast].SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.filterInputs[fieldWindow].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) filterValues() [4]string {
	var out [4]string
	for i := range out {
		out[i] = strings.TrimSpace(m.filterInputs[i].Value())
	}
	return out
}

func (m *Model) focusInput(idx int) tea.Cmd {
	n := len(m.filterInputs)
	m.filterIndex = (idx + n) % n
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// parseFilter turns the filter form fields into a stats configuration.
func parseFilter(values [4]string, top int) (model.StatsConfig, error) {
	cfg := model.StatsConfig{Lang: values[fieldLang], Top: top}
	if v := values[fieldSince]; v != "" {
		since, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &since
	}
	if v := values[fieldLast]; v != "" {
		last, err := strconv.Atoi(v)
		if err != nil || last < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or a positive integer)")
		}
		cfg.Last = last
	}
	cfg.CurveWindow = 1
	if v := values[fieldWindow]; v != "" {
		window, err := strconv.Atoi(v)
		if err != nil || window < 1 {
			return cfg, fmt.Errorf("invalid curve window (use an integer >= 1)")
		}
		cfg.CurveWindow = window
	}
	return cfg, nil
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	sum := stats.Summarize(sessions)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Sessions", strconv.Itoa(sum.Sessions)),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", sum.AvgWPM)),
		metricCard("Best WPM", strconv.Itoa(sum.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", sum.AvgAccuracy)),
		metricCard("Typed", sum.Typed.Round(time.Second).String()),
	)
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, sessions, window, maxInt(10, width-10)); err != nil {
		return cards + "\n\n" + fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(cards+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func renderWeakness(r stats.Report, book *curriculum.Book, progress curriculum.Progress) string {
	hm := weakness.FromRows(r.Heatmap, r.Bigrams)
	var lines []string

	enemies := weakness.EnemyKeys(hm.CharStats(), 0)
	if len(enemies) == 0 {
		lines = append(lines, "No enemy keys.")
	} else {
		lines = append(lines, "Enemy keys")
		for _, k := range enemies {
			lines = append(lines, fmt.Sprintf("  %-8s %3d%%  %4dms  %d presses",
				stats.CharLabel(k.Char), k.Accuracy(), k.AvgLatency().Milliseconds(), k.Presses))
		}
	}

	lines = append(lines, "")
	slow := weakness.Bottlenecks(hm.Bigrams, 0)
	if len(slow) == 0 {
		lines = append(lines, "No slow transitions.")
	} else {
		lines = append(lines, "Slow transitions")
		for _, b := range slow {
			lines = append(lines, fmt.Sprintf("  %-8s %4dms  %d samples",
				stats.CharLabel(b.Pair), b.AvgLatency().Milliseconds(), b.Samples))
		}
	}

	if book != nil {
		lines = append(lines, "", "Lessons")
		for _, l := range book.Lessons() {
			mark := " "
			switch {
			case progress.Completed(l.ID):
				mark = "x"
			case !progress.Unlocked(book, l.ID):
				mark = "-"
			}
			best := ""
			if lp, ok := progress[l.ID]; ok && lp.Runs > 0 {
				best = fmt.Sprintf("  best %d WPM · %d%%", lp.BestWPM, lp.BestAccuracy)
			}
			lines = append(lines, fmt.Sprintf("  [%s] %2d %s%s", mark, l.ID, l.Title, best))
		}
	}
	return strings.Join(lines, "\n")
}

func charColumns() []table.Column {
	return []table.Column{
		{Title: "Char", Width: 8},
		{Title: "Accuracy", Width: 9},
		{Title: "Avg Latency (ms)", Width: 17},
		{Title: "Correct", Width: 8},
		{Title: "Incorrect", Width: 9},
	}
}

func charRows(aggs []model.CharAggregate) []table.Row {
	sorted := append([]model.CharAggregate(nil), aggs...)
	sort.Slice(sorted, func(i, j int) bool {
		ti := sorted[i].Correct + sorted[i].Incorrect
		tj := sorted[j].Correct + sorted[j].Incorrect
		if ti == tj {
			return sorted[i].Char < sorted[j].Char
		}
		return ti > tj
	})
	rows := make([]table.Row, 0, len(sorted))
	for _, agg := range sorted {
		total := agg.Correct + agg.Incorrect
		acc := 0.0
		if total > 0 {
			acc = float64(agg.Correct) / float64(total) * 100
		}
		lat := 0.0
		if agg.LatencyCount > 0 {
			lat = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
		}
		rows = append(rows, table.Row{
			stats.CharLabel(agg.Char),
			fmt.Sprintf("%.2f%%", acc),
			fmt.Sprintf("%.1f", lat),
			strconv.Itoa(agg.Correct),
			strconv.Itoa(agg.Incorrect),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return styles
}

func newInput(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Cursor.SetMode(cursor.CursorBlink)
	return in
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return n / 5 * 5
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
