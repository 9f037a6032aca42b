package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/keydrill/internal/adaptive"
	"github.com/verte-zerg/keydrill/internal/config"
	"github.com/verte-zerg/keydrill/internal/curriculum"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/statsui"
	"github.com/verte-zerg/keydrill/internal/store"
	"github.com/verte-zerg/keydrill/internal/weakness"
	"github.com/verte-zerg/keydrill/internal/wordlist"
)

var (
	statsLang        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsTop         int
	statsInteractive bool
	statsSession     string

	drillKeys string
)

const recentSessions = 5

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List available word list languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	langs, err := wordlist.Langs(config.PathOr(fileCfg.Paths.WordLists, config.DefaultWordListDir()))
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}
	for _, lang := range wordlist.SortedLangs(langs) {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", lang, langs[lang]); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsTop, "top", defaultTop, "characters shown in the table")
	cmd.Flags().BoolVarP(&statsInteractive, "interactive", "i", false, "browse stats in a TUI")
	cmd.Flags().StringVar(&statsSession, "session", "", "show one session by id (see Recent sessions)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)
	applyIntConfig(cmd, "top", &statsTop, fileCfg.Stats.Top)

	cfg, err := statsConfig(statsLang, statsSince, statsLast, statsCurveWindow, statsTop)
	if err != nil {
		return err
	}

	st, err := store.Open(config.PathOr(fileCfg.Paths.DB, config.DefaultDBPath()))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsSession != "" {
		rec, err := st.GetSession(context.Background(), statsSession)
		if errors.Is(err, store.ErrSessionNotFound) {
			return fmt.Errorf("no session with id %q", statsSession)
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		return writeSession(cmd.OutOrStdout(), rec, terminalWidth())
	}

	if statsInteractive {
		book, err := curriculum.Load(config.PathOr(fileCfg.Paths.Lessons, config.DefaultLessonsPath()))
		if err != nil {
			return fmt.Errorf("failed to load lessons: %w", err)
		}
		program := tea.NewProgram(statsui.NewModel(st, book, cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return writeReport(cmd.OutOrStdout(), report, cfg, terminalWidth())
}

func statsConfig(lang, since string, last, window, top int) (model.StatsConfig, error) {
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if window < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	if top < 1 {
		return model.StatsConfig{}, fmt.Errorf("--top must be >= 1")
	}
	cfg := model.StatsConfig{Lang: lang, Last: last, CurveWindow: window, Top: top}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

func writeReport(w io.Writer, report stats.Report, cfg model.StatsConfig, width int) error {
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderTrend(w, report.Sessions, cfg.CurveWindow, width-len("Accuracy ")); err != nil {
		return err
	}

	title := fmt.Sprintf("Characters (last %d sessions)", len(report.WindowSessionIDs))
	if err := stats.RenderCharTable(w, title, stats.TopByFrequency(report.CharAggsWindow, cfg.Top)); err != nil {
		return err
	}

	hm := weakness.FromRows(report.Heatmap, report.Bigrams)
	if enemies := weakness.EnemyKeys(hm.CharStats(), cfg.Top); len(enemies) > 0 {
		rows := make([][]string, len(enemies))
		for i, k := range enemies {
			rows[i] = []string{
				stats.CharLabel(k.Char),
				fmt.Sprintf("%d%%", k.Accuracy()),
				fmt.Sprintf("%d", k.AvgLatency().Milliseconds()),
				fmt.Sprintf("%d", k.Errors),
			}
		}
		if _, err := fmt.Fprintln(w, "Enemy keys"); err != nil {
			return err
		}
		if err := stats.WriteTable(w, []string{"Char", "Accuracy", "Avg Latency (ms)", "Errors"}, rows, 1, 2, 3); err != nil {
			return err
		}
	}
	if slow := weakness.Bottlenecks(hm.Bigrams, cfg.Top); len(slow) > 0 {
		rows := make([][]string, len(slow))
		for i, b := range slow {
			rows[i] = []string{
				stats.CharLabel(b.Pair),
				fmt.Sprintf("%d", b.AvgLatency().Milliseconds()),
				fmt.Sprintf("%d", b.Samples),
			}
		}
		if _, err := fmt.Fprintln(w, "Slow transitions"); err != nil {
			return err
		}
		if err := stats.WriteTable(w, []string{"Pair", "Avg Latency (ms)", "Samples"}, rows, 1, 2); err != nil {
			return err
		}
	}
	return writeRecent(w, report.Sessions)
}

// writeRecent lists the newest sessions with the ids --session accepts.
func writeRecent(w io.Writer, sessions []model.SessionAggregate) error {
	n := min(len(sessions), recentSessions)
	rows := make([][]string, 0, n)
	for i := len(sessions) - 1; i >= len(sessions)-n; i-- {
		s := sessions[i]
		rows = append(rows, []string{
			s.UUID,
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.Mode,
			fmt.Sprintf("%d", s.WPM),
			fmt.Sprintf("%d%%", s.Accuracy),
		})
	}
	if _, err := fmt.Fprintln(w, "Recent sessions"); err != nil {
		return err
	}
	return stats.WriteTable(w, []string{"ID", "Ended", "Mode", "WPM", "Accuracy"}, rows, 3, 4)
}

// writeSession prints one stored session: its scores, the WPM timeline and
// the keys it missed.
func writeSession(w io.Writer, rec model.SessionRecord, width int) error {
	lesson := ""
	if rec.Lesson > 0 {
		lesson = fmt.Sprintf("  Lesson %d", rec.Lesson)
	}
	if _, err := fmt.Fprintf(w, "Session %s\nMode %s  Lang %s%s  Started %s\nWPM %d  Raw %d  Accuracy %d%%  Errors %d  Time %.1fs  Keystrokes %d\n\n",
		rec.ID, rec.Mode, rec.Lang, lesson, rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
		rec.WPM, rec.RawWPM, rec.Accuracy, rec.ErrorCount, float64(rec.DurationMs)/1000, len(rec.Keystrokes)); err != nil {
		return err
	}

	if len(rec.Timeline) > 0 {
		wpms := make([]float64, len(rec.Timeline))
		for i, p := range rec.Timeline {
			wpms[i] = float64(p.WPM)
		}
		if _, err := fmt.Fprintf(w, "WPM %s\n\n", stats.Sparkline(stats.Resample(wpms, width-len("WPM ")))); err != nil {
			return err
		}
	}

	type miss struct{ expected, typed string }
	counts := map[miss]int{}
	for _, k := range rec.Keystrokes {
		if k.Error {
			counts[miss{k.Expected, k.Char}]++
		}
	}
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No mistakes.")
		return err
	}
	misses := make([]miss, 0, len(counts))
	for m := range counts {
		misses = append(misses, m)
	}
	sort.Slice(misses, func(i, j int) bool {
		if counts[misses[i]] != counts[misses[j]] {
			return counts[misses[i]] > counts[misses[j]]
		}
		if misses[i].expected != misses[j].expected {
			return misses[i].expected < misses[j].expected
		}
		return misses[i].typed < misses[j].typed
	})
	rows := make([][]string, len(misses))
	for i, m := range misses {
		rows[i] = []string{stats.CharLabel(m.expected), stats.CharLabel(m.typed), fmt.Sprintf("%d", counts[m])}
	}
	if _, err := fmt.Fprintln(w, "Mistakes"); err != nil {
		return err
	}
	return stats.WriteTable(w, []string{"Expected", "Typed", "Count"}, rows, 2)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func newLessonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List curriculum lessons with progress",
		Args:  cobra.NoArgs,
		RunE:  runLessonsCmd,
	}
}

func runLessonsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	book, err := curriculum.Load(config.PathOr(fileCfg.Paths.Lessons, config.DefaultLessonsPath()))
	if err != nil {
		return fmt.Errorf("failed to load lessons: %w", err)
	}
	st, err := store.Open(config.PathOr(fileCfg.Paths.DB, config.DefaultDBPath()))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	rows, err := st.LoadProgress(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load lesson progress: %w", err)
	}
	return writeLessons(cmd.OutOrStdout(), book, curriculum.Progress(rows))
}

func writeLessons(w io.Writer, book *curriculum.Book, progress curriculum.Progress) error {
	rows := make([][]string, 0, len(book.Lessons()))
	for _, l := range book.Lessons() {
		status := "locked"
		switch {
		case progress.Completed(l.ID):
			status = "passed"
		case progress.Unlocked(book, l.ID):
			status = "open"
		}
		best := "-"
		if lp := progress[l.ID]; lp.Runs > 0 {
			best = fmt.Sprintf("%d WPM · %d%%", lp.BestWPM, lp.BestAccuracy)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.ID),
			l.Title,
			strings.Join(l.Keys, " "),
			fmt.Sprintf("%d%% · %d WPM", l.Passing.Accuracy, l.Passing.WPM),
			status,
			best,
		})
	}
	return stats.WriteTable(w, []string{"ID", "Lesson", "Keys", "Pass", "Status", "Best"}, rows, 0)
}

func newDrillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Print a drill for your weakest keys",
		Args:  cobra.NoArgs,
		RunE:  runDrillCmd,
	}
	cmd.Flags().StringVar(&drillKeys, "keys", "", "drill these characters instead of the heatmap's weak keys")
	return cmd
}

func runDrillCmd(cmd *cobra.Command, _ []string) error {
	var chars []string
	if drillKeys != "" {
		for _, r := range drillKeys {
			chars = append(chars, string(r))
		}
	} else {
		fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		st, err := store.Open(config.PathOr(fileCfg.Paths.DB, config.DefaultDBPath()))
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		hmChars, hmBigrams, err := st.LoadHeatmap(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load heatmap: %w", err)
		}
		chars = adaptive.WeakKeys(weakness.FromRows(hmChars, hmBigrams))
		if len(chars) == 0 {
			logErrln("no weak keys recorded yet; drilling the home keys")
		}
	}

	spec := adaptive.New(nil).GenerateDrill(chars)
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", spec.Title, spec.Text)
	return err
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keydrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q           # words, time, custom, curriculum or smart
# lang = %q             # Language code
# words = %d              # Words per text
# duration = %q         # Run length in time mode
# stop-on-error = false   # Keep the cursor on a mistyped character
# lesson = 0              # Curriculum lesson (0 = first open lesson)
# adaptive = false        # Let the controller pick drills after each run
# caps = %.2f           # Probability of capitalized first letter (0-1)
# punct = %.2f          # Punctuation probability per word (0-1)
# punct-set = %q
# weak-top = %d            # Weak characters to focus on in smart mode
# weak-factor = %.1f      # Weight factor for weak characters
# weak-window = %d        # Recent sessions used to find weak characters

[stats]
# curve-window = %d
# top = %d

[paths]
# lessons = ""            # Lesson file (default: built-in lessons)
# wordlists = ""          # Directory with <lang>.txt word lists
# db = ""
# log = ""
`,
		defaultMode,
		defaultLang,
		defaultWords,
		defaultDuration.String(),
		defaultCaps,
		defaultPunct,
		defaultPunctSet,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		defaultCurveWindow,
		defaultTop,
	)
}
