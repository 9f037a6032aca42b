// Package main provides the CLI entrypoint for keydrill.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keydrill/internal/adaptive"
	"github.com/verte-zerg/keydrill/internal/config"
	"github.com/verte-zerg/keydrill/internal/content"
	"github.com/verte-zerg/keydrill/internal/curriculum"
	"github.com/verte-zerg/keydrill/internal/logging"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/store"
	"github.com/verte-zerg/keydrill/internal/tui"
	"github.com/verte-zerg/keydrill/internal/weakness"
	"github.com/verte-zerg/keydrill/internal/wordlist"
)

const (
	defaultLang        = "en"
	defaultMode        = model.ModeWords
	defaultWords       = 25
	defaultDuration    = 30 * time.Second
	defaultCaps        = 0.0
	defaultPunct       = 0.0
	defaultWeakTop     = 8
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
	defaultTop         = 10
)

const defaultPunctSet = ".,!?;:\"'()-"

var (
	practiceLang        string
	practiceMode        string
	practiceWords       int
	practiceDuration    time.Duration
	practiceStopOnError bool
	practiceText        string
	practiceFile        string
	practiceLesson      int
	practiceAdaptive    bool
	practiceCaps        float64
	practicePunct       float64
	practicePunctSet    string
	practiceWeakTop     int
	practiceWeakFactor  float64
	practiceWeakWindow  int
)

var modes = []string{model.ModeWords, model.ModeTime, model.ModeCustom, model.ModeCurriculum, model.ModeSmart}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keydrill",
		Short:         "Adaptive terminal typing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&practiceMode, "mode", defaultMode, "practice mode: "+strings.Join(modes, "|"))
	flags.StringVar(&practiceLang, "lang", defaultLang, "language code")
	flags.IntVar(&practiceWords, "words", defaultWords, "words per text")
	flags.DurationVar(&practiceDuration, "duration", defaultDuration, "run length in time mode")
	flags.BoolVar(&practiceStopOnError, "stop-on-error", false, "keep the cursor on a mistyped character")
	flags.StringVar(&practiceText, "text", "", "custom text to type (implies --mode custom)")
	flags.StringVar(&practiceFile, "file", "", "file with custom text to type (implies --mode custom)")
	flags.IntVar(&practiceLesson, "lesson", 0, "lesson id in curriculum mode (default: first lesson)")
	flags.BoolVar(&practiceAdaptive, "adaptive", false, "let the adaptive controller pick drills after each run")
	flags.Float64Var(&practiceCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	flags.Float64Var(&practicePunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	flags.StringVar(&practicePunctSet, "punct-set", defaultPunctSet, "punctuation set")
	flags.IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak characters to focus on in smart mode")
	flags.Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak characters in smart mode")
	flags.IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak chars")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLessonsCmd())
	rootCmd.AddCommand(newDrillCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	p := fileCfg.Practice
	applyStringConfig(cmd, "lang", &practiceLang, p.Lang)
	applyStringConfig(cmd, "mode", &practiceMode, p.Mode)
	applyIntConfig(cmd, "words", &practiceWords, p.Words)
	applyDurationConfig(cmd, "duration", &practiceDuration, p.Duration)
	applyBoolConfig(cmd, "stop-on-error", &practiceStopOnError, p.StopOnError)
	applyIntConfig(cmd, "lesson", &practiceLesson, p.Lesson)
	applyBoolConfig(cmd, "adaptive", &practiceAdaptive, p.Adaptive)
	applyFloatConfig(cmd, "caps", &practiceCaps, p.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, p.PunctPct)
	applyStringConfig(cmd, "punct-set", &practicePunctSet, p.PunctSet)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, p.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, p.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, p.WeakWindow)

	cfg := model.Config{
		Lang:        practiceLang,
		Mode:        practiceMode,
		Words:       practiceWords,
		Duration:    practiceDuration,
		StopOnError: practiceStopOnError,
		Lesson:      practiceLesson,
		Adaptive:    practiceAdaptive,
		CapsPct:     practiceCaps,
		PunctPct:    practicePunct,
		PunctSet:    practicePunctSet,
		WeakTop:     practiceWeakTop,
		WeakFactor:  practiceWeakFactor,
		WeakWindow:  practiceWeakWindow,
	}
	if err := resolveCustomText(&cfg, cmd.Flags().Changed("mode"), practiceText, practiceFile); err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger, err := logging.Open(config.PathOr(fileCfg.Paths.Log, config.DefaultLogPath()), slog.LevelInfo)
	if err != nil {
		logErrf("failed to open log, continuing without it: %v\n", err)
		logger = logging.Discard()
	}
	defer func() {
		if cerr := logger.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	wordDir := config.PathOr(fileCfg.Paths.WordLists, config.DefaultWordListDir())
	words, source, err := wordlist.Resolve(wordDir, cfg.Lang)
	if err != nil {
		return wordListLoadError(cfg.Lang, wordDir, err)
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

	ctx := context.Background()
	hmChars, hmBigrams, err := st.LoadHeatmap(ctx)
	if err != nil {
		return fmt.Errorf("failed to load heatmap: %w", err)
	}
	rows, err := st.LoadProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to load lesson progress: %w", err)
	}
	progress := curriculum.Progress(rows)

	if cfg.Mode == model.ModeCurriculum {
		lesson, err := pickLesson(book, progress, cfg.Lesson)
		if err != nil {
			return err
		}
		cfg.Lesson = lesson.ID
	}

	var weakSet map[rune]struct{}
	if cfg.Mode == model.ModeSmart {
		aggs, err := st.GetWeakChars(ctx, cfg.WeakWindow, cfg.Lang)
		if err != nil {
			logErrf("failed to load weak chars: %v\n", err)
		} else {
			weakSet = stats.SelectWeakChars(aggs, cfg.WeakTop)
		}
		if len(weakSet) == 0 {
			logErrln("no stats available for smart mode yet; using uniform words")
		}
	}

	logger.Info("practice started",
		"mode", cfg.Mode,
		"lang", cfg.Lang,
		"words", len(words),
		"word_source", string(source),
		"lesson", cfg.Lesson,
		"adaptive", cfg.Adaptive,
	)

	gen := content.New(words, content.Options{
		CapsPct:  cfg.CapsPct,
		PunctPct: cfg.PunctPct,
		PunctSet: []rune(cfg.PunctSet),
	})
	m := tui.NewModel(tui.Options{
		Config:     cfg,
		Store:      st,
		Generator:  gen,
		Book:       book,
		Controller: adaptive.New(book),
		Progress:   progress,
		Heatmap:    weakness.FromRows(hmChars, hmBigrams),
		WeakSet:    weakSet,
		Logger:     logger,
	})
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveCustomText fills cfg.Text from --text or --file. Either one switches
// the mode to custom unless --mode was given explicitly.
func resolveCustomText(cfg *model.Config, modeSet bool, text, file string) error {
	if text != "" && file != "" {
		return fmt.Errorf("--text and --file are mutually exclusive")
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read --file: %w", err)
		}
		text = string(data)
	}
	if text == "" {
		return nil
	}
	cfg.Text = content.Normalize(text)
	if !modeSet {
		cfg.Mode = model.ModeCustom
	}
	return nil
}

func pickLesson(book *curriculum.Book, progress curriculum.Progress, id int) (curriculum.Lesson, error) {
	if id == 0 {
		for _, l := range book.Lessons() {
			if progress.Unlocked(book, l.ID) && !progress.Completed(l.ID) {
				return l, nil
			}
		}
		return book.First(), nil
	}
	lesson, ok := book.Lesson(id)
	if !ok {
		return curriculum.Lesson{}, fmt.Errorf("unknown lesson %d (run: keydrill lessons)", id)
	}
	if !progress.Unlocked(book, id) {
		return curriculum.Lesson{}, fmt.Errorf("lesson %d is locked (run: keydrill lessons)", id)
	}
	return lesson, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target, value *time.Duration) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateConfig(cfg model.Config) error {
	switch cfg.Mode {
	case model.ModeWords, model.ModeSmart:
		if cfg.Words <= 0 {
			return fmt.Errorf("--words must be > 0")
		}
	case model.ModeTime:
		if cfg.Duration < time.Second {
			return fmt.Errorf("--duration must be at least 1s")
		}
	case model.ModeCustom:
		if strings.TrimSpace(cfg.Text) == "" {
			return fmt.Errorf("custom mode needs --text or --file")
		}
	case model.ModeCurriculum:
		if cfg.Lesson < 0 {
			return fmt.Errorf("--lesson must be >= 0")
		}
	default:
		return fmt.Errorf("--mode must be one of %s", strings.Join(modes, ", "))
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.PunctPct > 0 && cfg.PunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func wordListLoadError(lang, dir string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("no built-in list for %q and no file at %s/%s.txt", lang, dir, lang),
		"Run: keydrill langs",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
