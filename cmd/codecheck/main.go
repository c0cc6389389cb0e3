// Package main provides the CLI entrypoint for codecheck.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/codecheck/internal/backend"
	"github.com/verte-zerg/codecheck/internal/config"
	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/logging"
	"github.com/verte-zerg/codecheck/internal/model"
	"github.com/verte-zerg/codecheck/internal/render"
	"github.com/verte-zerg/codecheck/internal/store"
	"github.com/verte-zerg/codecheck/internal/tui"
)

const (
	envURL              = "CODECHECK_URL"
	defaultMode         = "python"
	defaultIndentUnit   = 4
	defaultExerciseNum  = 1
	defaultExercisesPer = 5
)

var defaultLessons = []model.Lesson{
	{ID: "lesson_01_window", Title: "Lesson 1: Game window", Exercises: defaultExercisesPer},
	{ID: "lesson_02_move_jump", Title: "Lesson 2: Movement and jumping", Exercises: defaultExercisesPer},
	{ID: "lesson_03a_shoot", Title: "Lesson 3a: Shooting", Exercises: defaultExercisesPer},
	{ID: "lesson_03b_projectile_physics", Title: "Lesson 3b: Projectile physics", Exercises: defaultExercisesPer},
	{ID: "lesson_04a_enemy_spawn", Title: "Lesson 4a: Enemy spawning", Exercises: defaultExercisesPer},
	{ID: "lesson_04b_enemy_interaction", Title: "Lesson 4b: Enemy interaction", Exercises: defaultExercisesPer},
}

var (
	flagURL          string
	flagTheme        string
	flagHistory      bool
	flagLogLevel     string
	flagLesson       string
	flagExercise     int
	flagDiscardStale bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "codecheck",
		Short:         "Terminal client for the code checker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUICmd,
	}

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", backend.DefaultBaseURL, "checker backend URL")
	rootCmd.PersistentFlags().StringVar(&flagTheme, "theme", render.DefaultTheme, fmt.Sprintf("color theme (%s)", strings.Join(render.Themes(), ", ")))
	rootCmd.PersistentFlags().BoolVar(&flagHistory, "history", false, "record check runs in the local history")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&flagLesson, "lesson", "", "initially selected lesson id")
	rootCmd.Flags().IntVar(&flagExercise, "exercise", defaultExerciseNum, "initially selected exercise number")
	rootCmd.Flags().BoolVar(&flagDiscardStale, "discard-stale", false, "ignore responses superseded by a newer request")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newExerciseCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newLessonsCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := logging.OpenFile(config.DefaultLogPath(), level)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	client, err := backend.New(cfg.BaseURL, backend.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := tui.Options{Config: cfg, Backend: client, Logger: logger}
	if cfg.History {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer closeHistory(st)
		opts.Recorder = st
	}

	logger.Info().Str("url", cfg.BaseURL).Str("lesson", cfg.Selection.Lesson).Int("exercise", cfg.Selection.Exercise).Msg("starting exercise page")
	m, err := tui.NewModel(ctx, opts)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveConfig merges defaults, the TOML file, the environment and flags,
// in increasing order of precedence.
func resolveConfig(cmd *cobra.Command) (model.Config, zerolog.Level, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, zerolog.NoLevel, fmt.Errorf("failed to load config: %w", err)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return model.Config{}, zerolog.NoLevel, fmt.Errorf("failed to load .env: %w", err)
	}

	applyStringConfig(cmd, "url", &flagURL, fileCfg.Backend.URL)
	if v := strings.TrimSpace(os.Getenv(envURL)); v != "" && !cmd.Flags().Changed("url") {
		flagURL = v
	}
	applyStringConfig(cmd, "theme", &flagTheme, fileCfg.Editor.Theme)
	applyBoolConfig(cmd, "history", &flagHistory, fileCfg.History.Enabled)
	applyStringConfig(cmd, "log-level", &flagLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "lesson", &flagLesson, fileCfg.Selection.Lesson)
	applyIntConfig(cmd, "exercise", &flagExercise, fileCfg.Selection.Exercise)
	applyBoolConfig(cmd, "discard-stale", &flagDiscardStale, fileCfg.UI.DiscardStale)

	editor := model.EditorConfig{
		LineNumbers:  true,
		Mode:         defaultMode,
		Theme:        flagTheme,
		IndentUnit:   defaultIndentUnit,
		LineWrapping: true,
	}
	applyBool(&editor.LineNumbers, fileCfg.Editor.LineNumbers)
	applyString(&editor.Mode, fileCfg.Editor.Mode)
	applyInt(&editor.IndentUnit, fileCfg.Editor.IndentUnit)
	applyBool(&editor.IndentWithTabs, fileCfg.Editor.IndentWithTabs)
	applyBool(&editor.LineWrapping, fileCfg.Editor.LineWrapping)

	lessons := lessonsFromConfig(fileCfg.Lessons)
	lesson := strings.TrimSpace(flagLesson)
	if lesson == "" {
		lesson = lessons[0].ID
	}
	if !slices.ContainsFunc(lessons, func(l model.Lesson) bool { return l.ID == lesson }) {
		lessons = append(lessons, model.Lesson{ID: lesson, Title: lesson, Exercises: max(defaultExercisesPer, flagExercise)})
	}

	cfg := model.Config{
		BaseURL:      strings.TrimRight(strings.TrimSpace(flagURL), "/"),
		Selection:    model.Selection{Lesson: lesson, Exercise: flagExercise},
		Lessons:      lessons,
		Editor:       editor,
		DiscardStale: flagDiscardStale,
		History:      flagHistory,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, zerolog.NoLevel, err
	}
	level, err := logging.ParseLevel(flagLogLevel)
	if err != nil {
		return model.Config{}, zerolog.NoLevel, err
	}
	return cfg, level, nil
}

func lessonsFromConfig(entries []config.LessonConfig) []model.Lesson {
	if len(entries) == 0 {
		return slices.Clone(defaultLessons)
	}
	lessons := make([]model.Lesson, 0, len(entries))
	for _, entry := range entries {
		title := entry.Title
		if title == "" {
			title = entry.ID
		}
		lessons = append(lessons, model.Lesson{ID: entry.ID, Title: title, Exercises: entry.Exercises})
	}
	return lessons
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].StructField() {
			case "BaseURL":
				return fmt.Errorf("--url must be an absolute http(s) URL, got %q", cfg.BaseURL)
			case "IndentUnit":
				return fmt.Errorf("[editor] indent-unit must be between 1 and 16")
			}
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if !slices.Contains(render.Themes(), cfg.Editor.Theme) {
		return fmt.Errorf("--theme must be one of: %s", strings.Join(render.Themes(), ", "))
	}
	if cfg.Selection.Exercise < 1 {
		return fmt.Errorf("--exercise must be >= 1")
	}
	return nil
}

func openHistory() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return st, nil
}

func closeHistory(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close history: %v\n", err)
	}
}

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
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func applyInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func applyBool(target, value *bool) {
	if value != nil {
		*target = *value
	}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# codecheck configuration
# Uncomment a value to enable it. %s and CLI flags override config values.

[backend]
# url = %q

[selection]
# lesson = %q
# exercise = %d

# Lesson selector options. When none are listed the built-in course is used.
# [[lessons]]
# id = "lesson_01_window"
# title = "Lesson 1: Game window"
# exercises = %d

[editor]
# line-numbers = true
# mode = %q               # Syntax highlighting language
# theme = %q             # One of: %s
# indent-unit = %d
# indent-with-tabs = false
# line-wrapping = true

[ui]
# discard-stale = false     # Ignore responses superseded by a newer request

[history]
# enabled = false           # Record check runs in %s

[log]
# level = %q
`,
		envURL,
		backend.DefaultBaseURL,
		defaultLessons[0].ID,
		defaultExerciseNum,
		defaultExercisesPer,
		defaultMode,
		render.DefaultTheme,
		strings.Join(render.Themes(), ", "),
		defaultIndentUnit,
		config.DefaultDBPath(),
		logging.DefaultLevel,
	)
}

func unreachableError(baseURL string) error {
	return errors.New(exerciseui.LoadUnreachableMessage(baseURL))
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
