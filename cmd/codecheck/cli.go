package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/codecheck/internal/backend"
	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/historyui"
	"github.com/verte-zerg/codecheck/internal/logging"
	"github.com/verte-zerg/codecheck/internal/model"
	"github.com/verte-zerg/codecheck/internal/render"
	"github.com/verte-zerg/codecheck/internal/stats"
)

const (
	formatText = "text"
	formatHTML = "html"
	formatJSON = "json"

	defaultOutputWidth = 80
	defaultTrendWindow = 5
)

var errCheckFailed = errors.New("check did not pass")

var (
	checkFormat string

	historyLesson string
	historySince  string
	historyLast   int
	historyPlain  bool
)

// textBuffer is a display region for one-shot commands.
type textBuffer struct {
	mu   sync.Mutex
	text string
}

func (b *textBuffer) SetText(text string) {
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
}

func (b *textBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

type blockBuffer struct {
	mu     sync.Mutex
	blocks []exerciseui.Block
}

func (b *blockBuffer) Show(blocks []exerciseui.Block) {
	b.mu.Lock()
	b.blocks = append([]exerciseui.Block(nil), blocks...)
	b.mu.Unlock()
}

func (b *blockBuffer) Clear() {
	b.mu.Lock()
	b.blocks = nil
	b.mu.Unlock()
}

func (b *blockBuffer) Blocks() []exerciseui.Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]exerciseui.Block(nil), b.blocks...)
}

type alertBuffer struct {
	mu     sync.Mutex
	alerts []string
}

func (a *alertBuffer) Alert(msg string) {
	a.mu.Lock()
	a.alerts = append(a.alerts, msg)
	a.mu.Unlock()
}

func (a *alertBuffer) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.alerts) == 0 {
		return nil
	}
	return errors.New(strings.Join(a.alerts, "\n"))
}

type fixedSelection model.Selection

func (s fixedSelection) Selection() model.Selection {
	return model.Selection(s)
}

type staticEditor string

func (e staticEditor) Value() string {
	return string(e)
}

// capturingBackend keeps the last check outcome for machine-readable output.
type capturingBackend struct {
	exerciseui.Backend
	mu     sync.Mutex
	result *model.CheckResult
	err    error
}

func (c *capturingBackend) Check(ctx context.Context, req model.CheckRequest) (model.CheckResult, error) {
	result, err := c.Backend.Check(ctx, req)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err == nil {
		c.result = &result
	}
	return result, err
}

type page struct {
	title, description, hint, example textBuffer
	results                           blockBuffer
	alerts                            alertBuffer
}

func (p *page) elements(sel model.Selection) exerciseui.Elements {
	return exerciseui.Elements{
		Title:       &p.title,
		Description: &p.description,
		Hint:        &p.hint,
		Example:     &p.example,
		Results:     &p.results,
		Selection:   fixedSelection(sel),
		Notify:      &p.alerts,
	}
}

func parseSelection(args []string) (model.Selection, error) {
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return model.Selection{}, fmt.Errorf("exercise must be a positive integer, got %q", args[1])
	}
	return model.Selection{Lesson: args[0], Exercise: n}, nil
}

func cliLogger(level zerolog.Level) zerolog.Logger {
	return logging.NewConsole(os.Stderr, level)
}

func newExerciseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercise <lesson> <n>",
		Short: "Print an exercise",
		Args:  cobra.ExactArgs(2),
		RunE:  runExerciseCmd,
	}
}

func runExerciseCmd(cmd *cobra.Command, args []string) error {
	sel, err := parseSelection(args)
	if err != nil {
		return err
	}
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := cliLogger(level)
	client, err := backend.New(cfg.BaseURL, backend.WithLogger(logger))
	if err != nil {
		return err
	}

	var p page
	ctrl, err := exerciseui.New(client, staticEditor(""), p.elements(sel),
		exerciseui.WithLogger(logger), exerciseui.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return err
	}
	ctrl.LoadExercise(cmd.Context())
	if err := p.alerts.Err(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sections := []string{
		render.Plain(p.title.String()),
		"",
		render.Plain(p.description.String()),
	}
	if hint := p.hint.String(); hint != "" {
		sections = append(sections, "", "Hint: "+render.Plain(hint))
	}
	example := render.Plain(p.example.String())
	if example != exerciseui.ExamplePlaceholder && isTerminal(os.Stdout) {
		example = render.Highlight(example, cfg.Editor.Mode, cfg.Editor.Theme)
	}
	sections = append(sections, "", "Example:", example)
	if _, err := fmt.Fprintln(out, strings.Join(sections, "\n")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <lesson> <n> [file|-]",
		Short: "Submit code for checking",
		Long:  "Submit code from a file, or from stdin when the file is omitted or '-'.",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runCheckCmd,
	}
	cmd.Flags().StringVar(&checkFormat, "format", formatText, "output format (text, html, json)")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	switch checkFormat {
	case formatText, formatHTML, formatJSON:
	default:
		return fmt.Errorf("--format must be one of: text, html, json")
	}
	sel, err := parseSelection(args)
	if err != nil {
		return err
	}
	code, err := readCode(cmd, args)
	if err != nil {
		return err
	}
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := cliLogger(level)
	client, err := backend.New(cfg.BaseURL, backend.WithLogger(logger))
	if err != nil {
		return err
	}

	capture := &capturingBackend{Backend: client}
	opts := []exerciseui.Option{exerciseui.WithLogger(logger), exerciseui.WithBaseURL(cfg.BaseURL)}
	if cfg.History {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer closeHistory(st)
		opts = append(opts, exerciseui.WithRecorder(st))
	}

	var p page
	ctrl, err := exerciseui.New(capture, staticEditor(code), p.elements(sel), opts...)
	if err != nil {
		return err
	}
	ctrl.RunCode(cmd.Context())
	if err := p.alerts.Err(); err != nil {
		return err
	}

	blocks := p.results.Blocks()
	if err := writeCheckOutput(cmd.OutOrStdout(), checkFormat, cfg.Editor.Theme, blocks, capture); err != nil {
		return err
	}
	if !passed(blocks) {
		return errCheckFailed
	}
	return nil
}

func readCode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) < 3 || args[2] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read code from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[2])
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return string(data), nil
}

func passed(blocks []exerciseui.Block) bool {
	for _, b := range blocks {
		if b.Kind == exerciseui.BlockSummary {
			return b.Passed
		}
	}
	return false
}

type checkEnvelope struct {
	Success bool               `json:"success"`
	Result  *model.CheckResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func writeCheckOutput(w io.Writer, format, theme string, blocks []exerciseui.Block, capture *capturingBackend) error {
	var out string
	switch format {
	case formatHTML:
		html, err := render.HTML(blocks)
		if err != nil {
			return err
		}
		out = strings.TrimRight(html, "\n")
	case formatJSON:
		capture.mu.Lock()
		env := checkEnvelope{Success: capture.err == nil, Result: capture.result}
		if capture.err != nil {
			env.Error = capture.err.Error()
			if appErr, ok := backend.IsAppError(capture.err); ok {
				env.Error = appErr.Message
			}
		}
		capture.mu.Unlock()
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		out = string(data)
	default:
		out = render.NewTerminal(theme).Blocks(blocks, outputWidth(os.Stdout))
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func outputWidth(f *os.File) int {
	if !isTerminal(f) {
		return defaultOutputWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultOutputWidth
	}
	return width
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is running",
		Args:  cobra.NoArgs,
		RunE:  runHealthCmd,
	}
}

func runHealthCmd(cmd *cobra.Command, _ []string) error {
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := cliLogger(level)
	client, err := backend.New(cfg.BaseURL, backend.WithLogger(logger))
	if err != nil {
		return err
	}
	health, err := client.Health(cmd.Context())
	if err != nil {
		if appErr, ok := backend.IsAppError(err); ok {
			return fmt.Errorf("backend unhealthy: %s", appErr.Message)
		}
		logger.Error().Err(err).Str("url", cfg.BaseURL).Msg("health check failed")
		return unreachableError(cfg.BaseURL)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", health.Status, health.Message); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newLessonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List the lesson selector options",
		Args:  cobra.NoArgs,
		RunE:  runLessonsCmd,
	}
}

func runLessonsCmd(cmd *cobra.Command, _ []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	idWidth := 0
	for _, l := range cfg.Lessons {
		idWidth = max(idWidth, len(l.ID))
	}
	for _, l := range cfg.Lessons {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %2d  %s\n", idWidth, l.ID, l.Exercises, l.Title); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded check runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyLesson, "lesson", "", "lesson filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print tables instead of the interactive browser")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	filter := model.HistoryConfig{Lesson: historyLesson, Since: sinceTime, Last: historyLast}

	st, err := openHistory()
	if err != nil {
		return err
	}
	defer closeHistory(st)

	if !historyPlain && isTerminal(os.Stdout) {
		m := historyui.NewModel(st, filter, cfg.Editor.Mode, cfg.Editor.Theme)
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, filter)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Runs); err != nil {
		return err
	}
	if len(report.Runs) == 0 {
		if !cfg.History {
			logErrln("History recording is off. Enable it with --history or [history] enabled = true.")
		}
		return nil
	}
	if err := stats.RenderTrend(out, report.Chronological(), defaultTrendWindow); err != nil {
		return err
	}
	if err := stats.WriteExercisesTable(out, report.Exercises); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, ""); err != nil {
		return err
	}
	return stats.WriteRunsTable(out, report.Runs)
}
