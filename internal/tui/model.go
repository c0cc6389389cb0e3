// Package tui provides the Bubble Tea exercise interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/model"
	"github.com/verte-zerg/codecheck/internal/render"
)

// Options wires the UI to its collaborators.
type Options struct {
	Config   model.Config
	Backend  exerciseui.Backend
	Recorder exerciseui.Recorder
	Logger   zerolog.Logger
}

// opDoneMsg is sent when a controller operation has settled.
type opDoneMsg struct{}

// Model implements the Bubble Tea exercise UI.
type Model struct {
	ctx      context.Context
	cfg      model.Config
	ctrl     *exerciseui.Controller
	keys     keyMap
	help     help.Model
	renderer *render.Terminal

	title       *textPane
	description *textPane
	hint        *textPane
	example     *textPane
	results     *resultsPane
	alerts      *alertQueue
	sel         *selector
	snapshot    *editorSnapshot

	editor      textarea.Model
	resultsView viewport.Model
	spinner     spinner.Model
	pending     int

	width  int
	height int
}

var (
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	selectorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	bodyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Italic(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Italic(true)
	editorStyle      = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	focusedEditorStyle = editorStyle.BorderForeground(lipgloss.Color("#C89A3A"))
	modalStyle         = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#FF4D4F")).
				Padding(1, 2)
)

// NewModel binds a controller to fresh panes and returns the UI model.
// ctx bounds every backend request started from the UI.
func NewModel(ctx context.Context, opts Options) (*Model, error) {
	cfg := opts.Config
	m := &Model{
		ctx:         ctx,
		cfg:         cfg,
		keys:        defaultKeyMap(),
		help:        help.New(),
		renderer:    render.NewTerminal(cfg.Editor.Theme),
		title:       &textPane{},
		description: &textPane{},
		hint:        &textPane{},
		example:     &textPane{},
		results:     &resultsPane{},
		alerts:      &alertQueue{},
		sel:         newSelector(cfg.Lessons, cfg.Selection),
		snapshot:    &editorSnapshot{},
		resultsView: viewport.New(0, 0),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.editor = newEditor(cfg.Editor)

	ctrlOpts := []exerciseui.Option{
		exerciseui.WithLogger(opts.Logger),
		exerciseui.WithBaseURL(cfg.BaseURL),
		exerciseui.WithDiscardStale(cfg.DiscardStale),
	}
	if opts.Recorder != nil {
		ctrlOpts = append(ctrlOpts, exerciseui.WithRecorder(opts.Recorder))
	}
	ctrl, err := exerciseui.New(opts.Backend, m.snapshot, exerciseui.Elements{
		Title:       m.title,
		Description: m.description,
		Hint:        m.hint,
		Example:     m.example,
		Results:     m.results,
		Selection:   m.sel,
		Notify:      m.alerts,
	}, ctrlOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to bind exercise page: %w", err)
	}
	m.ctrl = ctrl
	return m, nil
}

func newEditor(cfg model.EditorConfig) textarea.Model {
	ed := textarea.New()
	ed.ShowLineNumbers = cfg.LineNumbers
	ed.CharLimit = 0
	ed.MaxHeight = 0
	ed.Placeholder = "Write your code here"
	ed.Prompt = ""
	ed.Focus()
	return ed
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	m.pending++
	return tea.Batch(textarea.Blink, func() tea.Msg {
		ctrl.Init(ctx)
		return opDoneMsg{}
	})
}

func (m *Model) loadCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	m.pending++
	return func() tea.Msg {
		ctrl.LoadExercise(ctx)
		return opDoneMsg{}
	}
}

func (m *Model) runCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	m.pending++
	return func() tea.Msg {
		ctrl.RunCode(ctx)
		return opDoneMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.syncResults()
		return m, nil
	case opDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.syncResults()
		return m, nil
	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.syncResults()
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.alerts.Len() > 0 {
		if key.Matches(msg, m.keys.Dismiss) {
			m.alerts.Dismiss()
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Check):
		return m, tea.Batch(m.runCmd(), m.spinner.Tick)
	case key.Matches(msg, m.keys.PrevLesson):
		m.sel.MoveLesson(-1)
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.NextLesson):
		m.sel.MoveLesson(1)
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.PrevExercise):
		m.sel.MoveExercise(-1)
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.NextExercise):
		m.sel.MoveExercise(1)
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.resultsView, cmd = m.resultsView.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.ToggleEditor):
		if m.editor.Focused() {
			m.editor.Blur()
			return m, nil
		}
		return m, m.editor.Focus()
	}

	if !m.editor.Focused() {
		var cmd tea.Cmd
		m.resultsView, cmd = m.resultsView.Update(msg)
		return m, cmd
	}
	if msg.Type == tea.KeyTab {
		m.editor.InsertString(indentFor(m.cfg.Editor))
		m.snapshot.set(m.editor.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.snapshot.set(m.editor.Value())
	return m, cmd
}

func indentFor(cfg model.EditorConfig) string {
	if cfg.IndentWithTabs {
		return "\t"
	}
	return strings.Repeat(" ", max(1, cfg.IndentUnit))
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if msg, ok := m.alerts.Front(); ok {
		return m.renderAlert(msg)
	}
	leftWidth, rightWidth, bodyHeight := m.layout()
	header := fitLines(m.renderHeader(), m.width, 1)
	left := fitLines(m.renderInfo(leftWidth-1), leftWidth, bodyHeight)
	right := fitLines(m.renderWorkspace(rightWidth, bodyHeight), rightWidth, bodyHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	footer := fitLines(m.help.View(m.keys), m.width, 1)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layout() (leftWidth, rightWidth, bodyHeight int) {
	leftWidth = max(20, m.width*2/5)
	rightWidth = max(20, m.width-leftWidth)
	bodyHeight = max(6, m.height-2)
	return leftWidth, rightWidth, bodyHeight
}

func (m *Model) editorHeight(bodyHeight int) int {
	return max(3, bodyHeight*3/5-2)
}

func (m *Model) updateLayout() {
	_, rightWidth, bodyHeight := m.layout()
	edHeight := m.editorHeight(bodyHeight)
	m.editor.SetWidth(rightWidth - 2)
	m.editor.SetHeight(edHeight)
	m.resultsView.Width = rightWidth
	m.resultsView.Height = max(1, bodyHeight-edHeight-2-1)
	m.help.Width = m.width
}

func (m *Model) renderHeader() string {
	sel := m.sel.Selection()
	lesson, _ := m.sel.Lesson()
	lessonLabel := lesson.Title
	if lessonLabel == "" {
		lessonLabel = sel.Lesson
	}
	lessonLabel = truncateLine(lessonLabel, max(10, m.width/2))
	total := max(1, lesson.Exercises)
	status := ""
	if m.pending > 0 {
		status = "  " + m.spinner.View()
	}
	line := fmt.Sprintf("%s %s  %s %s%s",
		headerStyle.Render("Lesson:"), selectorStyle.Render(lessonLabel),
		headerStyle.Render("Exercise:"), selectorStyle.Render(fmt.Sprintf("%d/%d", sel.Exercise, total)),
		status)
	return line
}

func (m *Model) renderInfo(width int) string {
	parts := []string{}
	if title := m.title.Text(); title != "" {
		parts = append(parts, titleStyle.Render(wrapText(render.Plain(title), width)))
	} else {
		parts = append(parts, placeholderStyle.Render("Loading exercise..."))
	}
	if desc := m.description.Text(); desc != "" {
		parts = append(parts, "", bodyStyle.Render(wrapText(render.Plain(desc), width)))
	}
	if hint := m.hint.Text(); hint != "" {
		parts = append(parts, "", hintStyle.Render(wrapText("💡 "+render.Plain(hint), width)))
	}
	example := m.example.Text()
	if example != "" {
		parts = append(parts, "", labelStyle.Render("Example"))
		if example == exerciseui.ExamplePlaceholder {
			parts = append(parts, placeholderStyle.Render(example))
		} else {
			parts = append(parts, m.codeBlock(render.Plain(example), width))
		}
	}
	return strings.Join(parts, "\n")
}

// codeBlock highlights code and fits it to width, wrapping or clipping per
// the editor's line wrapping setting.
func (m *Model) codeBlock(code string, width int) string {
	highlighted := render.Highlight(code, m.cfg.Editor.Mode, m.cfg.Editor.Theme)
	if m.cfg.Editor.LineWrapping {
		return lipgloss.NewStyle().Width(width).Render(highlighted)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(highlighted)
}

func (m *Model) renderWorkspace(width, height int) string {
	edHeight := m.editorHeight(height)
	var editor string
	if m.editor.Focused() {
		editor = focusedEditorStyle.Render(m.editor.View())
	} else {
		code := m.editor.Value()
		content := placeholderStyle.Render(m.editor.Placeholder)
		if code != "" {
			content = m.codeBlock(code, width-2)
		}
		editor = editorStyle.Render(fitLines(content, width-2, edHeight))
	}
	label := labelStyle.Render("Results")
	return strings.Join([]string{editor, label, m.resultsView.View()}, "\n")
}

func (m *Model) syncResults() {
	width := m.resultsView.Width
	blocks := m.results.Blocks()
	switch {
	case len(blocks) == 0:
		m.resultsView.SetContent(placeholderStyle.Render("Press F5 to check your code."))
	case blocks[0].Kind == exerciseui.BlockLoading:
		m.resultsView.SetContent(m.renderer.Loading(m.spinner.View(), blocks[0], width))
	default:
		m.resultsView.SetContent(m.renderer.Blocks(blocks, width))
	}
}

func (m *Model) renderAlert(msg string) string {
	width := max(30, min(m.width-4, 70))
	body := []string{
		wrapText(render.Plain(msg), width-6),
		"",
		headerStyle.Render("Press Enter to continue"),
	}
	if n := m.alerts.Len(); n > 1 {
		body = append(body, headerStyle.Render(fmt.Sprintf("%d more", n-1)))
	}
	box := modalStyle.Width(width).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
