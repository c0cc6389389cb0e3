// Package historyui provides the Bubble Tea check history browser.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/model"
	"github.com/verte-zerg/codecheck/internal/render"
	"github.com/verte-zerg/codecheck/internal/stats"
	"github.com/verte-zerg/codecheck/internal/store"
)

const (
	tabOverview = iota
	tabRuns
	tabExercises
)

const trendWindow = 5

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
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store    *store.Store
	cfg      model.HistoryConfig
	renderer *render.Terminal
	mode     string
	theme    string

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	runs      table.Model
	exercises table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	detailOpen bool
	detail     viewport.Model
}

// NewModel constructs a history UI model. mode and theme select code highlighting.
func NewModel(st *store.Store, cfg model.HistoryConfig, mode, theme string) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		renderer: render.NewTerminal(theme),
		mode:     mode,
		theme:    theme,
		tabs:     []string{"Overview", "Runs", "Exercises"},
		overview: viewport.New(0, 0),
		detail:   viewport.New(0, 0),
	}
	m.runs = newTable(runColumns())
	m.exercises = newTable(exerciseColumns())
	m.initInputs()
	m.refreshReport()
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
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.detailOpen {
			return m.updateDetail(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabRuns {
				m.openDetail()
			}
			return m, nil
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabRuns:
			m.runs, cmd = m.runs.Update(msg)
		case tabExercises:
			m.exercises, cmd = m.exercises.Update(msg)
		default:
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.detailOpen {
		box := modalStyle.Width(modalWidth(m.width)).Render(m.detail.View() + "\n" + headerStyle.Render("up/down: scroll  esc: close"))
		return fitLines(lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Lesson: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(m.cfg.Lesson)
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for _, t := range []*table.Model{&m.runs, &m.exercises} {
		t.SetWidth(m.width)
		t.SetHeight(max(1, bodyHeight-1))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
	m.detail.Width = modalInnerWidth(m.width)
	m.detail.Height = max(3, m.height-8)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabRuns {
		m.runs.Focus()
	} else {
		m.runs.Blur()
	}
	if m.activeTab == tabExercises {
		m.exercises.Focus()
	} else {
		m.exercises.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	lesson := m.cfg.Lesson
	if lesson == "" {
		lesson = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filters: lesson=%s  since=%s  last=%s", lesson, since, last)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Filters: /  Quit: q"
	if m.activeTab == tabRuns {
		help = "Nav: left/right  Select: up/down  Details: enter  Filters: /  Quit: q"
	}
	help = headerStyle.Render(help)
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filters (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	switch m.activeTab {
	case tabRuns:
		if len(m.report.Runs) == 0 {
			return fitLines("No check runs found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.runs.View()), m.width, height)
	case tabExercises:
		if len(m.report.Exercises) == 0 {
			return fitLines("No exercises attempted.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.exercises.View()), m.width, height)
	default:
		return fitLines(m.overview.View(), m.width, height)
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load history.")
		return
	}
	m.errMsg = ""
	m.report = report

	runRows := make([]table.Row, 0, len(report.Runs))
	for _, run := range report.Runs {
		runRows = append(runRows, table.Row(stats.RunRow(run)))
	}
	m.runs.SetRows(runRows)
	m.runs.GotoTop()

	exRows := make([]table.Row, 0, len(report.Exercises))
	for _, agg := range report.Exercises {
		exRows = append(exRows, table.Row(stats.ExerciseRow(agg)))
	}
	m.exercises.SetRows(exRows)
	m.exercises.GotoTop()
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, width))
}

func renderOverview(report stats.Report, width int) string {
	if len(report.Runs) == 0 {
		return "No check runs found."
	}
	passed := 0
	var totalMs int64
	for _, run := range report.Runs {
		if run.Outcome == model.OutcomePassed {
			passed++
		}
		totalMs += run.DurationMs
	}
	solved := 0
	for _, agg := range report.Exercises {
		if agg.Passed > 0 {
			solved++
		}
	}
	cards := []string{
		metricCard("Runs", strconv.Itoa(len(report.Runs))),
		metricCard("Pass Rate", fmt.Sprintf("%.1f%%", stats.PassRate(passed, len(report.Runs))*100)),
		metricCard("Solved", fmt.Sprintf("%d/%d", solved, len(report.Exercises))),
		metricCard("Avg Duration", (time.Duration(totalMs/int64(len(report.Runs))) * time.Millisecond).String()),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, report.Chronological(), trendWindow); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render trend: %v", err)
	}
	weak := stats.WeakExercises(report.Exercises, 5)
	lines := []string{summary, "", strings.TrimRight(buf.String(), "\n")}
	if len(weak) > 0 {
		lines = append(lines, "", cardTitleStyle.Render("Needs practice"))
		for _, agg := range weak {
			lines = append(lines, fmt.Sprintf("  %s #%d  (%d runs)", agg.Lesson, agg.Exercise, agg.Runs))
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) openDetail() {
	idx := m.runs.Cursor()
	if idx < 0 || idx >= len(m.report.Runs) {
		return
	}
	run := m.report.Runs[idx]
	tests, err := m.store.RunTests(context.Background(), run.ID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	run.Tests = tests
	m.detail.SetContent(m.renderDetail(run))
	m.detail.GotoTop()
	m.detailOpen = true
}

func (m *Model) renderDetail(run model.RunRecord) string {
	width := modalInnerWidth(m.width)
	title := cardValueStyle.Render(fmt.Sprintf("Run %d  %s #%d", run.ID, run.Lesson, run.Exercise))
	meta := headerStyle.Render(fmt.Sprintf("%s  %dms  %s", run.EndedAt.Local().Format("2006-01-02 15:04:05"), run.DurationMs, run.RequestID))
	code := render.Highlight(run.Code, m.mode, m.theme)
	return strings.Join([]string{
		title,
		meta,
		"",
		m.renderer.Blocks(RunBlocks(run), width),
		"",
		cardTitleStyle.Render("Code"),
		code,
	}, "\n")
}

// RunBlocks reconstructs the results region shown for a stored run.
func RunBlocks(run model.RunRecord) []exerciseui.Block {
	switch run.Outcome {
	case model.OutcomeAppError:
		return []exerciseui.Block{{Kind: exerciseui.BlockError, Message: exerciseui.CheckFailedMessage(run.Message)}}
	case model.OutcomeTransportError:
		return []exerciseui.Block{{Kind: exerciseui.BlockError, Message: exerciseui.CheckUnreachable}}
	default:
		return exerciseui.ResultBlocks(model.CheckResult{
			Passed:  run.Outcome == model.OutcomePassed,
			Message: run.Message,
			Hint:    run.Hint,
			Tests:   run.Tests,
		})
	}
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.detailOpen = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
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

func (m *Model) applyFilter() error {
	lesson := strings.TrimSpace(m.filterInputs[0].Value())
	sinceInput := strings.TrimSpace(m.filterInputs[1].Value())
	var since *time.Time
	if sinceInput != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sinceInput, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}
	lastInput := strings.TrimSpace(m.filterInputs[2].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}
	m.cfg = model.HistoryConfig{Lesson: lesson, Since: since, Last: last}
	return nil
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "When", Width: 16},
		{Title: "Lesson", Width: 28},
		{Title: "Ex", Width: 3},
		{Title: "Outcome", Width: 15},
		{Title: "Tests", Width: 6},
		{Title: "Duration", Width: 9},
	}
}

func exerciseColumns() []table.Column {
	return []table.Column{
		{Title: "Lesson", Width: 28},
		{Title: "Ex", Width: 3},
		{Title: "Runs", Width: 5},
		{Title: "Passed", Width: 6},
		{Title: "Pass Rate", Width: 9},
		{Title: "Last Run", Width: 16},
	}
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func modalWidth(width int) int {
	return max(40, min(width-4, 100))
}

func modalInnerWidth(width int) int {
	// 2 border + 4 padding
	return max(10, modalWidth(width)-6)
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
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

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
