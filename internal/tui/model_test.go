package tui

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/model"
)

type stubBackend struct {
	mu       sync.Mutex
	exercise model.Exercise
	result   model.CheckResult
	loads    []model.Selection
	checks   []model.CheckRequest
}

func (b *stubBackend) Exercise(_ context.Context, sel model.Selection) (model.Exercise, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads = append(b.loads, sel)
	return b.exercise, nil
}

func (b *stubBackend) Check(_ context.Context, req model.CheckRequest) (model.CheckResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checks = append(b.checks, req)
	return b.result, nil
}

func (b *stubBackend) lastLoad() model.Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.loads) == 0 {
		return model.Selection{}
	}
	return b.loads[len(b.loads)-1]
}

func testConfig() model.Config {
	return model.Config{
		BaseURL:   "http://localhost:5000",
		Selection: model.Selection{Lesson: "lesson_a", Exercise: 1},
		Lessons: []model.Lesson{
			{ID: "lesson_a", Title: "Window", Exercises: 3},
			{ID: "lesson_b", Title: "Movement", Exercises: 3},
		},
		Editor: model.EditorConfig{LineNumbers: true, Mode: "python", Theme: "plain", IndentUnit: 4, LineWrapping: true},
	}
}

func newTestModel(t *testing.T, cfg model.Config, b *stubBackend) *Model {
	t.Helper()
	m, err := NewModel(context.Background(), Options{Config: cfg, Backend: b, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func runOp(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	msg := cmd()
	if _, ok := msg.(opDoneMsg); !ok {
		t.Fatalf("expected opDoneMsg, got %T", msg)
	}
	m.Update(msg)
}

func TestTabInsertsIndentUnit(t *testing.T) {
	m := newTestModel(t, testConfig(), &stubBackend{})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.editor.Value(); got != "    " {
		t.Fatalf("expected four spaces, got %q", got)
	}
	if got := m.snapshot.Value(); got != "    " {
		t.Fatalf("expected snapshot to follow editor, got %q", got)
	}

	cfg := testConfig()
	cfg.Editor.IndentWithTabs = true
	m = newTestModel(t, cfg, &stubBackend{})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.editor.Value(); got != "\t" {
		t.Fatalf("expected tab, got %q", got)
	}
}

func TestAlertIsModal(t *testing.T) {
	b := &stubBackend{}
	m := newTestModel(t, testConfig(), b)
	m.alerts.Alert("first")
	m.alerts.Alert("second")

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyF5}); cmd != nil {
		t.Fatalf("expected check key to be ignored while an alert is shown")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if m.editor.Value() != "" {
		t.Fatalf("expected typing to be ignored while an alert is shown")
	}
	view := m.View()
	if !strings.Contains(view, "first") || !strings.Contains(view, "1 more") {
		t.Fatalf("expected first alert with queue count:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if front, _ := m.alerts.Front(); front != "second" {
		t.Fatalf("expected second alert after dismiss, got %q", front)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.alerts.Len() != 0 {
		t.Fatalf("expected all alerts dismissed")
	}
}

func TestSelectorKeysReloadExercise(t *testing.T) {
	b := &stubBackend{exercise: model.Exercise{Title: "t"}}
	m := newTestModel(t, testConfig(), b)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyF3})
	runOp(t, m, cmd)
	if got := b.lastLoad(); got != (model.Selection{Lesson: "lesson_b", Exercise: 1}) {
		t.Fatalf("unexpected selection after next lesson: %+v", got)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyF7})
	runOp(t, m, cmd)
	if got := b.lastLoad(); got.Exercise != 3 {
		t.Fatalf("expected exercise to wrap to 3, got %+v", got)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyF3})
	runOp(t, m, cmd)
	if got := b.lastLoad(); got != (model.Selection{Lesson: "lesson_a", Exercise: 3}) {
		t.Fatalf("expected lesson to wrap and keep exercise, got %+v", got)
	}
}

func TestLoadShowsExerciseWithPlaceholder(t *testing.T) {
	b := &stubBackend{exercise: model.Exercise{Title: "Open a window", Description: "Create a 800x600 window", Hint: "pygame.display"}}
	m := newTestModel(t, testConfig(), b)
	runOp(t, m, m.loadCmd())

	view := m.View()
	for _, want := range []string{"Open a window", "Create a 800x600 window", "pygame.display", exerciseui.ExamplePlaceholder} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

var sgrSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestLoadKeepsExerciseTextVerbatim(t *testing.T) {
	b := &stubBackend{exercise: model.Exercise{
		Title:       "Compare a<b",
		Description: `Print "<b>x</b>" when a<b`,
		Hint:        "Use if a<b:",
		Example:     "if a<b:\n    print(\"<b>x</b>\")",
	}}
	m := newTestModel(t, testConfig(), b)
	runOp(t, m, m.loadCmd())

	view := sgrSeq.ReplaceAllString(m.View(), "")
	for _, want := range []string{"Compare a<b", `Print "<b>x</b>" when a<b`, "Use if a<b:", "if a<b:", `print("<b>x</b>")`} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestAlertKeepsBackendText(t *testing.T) {
	m := newTestModel(t, testConfig(), &stubBackend{})
	msg := exerciseui.LoadFailedMessage("no exercise <lesson_x>")
	m.alerts.Alert(msg)
	if view := sgrSeq.ReplaceAllString(m.View(), ""); !strings.Contains(view, msg) {
		t.Fatalf("expected %q in view:\n%s", msg, view)
	}
}

func TestBlankCodeAlertsWithoutRequest(t *testing.T) {
	b := &stubBackend{}
	m := newTestModel(t, testConfig(), b)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("   ")})
	runOp(t, m, m.runCmd())

	if len(b.checks) != 0 {
		t.Fatalf("expected no check request, got %d", len(b.checks))
	}
	if !strings.Contains(m.View(), exerciseui.EmptyCodeMessage) {
		t.Fatalf("expected empty code alert")
	}
}

func TestCheckRendersResults(t *testing.T) {
	b := &stubBackend{result: model.CheckResult{
		Passed:  false,
		Message: "0 of 1 tests passed",
		Hint:    "call pygame.init()",
		Tests:   []model.TestOutcome{{Passed: false, Message: "init missing"}},
	}}
	m := newTestModel(t, testConfig(), b)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("import pygame")})
	runOp(t, m, m.runCmd())

	if len(b.checks) != 1 || b.checks[0].Code != "import pygame" || b.checks[0].Lesson != "lesson_a" {
		t.Fatalf("unexpected check requests: %+v", b.checks)
	}
	if m.pending != 0 {
		t.Fatalf("expected no pending operations, got %d", m.pending)
	}
	view := m.View()
	for _, want := range []string{"Test 1: Check", "init missing", "0 of 1 tests passed", "call pygame.init()"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestEscTogglesHighlightedView(t *testing.T) {
	m := newTestModel(t, testConfig(), &stubBackend{})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x = 1")})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.editor.Focused() {
		t.Fatalf("expected editor to blur")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if m.editor.Value() != "x = 1" {
		t.Fatalf("expected blurred editor to ignore typing, got %q", m.editor.Value())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !m.editor.Focused() {
		t.Fatalf("expected editor to refocus")
	}
}

func TestSelectorClampsExercise(t *testing.T) {
	s := newSelector([]model.Lesson{{ID: "a", Exercises: 5}, {ID: "b", Exercises: 2}}, model.Selection{Lesson: "a", Exercise: 5})
	s.MoveLesson(1)
	if got := s.Selection(); got != (model.Selection{Lesson: "b", Exercise: 2}) {
		t.Fatalf("expected exercise clamped to 2, got %+v", got)
	}
	s.MoveLesson(-3)
	if got := s.Selection(); got.Lesson != "a" {
		t.Fatalf("expected wrap to a, got %+v", got)
	}
}
