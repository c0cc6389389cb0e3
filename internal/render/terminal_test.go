package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/model"
)

func TestTextStripsMarkupAndControls(t *testing.T) {
	cases := map[string]string{
		"plain":                       "plain",
		"<b>bold</b> &amp; more":      "bold & more",
		"<script>alert(1)</script>ok": "ok",
		"red \x1b[31mtext\x1b[0m":     "red text",
		"title\x1b]0;pwned\x07 end":   "title end",
		"line1\nline2\tend\r":         "line1\nline2\tend",
		"x < y":                       "x < y",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlainKeepsMarkupAndCode(t *testing.T) {
	cases := map[string]string{
		"if a<b:\n    print(a)":     "if a<b:\n    print(a)",
		`html = "<b>bold</b>"`:      `html = "<b>bold</b>"`,
		"a &amp; b":                 "a &amp; b",
		"red \x1b[31mtext\x1b[0m":   "red text",
		"title\x1b]0;pwned\x07 end": "title end",
		"tab\tline\r":               "tab\tline",
	}
	for in, want := range cases {
		if got := Plain(in); got != want {
			t.Fatalf("Plain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBlocksKeepOrder(t *testing.T) {
	r := NewTerminal("plain")
	blocks := exerciseui.ResultBlocks(model.CheckResult{
		Passed:  false,
		Message: "summary-text",
		Hint:    "hint-text",
		Tests: []model.TestOutcome{
			{Passed: true, Description: "first", Message: "m1"},
			{Passed: false, Message: "m2"},
		},
	})
	out := r.Blocks(blocks, 60)
	order := []string{"Test 1: first", "m1", "Test 2: Check", "m2", "summary-text", "hint-text"}
	pos := -1
	for _, needle := range order {
		idx := strings.Index(out, needle)
		if idx < 0 {
			t.Fatalf("missing %q in output:\n%s", needle, out)
		}
		if idx < pos {
			t.Fatalf("%q rendered out of order:\n%s", needle, out)
		}
		pos = idx
	}
}

func TestBlockStylesFollowOutcome(t *testing.T) {
	r := NewTerminal("monokai")
	passed := r.Block(exerciseui.Block{Kind: exerciseui.BlockSummary, Passed: true, Message: "ok"}, 0)
	failed := r.Block(exerciseui.Block{Kind: exerciseui.BlockSummary, Passed: false, Message: "ok"}, 0)
	if passed != r.successStyle.Render("ok") {
		t.Fatalf("expected success style for passed summary")
	}
	if failed != r.failureStyle.Render("ok") {
		t.Fatalf("expected failure style for failed summary")
	}
}

func TestBlockWidth(t *testing.T) {
	r := NewTerminal("plain")
	out := r.Block(exerciseui.Block{Kind: exerciseui.BlockError, Message: strings.Repeat("word ", 30)}, 40)
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Fatalf("line wider than 40: %d", w)
		}
	}
}

func TestPaletteForUnknownTheme(t *testing.T) {
	if PaletteFor("solarized") != PaletteFor(DefaultTheme) {
		t.Fatalf("expected fallback to default palette")
	}
}
