package render

import (
	"strings"
	"testing"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/model"
)

func TestHTMLUsesPageClasses(t *testing.T) {
	blocks := exerciseui.ResultBlocks(model.CheckResult{
		Passed:  false,
		Message: "1 of 2",
		Hint:    "Use <code>range</code>",
		Tests: []model.TestOutcome{
			{Passed: true, Description: "a", Message: "OK"},
			{Passed: false, Description: "b", Message: "bad"},
		},
	})
	out, err := HTML(blocks)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	wantInOrder := []string{
		`<div class="test-result passed">`,
		`<div class="test-description">Test 1: a</div>`,
		`<div class="test-result failed">`,
		`<div class="test-description">Test 2: b</div>`,
		`<div class="summary failure">`,
		`<div class="hint">`,
		`Use <code>range</code>`,
	}
	pos := -1
	for _, needle := range wantInOrder {
		idx := strings.Index(out, needle)
		if idx <= pos {
			t.Fatalf("expected %q after position %d in:\n%s", needle, pos, out)
		}
		pos = idx
	}
}

func TestHTMLSanitizesBackendText(t *testing.T) {
	out, err := HTML([]exerciseui.Block{{Kind: exerciseui.BlockError, Message: `❌ Error: <img src=x onerror="alert(1)"><script>x()</script>`}})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if strings.Contains(out, "onerror") || strings.Contains(out, "<script>") {
		t.Fatalf("unsafe markup survived: %s", out)
	}
	if !strings.Contains(out, `<div class="test-result failed">`) {
		t.Fatalf("expected failed panel: %s", out)
	}
}

func TestHTMLLoading(t *testing.T) {
	out, err := HTML([]exerciseui.Block{{Kind: exerciseui.BlockLoading, Message: exerciseui.LoadingMessage}})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if strings.TrimSpace(out) != `<div class="loading">⏳ Checking code...</div>` {
		t.Fatalf("unexpected loading markup: %q", out)
	}
}
