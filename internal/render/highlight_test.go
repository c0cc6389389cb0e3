package render

import (
	"strings"
	"testing"
)

func TestHighlightAddsEscapes(t *testing.T) {
	out := Highlight("def f():\n    return 1\n", "python", "monokai")
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ANSI escapes in highlighted output: %q", out)
	}
	if !strings.Contains(out, "return") {
		t.Fatalf("expected source text to survive: %q", out)
	}
}

func TestHighlightBlankInput(t *testing.T) {
	if got := Highlight("  ", "python", "monokai"); got != "  " {
		t.Fatalf("expected blank input unchanged, got %q", got)
	}
}
