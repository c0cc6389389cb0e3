package stats

import (
	"strings"
	"testing"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	cols := []column{{title: "Lesson"}, {title: "Pass Rate", right: true}, {title: "Runs", right: true}}
	rows := [][]string{
		{"lesson_01", "50.00%", "12"},
		{"intro", "8.00%", "3"},
	}

	lines := formatTable(cols, rows)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Lesson    Pass Rate Runs" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "lesson_01    50.00%   12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "intro         8.00%    3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]column{{title: "Outcome"}, {title: "N"}}, [][]string{{"✅ ok", "1"}, {"日本", "2"}})
	if lines[2] != "日本    2" {
		t.Fatalf("unexpected wide row: %q", lines[2])
	}
}

func TestFormatTableFitsLessonCells(t *testing.T) {
	long := strings.Repeat("lesson_", 10)
	lines := formatTable(exerciseColumns, [][]string{{long, "1", "1", "0", "0.00%", "2026-03-01 12:00"}, {"a\nb", "2"}})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	lesson := strings.TrimRight(lines[1][:strings.Index(lines[1], "…")+len("…")], " ")
	if displayWidth(lesson) != lessonCellWidth || !strings.HasSuffix(lesson, "…") {
		t.Fatalf("expected lesson cut to %d cells, got %q", lessonCellWidth, lesson)
	}
	if !strings.HasPrefix(lines[2], "a b ") {
		t.Fatalf("expected flattened cell, got %q", lines[2])
	}
}
