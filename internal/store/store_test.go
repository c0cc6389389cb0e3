package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/codecheck/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return st
}

func sampleRun(lesson string, exercise int, outcome string, ended time.Time) model.RunRecord {
	return model.RunRecord{
		RequestID:  "req-" + outcome,
		StartedAt:  ended.Add(-250 * time.Millisecond),
		EndedAt:    ended,
		Lesson:     lesson,
		Exercise:   exercise,
		Code:       "print('hi')",
		Outcome:    outcome,
		Message:    "msg",
		DurationMs: 250,
	}
}

func TestInsertRunRoundTripsTests(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	run := sampleRun("lesson_01_window", 2, model.OutcomeFailed, ended)
	run.Hint = "look again"
	run.Tests = []model.TestOutcome{
		{Passed: true, Description: "opens window", Message: "OK"},
		{Passed: false, Message: "wrong size"},
	}
	run.TestsPassed = 1
	run.TestsTotal = 2

	id, err := st.InsertRun(ctx, run)
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}

	runs, err := st.ListRuns(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != id || got.Hint != "look again" || got.TestsPassed != 1 || got.TestsTotal != 2 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.EndedAt.Equal(ended) {
		t.Fatalf("expected ended %v, got %v", ended, got.EndedAt)
	}

	tests, err := st.RunTests(ctx, id)
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	if len(tests) != 2 || !tests[0].Passed || tests[1].Passed || tests[1].Message != "wrong size" {
		t.Fatalf("unexpected tests: %+v", tests)
	}
}

func TestListRunsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, lesson := range []string{"a", "b", "a", "a"} {
		if err := st.RecordRun(ctx, sampleRun(lesson, 1, model.OutcomePassed, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	runs, err := st.ListRuns(ctx, model.HistoryConfig{Lesson: "a", Last: 2})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].EndedAt.After(runs[1].EndedAt) {
		t.Fatalf("expected newest first")
	}

	since := base.Add(90 * time.Minute)
	runs, err = st.ListRuns(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs since %v, got %d", since, len(runs))
	}
}

func TestListExerciseAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []model.RunRecord{
		sampleRun("lesson_01_window", 1, model.OutcomeFailed, base),
		sampleRun("lesson_01_window", 1, model.OutcomePassed, base.Add(time.Minute)),
		sampleRun("lesson_01_window", 2, model.OutcomeTransportError, base.Add(2*time.Minute)),
	}
	for _, run := range runs {
		if _, err := st.InsertRun(ctx, run); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}

	aggs, err := st.ListExerciseAggregates(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(aggs))
	}
	if aggs[0].Exercise != 1 || aggs[0].Runs != 2 || aggs[0].Passed != 1 {
		t.Fatalf("unexpected first aggregate: %+v", aggs[0])
	}
	if !aggs[0].LastRunAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected last run: %v", aggs[0].LastRunAt)
	}
	if aggs[1].Exercise != 2 || aggs[1].Passed != 0 {
		t.Fatalf("unexpected second aggregate: %+v", aggs[1])
	}
}

func TestListRunsOrdersWithinSecond(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	earlier := base.Add(120 * time.Millisecond)
	later := base.Add(123456789 * time.Nanosecond)
	// Inserted newest first so ordering cannot fall back to ids.
	for _, ended := range []time.Time{later, earlier} {
		if err := st.RecordRun(ctx, sampleRun("a", 1, model.OutcomePassed, ended)); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	runs, err := st.ListRuns(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || !runs[0].EndedAt.Equal(later) || !runs[1].EndedAt.Equal(earlier) {
		t.Fatalf("expected newest first, got %v then %v", runs[0].EndedAt, runs[1].EndedAt)
	}

	since := base.Add(121 * time.Millisecond)
	runs, err = st.ListRuns(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || !runs[0].EndedAt.Equal(later) {
		t.Fatalf("expected only the later run since %v, got %+v", since, runs)
	}

	aggs, err := st.ListExerciseAggregates(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 1 || !aggs[0].LastRunAt.Equal(later) {
		t.Fatalf("unexpected aggregates: %+v", aggs)
	}
}

func TestListExerciseAggregatesHonorsLast(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []model.RunRecord{
		sampleRun("a", 1, model.OutcomePassed, base),
		sampleRun("a", 2, model.OutcomeFailed, base.Add(time.Minute)),
		sampleRun("a", 2, model.OutcomeFailed, base.Add(2*time.Minute)),
	}
	for _, run := range runs {
		if err := st.RecordRun(ctx, run); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	aggs, err := st.ListExerciseAggregates(ctx, model.HistoryConfig{Last: 2})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Exercise != 2 || aggs[0].Runs != 2 || aggs[0].Passed != 0 {
		t.Fatalf("expected only exercise 2 from the last two runs, got %+v", aggs)
	}
}
