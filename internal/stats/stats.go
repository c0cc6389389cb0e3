package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/codecheck/internal/model"
)

const sparkChars = " .:-=+*#%@"

// PassRate returns passed/total in [0, 1].
func PassRate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(passed) / float64(total)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals over runs.
func RenderSummary(w io.Writer, runs []model.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No check runs found.")
		return err
	}
	counts := map[string]int{}
	var totalMs int64
	for _, run := range runs {
		counts[run.Outcome]++
		totalMs += run.DurationMs
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Runs: %d", len(runs)),
		fmt.Sprintf("Passed: %d (%.2f%%)", counts[model.OutcomePassed], PassRate(counts[model.OutcomePassed], len(runs))*100),
		fmt.Sprintf("Failed: %d", counts[model.OutcomeFailed]),
		fmt.Sprintf("Errors: %d", counts[model.OutcomeAppError]+counts[model.OutcomeTransportError]),
		fmt.Sprintf("Avg Duration: %s", time.Duration(totalMs/int64(len(runs)))*time.Millisecond),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// PassTrend returns the moving pass rate of runs given oldest first.
func PassTrend(runs []model.RunRecord, window int) []float64 {
	values := make([]float64, len(runs))
	for i, run := range runs {
		if run.Outcome == model.OutcomePassed {
			values[i] = 1
		}
	}
	return MovingAverage(values, window)
}

// RenderTrend prints a sparkline of the moving pass rate of runs given oldest first.
func RenderTrend(w io.Writer, runs []model.RunRecord, window int) error {
	if len(runs) < 2 {
		return nil
	}
	trend := PassTrend(runs, window)
	_, err := fmt.Fprintf(w, "Pass Trend (window %d)\n[%s] %.0f%% now\n\n", window, Sparkline(trend), trend[len(trend)-1]*100)
	return err
}

// WriteRunsTable prints one line per run.
func WriteRunsTable(w io.Writer, runs []model.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No check runs found.")
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, RunRow(run))
	}
	return writeLines(w, formatTable(runColumns, rows))
}

// RunRow formats the table cells of a run.
func RunRow(run model.RunRecord) []string {
	return []string{
		fmt.Sprintf("%d", run.ID),
		run.EndedAt.Local().Format("2006-01-02 15:04"),
		run.Lesson,
		fmt.Sprintf("%d", run.Exercise),
		run.Outcome,
		fmt.Sprintf("%d/%d", run.TestsPassed, run.TestsTotal),
		fmt.Sprintf("%dms", run.DurationMs),
	}
}

// WriteExercisesTable prints per-exercise aggregates.
func WriteExercisesTable(w io.Writer, aggs []model.ExerciseAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No exercises attempted.")
		return err
	}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, ExerciseRow(agg))
	}
	if err := writeLines(w, formatTable(exerciseColumns, rows)); err != nil {
		return err
	}
	weak := WeakExercises(aggs, 3)
	if len(weak) == 0 {
		return nil
	}
	names := make([]string, len(weak))
	for i, agg := range weak {
		names[i] = fmt.Sprintf("%s #%d", agg.Lesson, agg.Exercise)
	}
	_, err := fmt.Fprintf(w, "\nNeeds practice: %s\n", strings.Join(names, ", "))
	return err
}

// ExerciseRow formats the table cells of an aggregate.
func ExerciseRow(agg model.ExerciseAggregate) []string {
	return []string{
		agg.Lesson,
		fmt.Sprintf("%d", agg.Exercise),
		fmt.Sprintf("%d", agg.Runs),
		fmt.Sprintf("%d", agg.Passed),
		fmt.Sprintf("%.2f%%", PassRate(agg.Passed, agg.Runs)*100),
		agg.LastRunAt.Local().Format("2006-01-02 15:04"),
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
