// Package model defines shared data structures.
package model

import "time"

// Selection identifies one exercise through the lesson and exercise selectors.
type Selection struct {
	Lesson   string
	Exercise int
}

// Exercise is the prompt shown for a selection.
type Exercise struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Hint        string `json:"hint"`
	Example     string `json:"example,omitempty"`
}

// CheckRequest is the payload submitted to the checker.
type CheckRequest struct {
	Code     string `json:"code" validate:"notblank"`
	Lesson   string `json:"lesson" validate:"required"`
	Exercise int    `json:"exercise" validate:"gte=0"`
}

// CheckResult is the grading outcome for a submission.
type CheckResult struct {
	Passed  bool          `json:"passed"`
	Message string        `json:"message"`
	Hint    string        `json:"hint,omitempty"`
	Tests   []TestOutcome `json:"tests"`
}

// TestOutcome is a single graded test, in the order the checker ran it.
type TestOutcome struct {
	Passed      bool   `json:"passed"`
	Description string `json:"description,omitempty"`
	Message     string `json:"message"`
}

// Lesson is one option of the lesson selector.
type Lesson struct {
	ID        string
	Title     string
	Exercises int
}

// EditorConfig configures the embedded code editor.
type EditorConfig struct {
	LineNumbers    bool
	Mode           string
	Theme          string
	IndentUnit     int `validate:"gte=1,lte=16"`
	IndentWithTabs bool
	LineWrapping   bool
}

// Config defines the client settings after flags, environment and file are merged.
type Config struct {
	BaseURL      string `validate:"required,url"`
	Selection    Selection
	Lessons      []Lesson
	Editor       EditorConfig
	DiscardStale bool
	History      bool
}

// Run outcome kinds stored in history.
const (
	OutcomePassed         = "passed"
	OutcomeFailed         = "failed"
	OutcomeAppError       = "app_error"
	OutcomeTransportError = "transport_error"
)

// RunRecord captures one completed check submission.
type RunRecord struct {
	ID          int64
	RequestID   string
	StartedAt   time.Time
	EndedAt     time.Time
	Lesson      string
	Exercise    int
	Code        string
	Outcome     string
	Message     string
	Hint        string
	TestsPassed int
	TestsTotal  int
	DurationMs  int64
	Tests       []TestOutcome
}

// HistoryConfig defines filters for history output.
type HistoryConfig struct {
	Lesson string
	Since  *time.Time
	Last   int
}

// ExerciseAggregate summarizes history for one exercise.
type ExerciseAggregate struct {
	Lesson    string
	Exercise  int
	Runs      int
	Passed    int
	LastRunAt time.Time
}
