// Package exerciseui implements the exercise page controller: it loads the
// selected exercise, submits the editor's code for checking, and renders the
// check results into explicitly bound display regions.
package exerciseui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/codecheck/internal/backend"
	"github.com/verte-zerg/codecheck/internal/model"
)

// Backend is the checker API used by the controller.
type Backend interface {
	Exercise(ctx context.Context, sel model.Selection) (model.Exercise, error)
	Check(ctx context.Context, req model.CheckRequest) (model.CheckResult, error)
}

// Editor exposes the current text of the embedded code editor.
type Editor interface {
	Value() string
}

// TextRegion is a display region holding plain text.
type TextRegion interface {
	SetText(text string)
}

// ResultsRegion is the region holding check results. Show replaces its content.
type ResultsRegion interface {
	Show(blocks []Block)
	Clear()
}

// SelectionSource reads the lesson and exercise selectors.
type SelectionSource interface {
	Selection() model.Selection
}

// Notifier shows a notification the user has to acknowledge.
type Notifier interface {
	Alert(msg string)
}

// Recorder receives every completed check submission.
type Recorder interface {
	RecordRun(ctx context.Context, run model.RunRecord) error
}

// Elements enumerates every region the controller reads or writes.
type Elements struct {
	Title       TextRegion
	Description TextRegion
	Hint        TextRegion
	Example     TextRegion
	Results     ResultsRegion
	Selection   SelectionSource
	Notify      Notifier
}

func (e Elements) validate() error {
	missing := []string{}
	if e.Title == nil {
		missing = append(missing, "title")
	}
	if e.Description == nil {
		missing = append(missing, "description")
	}
	if e.Hint == nil {
		missing = append(missing, "hint")
	}
	if e.Example == nil {
		missing = append(missing, "example")
	}
	if e.Results == nil {
		missing = append(missing, "results")
	}
	if e.Selection == nil {
		missing = append(missing, "selection")
	}
	if e.Notify == nil {
		missing = append(missing, "notify")
	}
	if len(missing) > 0 {
		return fmt.Errorf("unbound elements: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SelectionRequiredMessage is shown when no lesson is selected.
const SelectionRequiredMessage = "Select a lesson and an exercise first!"

// Controller is the exercise page controller.
type Controller struct {
	backend  Backend
	editor   Editor
	el       Elements
	baseURL  string
	logger   zerolog.Logger
	recorder Recorder
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	discardStale bool
	loadGen      atomic.Uint64
	runGen       atomic.Uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithBaseURL sets the backend address quoted in the unreachable notification.
func WithBaseURL(baseURL string) Option {
	return func(c *Controller) {
		c.baseURL = baseURL
	}
}

// WithRecorder stores every completed submission.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithDiscardStale drops responses that settle after a newer request of the
// same operation was issued. Without it the last response to settle wins.
func WithDiscardStale(enabled bool) Option {
	return func(c *Controller) {
		c.discardStale = enabled
	}
}

// WithClock overrides the time source used for run records.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New binds a controller to its backend, editor and display regions.
func New(b Backend, editor Editor, el Elements, opts ...Option) (*Controller, error) {
	if b == nil {
		return nil, errors.New("backend is required")
	}
	if editor == nil {
		return nil, errors.New("editor is required")
	}
	if err := el.validate(); err != nil {
		return nil, err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("notblank", notBlank); err != nil {
		return nil, fmt.Errorf("failed to register validation: %w", err)
	}
	c := &Controller{
		backend:  b,
		editor:   editor,
		el:       el,
		baseURL:  backend.DefaultBaseURL,
		logger:   zerolog.Nop(),
		validate: validate,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Init runs once the page is ready: it loads the currently selected exercise.
func (c *Controller) Init(ctx context.Context) {
	c.LoadExercise(ctx)
}

// LoadExercise fetches the selected exercise and shows it, clearing results.
func (c *Controller) LoadExercise(ctx context.Context) {
	sel := c.el.Selection.Selection()
	gen := c.loadGen.Add(1)

	exercise, err := c.backend.Exercise(ctx, sel)
	if c.isStale(&c.loadGen, gen) {
		c.logger.Debug().Str("lesson", sel.Lesson).Int("exercise", sel.Exercise).Msg("discarding stale exercise response")
		return
	}
	if err != nil {
		if appErr, ok := backend.IsAppError(err); ok {
			c.logger.Debug().Str("lesson", sel.Lesson).Int("exercise", sel.Exercise).Str("error", appErr.Message).Msg("exercise not loaded")
			c.el.Notify.Alert(LoadFailedMessage(appErr.Message))
			return
		}
		c.logger.Error().Err(err).Str("lesson", sel.Lesson).Int("exercise", sel.Exercise).Msg("failed to load exercise")
		c.el.Notify.Alert(LoadUnreachableMessage(c.baseURL))
		return
	}

	c.el.Title.SetText(exercise.Title)
	c.el.Description.SetText(exercise.Description)
	c.el.Hint.SetText(exercise.Hint)
	example := exercise.Example
	if example == "" {
		example = ExamplePlaceholder
	}
	c.el.Example.SetText(example)
	c.el.Results.Clear()
}

// RunCode submits the editor's code for the selected exercise.
func (c *Controller) RunCode(ctx context.Context) {
	sel := c.el.Selection.Selection()
	req := model.CheckRequest{Code: c.editor.Value(), Lesson: sel.Lesson, Exercise: sel.Exercise}
	if msg, ok := c.checkPrecondition(req); !ok {
		c.el.Notify.Alert(msg)
		return
	}

	gen := c.runGen.Add(1)
	c.el.Results.Show(loadingBlocks())

	requestID := c.newID()
	started := c.now()
	result, err := c.backend.Check(backend.ContextWithRequestID(ctx, requestID), req)
	c.record(ctx, requestID, req, result, err, started)

	if c.isStale(&c.runGen, gen) {
		c.logger.Debug().Str("request_id", requestID).Msg("discarding stale check response")
		return
	}
	if err != nil {
		if appErr, ok := backend.IsAppError(err); ok {
			c.logger.Debug().Str("request_id", requestID).Str("error", appErr.Message).Msg("check rejected")
			c.el.Results.Show(errorBlocks(CheckFailedMessage(appErr.Message)))
			return
		}
		c.logger.Error().Err(err).Str("request_id", requestID).Msg("failed to check code")
		c.el.Results.Show(errorBlocks(CheckUnreachable))
		return
	}
	c.DisplayResults(result)
}

// DisplayResults replaces the results region with the projection of result.
func (c *Controller) DisplayResults(result model.CheckResult) {
	c.el.Results.Show(ResultBlocks(result))
}

func (c *Controller) checkPrecondition(req model.CheckRequest) (string, bool) {
	err := c.validate.Struct(req)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Code" {
				return EmptyCodeMessage, false
			}
		}
		return SelectionRequiredMessage, false
	}
	c.logger.Error().Err(err).Msg("failed to validate check request")
	return SelectionRequiredMessage, false
}

func (c *Controller) isStale(counter *atomic.Uint64, gen uint64) bool {
	return c.discardStale && counter.Load() != gen
}

func (c *Controller) record(ctx context.Context, requestID string, req model.CheckRequest, result model.CheckResult, err error, started time.Time) {
	if c.recorder == nil {
		return
	}
	ended := c.now()
	run := model.RunRecord{
		RequestID:  requestID,
		StartedAt:  started,
		EndedAt:    ended,
		Lesson:     req.Lesson,
		Exercise:   req.Exercise,
		Code:       req.Code,
		DurationMs: ended.Sub(started).Milliseconds(),
	}
	switch {
	case err == nil:
		run.Outcome = model.OutcomeFailed
		if result.Passed {
			run.Outcome = model.OutcomePassed
		}
		run.Message = result.Message
		run.Hint = result.Hint
		run.Tests = result.Tests
		run.TestsTotal = len(result.Tests)
		for _, t := range result.Tests {
			if t.Passed {
				run.TestsPassed++
			}
		}
	default:
		if appErr, ok := backend.IsAppError(err); ok {
			run.Outcome = model.OutcomeAppError
			run.Message = appErr.Message
		} else {
			run.Outcome = model.OutcomeTransportError
			run.Message = err.Error()
		}
	}
	if rerr := c.recorder.RecordRun(context.WithoutCancel(ctx), run); rerr != nil {
		c.logger.Warn().Err(rerr).Str("request_id", requestID).Msg("failed to record check run")
	}
}
