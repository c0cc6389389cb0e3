package tui

import (
	"sync"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
	"github.com/verte-zerg/codecheck/internal/model"
)

// Controller operations run as commands on their own goroutines, so every
// pane guards its state.

type textPane struct {
	mu   sync.Mutex
	text string
}

func (p *textPane) SetText(text string) {
	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
}

func (p *textPane) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

type resultsPane struct {
	mu     sync.Mutex
	blocks []exerciseui.Block
}

func (p *resultsPane) Show(blocks []exerciseui.Block) {
	cp := append([]exerciseui.Block(nil), blocks...)
	p.mu.Lock()
	p.blocks = cp
	p.mu.Unlock()
}

func (p *resultsPane) Clear() {
	p.mu.Lock()
	p.blocks = nil
	p.mu.Unlock()
}

func (p *resultsPane) Blocks() []exerciseui.Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]exerciseui.Block(nil), p.blocks...)
}

// alertQueue holds notifications until the user dismisses them, oldest first.
type alertQueue struct {
	mu      sync.Mutex
	pending []string
}

func (q *alertQueue) Alert(msg string) {
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	q.mu.Unlock()
}

func (q *alertQueue) Front() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return "", false
	}
	return q.pending[0], true
}

func (q *alertQueue) Dismiss() {
	q.mu.Lock()
	if len(q.pending) > 0 {
		q.pending = q.pending[1:]
	}
	q.mu.Unlock()
}

func (q *alertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// selector is the lesson and exercise selector pair.
type selector struct {
	mu        sync.Mutex
	lessons   []model.Lesson
	lessonIdx int
	exercise  int
}

func newSelector(lessons []model.Lesson, initial model.Selection) *selector {
	s := &selector{lessons: lessons, exercise: 1}
	for i, l := range lessons {
		if l.ID == initial.Lesson {
			s.lessonIdx = i
			break
		}
	}
	if initial.Exercise > 0 {
		s.exercise = initial.Exercise
	}
	s.clamp()
	return s
}

func (s *selector) Selection() model.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lessons) == 0 {
		return model.Selection{Exercise: s.exercise}
	}
	return model.Selection{Lesson: s.lessons[s.lessonIdx].ID, Exercise: s.exercise}
}

func (s *selector) Lesson() (model.Lesson, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lessons) == 0 {
		return model.Lesson{}, false
	}
	return s.lessons[s.lessonIdx], true
}

// MoveLesson cycles the lesson selector and keeps the exercise in range.
func (s *selector) MoveLesson(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := len(s.lessons)
	if count == 0 {
		return
	}
	s.lessonIdx = (s.lessonIdx + delta%count + count) % count
	s.clamp()
}

// MoveExercise cycles the exercise selector within the current lesson.
func (s *selector) MoveExercise(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.exerciseCount()
	s.exercise = ((s.exercise-1+delta)%total+total)%total + 1
}

func (s *selector) exerciseCount() int {
	if len(s.lessons) == 0 || s.lessons[s.lessonIdx].Exercises < 1 {
		return 1
	}
	return s.lessons[s.lessonIdx].Exercises
}

func (s *selector) clamp() {
	total := s.exerciseCount()
	if s.exercise > total {
		s.exercise = total
	}
	if s.exercise < 1 {
		s.exercise = 1
	}
}

// editorSnapshot exposes the editor text to controller goroutines.
type editorSnapshot struct {
	mu   sync.Mutex
	text string
}

func (e *editorSnapshot) set(text string) {
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
}

func (e *editorSnapshot) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}
