package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"exam-portal/internal/domain"
	"github.com/google/uuid"
)

// ResultWriter persists finished attempts.
type ResultWriter interface {
	SaveResult(ctx context.Context, draft domain.ResultDraft) (domain.Result, error)
}

// SubmitTrigger tells whether a submission came from the student or from the countdown.
type SubmitTrigger string

const (
	TriggerManual SubmitTrigger = "manual"
	TriggerAuto   SubmitTrigger = "auto"
)

// SessionObserver is notified of session milestones (metrics, audit).
type SessionObserver interface {
	SessionStarted(examID string)
	SessionSubmitted(examID string, trigger SubmitTrigger, outcome domain.Outcome)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string)                                  {}
func (nopObserver) SessionSubmitted(string, SubmitTrigger, domain.Outcome) {}

// Session is one student's attempt at one exam. Time only advances through Tick,
// so the hosting layer decides where ticks come from.
type Session struct {
	id         string
	exam       domain.Exam
	scheduleID string
	studentID  string
	results    ResultWriter
	observer   SessionObserver

	mu        sync.Mutex
	status    domain.SessionStatus
	name      string
	current   int
	answers   map[int]int
	remaining int
	outcome   domain.Outcome
	result    domain.Result
	done      chan struct{}
}

// SessionOption customizes a new session.
type SessionOption func(*Session)

// WithSessionID overrides the generated session id.
func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// WithSchedule links the attempt to the schedule it was entered from.
func WithSchedule(scheduleID string) SessionOption {
	return func(s *Session) { s.scheduleID = scheduleID }
}

// WithStudentID records the registered student id next to the typed display name.
func WithStudentID(studentID string) SessionOption {
	return func(s *Session) { s.studentID = studentID }
}

func WithObserver(o SessionObserver) SessionOption {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewExamSession builds a NOT_STARTED session. Inactive exams cannot be entered.
func NewExamSession(exam domain.Exam, results ResultWriter, opts ...SessionOption) (*Session, error) {
	if !exam.IsActive {
		return nil, domain.ErrNotAvailable
	}
	s := &Session{
		id:       uuid.NewString(),
		exam:     exam,
		results:  results,
		observer: nopObserver{},
		status:   domain.SessionNotStarted,
		answers:  make(map[int]int),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Exam() domain.Exam { return s.exam }

// Start moves the session to IN_PROGRESS and arms the countdown.
func (s *Session) Start(displayName string) error {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return fmt.Errorf("%w: display name is required", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.SessionNotStarted {
		return domain.ErrSessionState
	}
	s.name = name
	s.status = domain.SessionInProgress
	s.remaining = s.exam.Duration * 60
	s.observer.SessionStarted(s.exam.ID)
	return nil
}

// Answer records or overwrites the chosen option; the current position is unchanged.
func (s *Session) Answer(questionIndex, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.SessionInProgress {
		return domain.ErrSessionState
	}
	if questionIndex < 0 || questionIndex >= len(s.exam.Questions) {
		return fmt.Errorf("%w: question %d", domain.ErrOutOfRange, questionIndex)
	}
	if optionIndex < 0 || optionIndex >= len(s.exam.Questions[questionIndex].Options) {
		return fmt.Errorf("%w: option %d", domain.ErrOutOfRange, optionIndex)
	}
	s.answers[questionIndex] = optionIndex
	return nil
}

// Navigate jumps to any question, answered or not.
func (s *Session) Navigate(target int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.SessionInProgress {
		return domain.ErrSessionState
	}
	if target < 0 || target >= len(s.exam.Questions) {
		return fmt.Errorf("%w: question %d", domain.ErrOutOfRange, target)
	}
	s.current = target
	return nil
}

// Next moves forward one question, staying on the last one.
func (s *Session) Next() error {
	return s.step(1)
}

// Prev moves back one question, staying on the first one.
func (s *Session) Prev() error {
	return s.step(-1)
}

func (s *Session) step(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.SessionInProgress {
		return domain.ErrSessionState
	}
	next := s.current + delta
	if next >= 0 && next < len(s.exam.Questions) {
		s.current = next
	}
	return nil
}

// Tick consumes one second. Reaching zero submits whatever answers are recorded.
// Ticks outside IN_PROGRESS are ignored.
func (s *Session) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.SessionInProgress {
		return nil
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		return nil
	}
	_, err := s.submitLocked(ctx, TriggerAuto)
	return err
}

// Submit scores and stores the attempt. Once submitted, further calls return the
// first outcome without storing anything.
func (s *Session) Submit(ctx context.Context) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case domain.SessionSubmitted:
		return s.outcome, nil
	case domain.SessionNotStarted:
		return domain.Outcome{}, domain.ErrSessionState
	}
	return s.submitLocked(ctx, TriggerManual)
}

// submitLocked leaves the session IN_PROGRESS when the store fails so the
// student is never told the attempt was recorded.
func (s *Session) submitLocked(ctx context.Context, trigger SubmitTrigger) (domain.Outcome, error) {
	answers := copyAnswers(s.answers)
	outcome := Score(answers, s.exam.Questions)

	result, err := s.results.SaveResult(ctx, domain.ResultDraft{
		ExamID:         s.exam.ID,
		ScheduleID:     s.scheduleID,
		StudentID:      s.studentID,
		StudentName:    s.name,
		Score:          outcome.Score,
		CorrectAnswers: outcome.CorrectAnswers,
		TotalQuestions: outcome.TotalQuestions,
		Answers:        answers,
	})
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("save result: %w", err)
	}

	s.status = domain.SessionSubmitted
	s.outcome = outcome
	s.result = result
	close(s.done)
	s.observer.SessionSubmitted(s.exam.ID, trigger, outcome)
	return outcome, nil
}

// RunClock feeds ticks into the session until it is submitted or ctx ends.
// Failed auto-submits are retried on the following tick.
func (s *Session) RunClock(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			if err := s.Tick(ctx); err != nil {
				log.Printf("session %s: auto-submit failed: %v", s.id, err)
			}
		}
	}
}

// Done is closed when the session reaches SUBMITTED.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the terminal event once the session is submitted.
func (s *Session) Outcome() (domain.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.status == domain.SessionSubmitted
}

// Result returns the stored result; zero until submitted.
func (s *Session) Result() domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// State returns a copy safe to hand to the UI.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionState{
		ID:                   s.id,
		ExamID:               s.exam.ID,
		Status:               s.status,
		StudentName:          s.name,
		CurrentQuestionIndex: s.current,
		TotalQuestions:       len(s.exam.Questions),
		Answers:              copyAnswers(s.answers),
		RemainingSeconds:     s.remaining,
	}
}

func copyAnswers(in map[int]int) map[int]int {
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
