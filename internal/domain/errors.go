package domain

import "errors"

var (
	// ErrExamNotFound indicates the exam could not be loaded.
	ErrExamNotFound = errors.New("exam not found")
	// ErrScheduleNotFound indicates an unknown scheduled exam.
	ErrScheduleNotFound = errors.New("scheduled exam not found")
	// ErrNotFound is returned by stores for any other missing record.
	ErrNotFound = errors.New("record not found")
	// ErrNotAvailable is returned when an exam cannot be entered (missing, inactive, or outside its window).
	ErrNotAvailable = errors.New("exam not available")
	// ErrNotEligible is returned when the viewer is not on the schedule's roster or class.
	ErrNotEligible = errors.New("student not eligible for this exam")
	// ErrValidation wraps input validation failures.
	ErrValidation = errors.New("validation error")
	// ErrSessionState is returned for commands that are not allowed in the current session state.
	ErrSessionState = errors.New("command not allowed in current session state")
	// ErrOutOfRange indicates a question or option index outside the exam.
	ErrOutOfRange = errors.New("index out of range")
	// ErrSessionNotFound is returned when a session id is not registered.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrDuplicateResult is returned by stores that enforce one result per student and exam.
	ErrDuplicateResult = errors.New("result already recorded")
)
