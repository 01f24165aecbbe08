package app

import (
	"context"

	"exam-portal/internal/domain"
)

// ExamStore holds exam definitions.
type ExamStore interface {
	CreateExam(ctx context.Context, exam domain.Exam) (domain.Exam, error)
	UpdateExam(ctx context.Context, exam domain.Exam) (domain.Exam, error)
	GetExam(ctx context.Context, id string) (domain.Exam, error)
	ListExams(ctx context.Context) ([]domain.Exam, error)
	DeleteExam(ctx context.Context, id string) error
}

// ScheduleStore holds sitting windows.
type ScheduleStore interface {
	CreateScheduledExam(ctx context.Context, s domain.ScheduledExam) (domain.ScheduledExam, error)
	UpdateScheduledExam(ctx context.Context, s domain.ScheduledExam) (domain.ScheduledExam, error)
	GetScheduledExam(ctx context.Context, id string) (domain.ScheduledExam, error)
	ListScheduledExams(ctx context.Context) ([]domain.ScheduledExam, error)
	DeleteScheduledExam(ctx context.Context, id string) error
}

// ResultStore is append-only: there is deliberately no update or delete.
type ResultStore interface {
	ResultWriter
	// ResultsByStudent matches either the registered student id or the typed name.
	ResultsByStudent(ctx context.Context, studentIDOrName string) ([]domain.Result, error)
	ResultsByExam(ctx context.Context, examID string) ([]domain.Result, error)
}

// RosterStore holds courses, classes, students and teachers.
type RosterStore interface {
	CreateCourse(ctx context.Context, c domain.Course) (domain.Course, error)
	UpdateCourse(ctx context.Context, c domain.Course) (domain.Course, error)
	GetCourse(ctx context.Context, id string) (domain.Course, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	CreateClass(ctx context.Context, c domain.Class) (domain.Class, error)
	GetClass(ctx context.Context, id string) (domain.Class, error)
	ListClasses(ctx context.Context) ([]domain.Class, error)

	CreateStudent(ctx context.Context, s domain.Student) (domain.Student, error)
	GetStudent(ctx context.Context, id string) (domain.Student, error)
	StudentsByClass(ctx context.Context, classID string) ([]domain.Student, error)

	CreateTeacher(ctx context.Context, t domain.Teacher) (domain.Teacher, error)
	GetTeacher(ctx context.Context, id string) (domain.Teacher, error)
}

// InvitationStore logs sent invitations.
type InvitationStore interface {
	SaveEmailInvitation(ctx context.Context, inv domain.EmailInvitation) (domain.EmailInvitation, error)
	InvitationsBySchedule(ctx context.Context, scheduleID string) ([]domain.EmailInvitation, error)
}

// Store is the full entity store (in-memory, Postgres).
type Store interface {
	ExamStore
	ScheduleStore
	ResultStore
	RosterStore
	InvitationStore
}

// ExamRepository serves exams to sessions through a cache.
type ExamRepository interface {
	GetExam(ctx context.Context, examID string) (domain.Exam, error)
	Invalidate(ctx context.Context, examID string)
}

// SessionRepository tracks open exam sessions (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// InvitationNotifier delivers invitations; delivery is best effort.
type InvitationNotifier interface {
	Publish(ctx context.Context, inv domain.EmailInvitation) error
}
