package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"exam-portal/internal/domain"
	"github.com/go-playground/validator/v10"
)

// PortalService contains the portal use cases for teachers and students.
type PortalService struct {
	store    Store
	exams    ExamRepository
	sessions SessionRepository
	notifier InvitationNotifier
	observer SessionObserver
	now      func() time.Time
	validate *validator.Validate
}

// PortalOption customizes the service.
type PortalOption func(*PortalService)

func WithNotifier(n InvitationNotifier) PortalOption {
	return func(s *PortalService) { s.notifier = n }
}

func WithSessionObserver(o SessionObserver) PortalOption {
	return func(s *PortalService) { s.observer = o }
}

// WithClock is used by tests for deterministic availability.
func WithClock(now func() time.Time) PortalOption {
	return func(s *PortalService) { s.now = now }
}

func NewPortalService(store Store, exams ExamRepository, sessions SessionRepository, opts ...PortalOption) *PortalService {
	s := &PortalService{
		store:    store,
		exams:    exams,
		sessions: sessions,
		observer: nopObserver{},
		now:      time.Now,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnterSchedule opens a session for a registered student. The schedule must be
// AVAILABLE for that student and the student must be on its roster or class.
func (s *PortalService) EnterSchedule(ctx context.Context, viewer domain.Viewer, scheduleID string) (*Session, error) {
	if viewer.StudentID == "" {
		return nil, fmt.Errorf("%w: student id is required", domain.ErrValidation)
	}
	schedule, err := s.store.GetScheduledExam(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	student, err := s.store.GetStudent(ctx, viewer.StudentID)
	if err != nil {
		return nil, err
	}
	if !Eligible(schedule, student) {
		return nil, domain.ErrNotEligible
	}

	history, err := s.store.ResultsByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	if status := Resolve(schedule, s.now(), history); status != domain.StatusAvailable {
		return nil, fmt.Errorf("%w: schedule is %s", domain.ErrNotAvailable, status)
	}

	return s.openSession(ctx, schedule.ExamID, WithSchedule(schedule.ID), WithStudentID(student.ID))
}

// OpenExam opens an unscheduled session identified only by the name typed at start.
func (s *PortalService) OpenExam(ctx context.Context, examID string) (*Session, error) {
	return s.openSession(ctx, examID)
}

func (s *PortalService) openSession(ctx context.Context, examID string, opts ...SessionOption) (*Session, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if errors.Is(err, domain.ErrExamNotFound) {
		return nil, domain.ErrNotAvailable
	}
	if err != nil {
		return nil, err
	}

	opts = append(opts, WithObserver(s.observer))
	session, err := NewExamSession(exam, s.store, opts...)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(session)
	return session, nil
}

// Session looks up an open session.
func (s *PortalService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// CloseSession drops a session from the registry; its clock must already be stopped.
func (s *PortalService) CloseSession(sessionID string) {
	s.sessions.Delete(sessionID)
}

// InviteUpcoming records and publishes one invitation per eligible student for
// schedules starting within window. Students already invited are skipped, and a
// schedule that fails is logged without holding back the others.
func (s *PortalService) InviteUpcoming(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	schedules, err := s.store.ListScheduledExams(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, schedule := range schedules {
		if !schedule.StartDateTime.After(now) || schedule.StartDateTime.After(now.Add(window)) {
			continue
		}
		n, err := s.inviteSchedule(ctx, schedule)
		sent += n
		if err != nil {
			log.Printf("invite schedule %s: %v", schedule.ID, err)
		}
	}
	return sent, nil
}

func (s *PortalService) inviteSchedule(ctx context.Context, schedule domain.ScheduledExam) (int, error) {
	exam, err := s.exams.GetExam(ctx, schedule.ExamID)
	if err != nil {
		return 0, err
	}
	existing, err := s.store.InvitationsBySchedule(ctx, schedule.ID)
	if err != nil {
		return 0, err
	}
	invited := make(map[string]struct{}, len(existing))
	for _, inv := range existing {
		invited[inv.StudentID] = struct{}{}
	}

	students, err := s.eligibleStudents(ctx, schedule)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, student := range students {
		if student.Email == "" {
			continue
		}
		if _, ok := invited[student.ID]; ok {
			continue
		}
		inv, err := s.store.SaveEmailInvitation(ctx, domain.EmailInvitation{
			ScheduleID: schedule.ID,
			ExamID:     exam.ID,
			StudentID:  student.ID,
			Email:      student.Email,
			Subject:    fmt.Sprintf("Examen %q le %s", exam.Title, schedule.StartDateTime.Format("02/01/2006 15:04")),
		})
		if err != nil {
			return sent, err
		}
		sent++
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.Publish(ctx, inv); err != nil {
			log.Printf("publish invitation %s to %s: %v", inv.ID, inv.Email, err)
		}
	}
	return sent, nil
}

// eligibleStudents expands a schedule into students: the roster when set, otherwise the class.
func (s *PortalService) eligibleStudents(ctx context.Context, schedule domain.ScheduledExam) ([]domain.Student, error) {
	if !schedule.HasRoster() {
		return s.store.StudentsByClass(ctx, schedule.ClassID)
	}
	students := make([]domain.Student, 0, len(schedule.StudentIDs))
	for _, id := range schedule.StudentIDs {
		student, err := s.store.GetStudent(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, nil
}
