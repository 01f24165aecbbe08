package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exam-portal/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ExamDraft is the teacher's input for creating or editing an exam.
type ExamDraft struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Duration    int               `json:"duration" validate:"gt=0"`
	Questions   []domain.Question `json:"questions" validate:"dive"`
	IsActive    bool              `json:"isActive"`
	CourseID    string            `json:"courseId"`
	TeacherID   string            `json:"teacherId"`
}

// ScheduleDraft is the teacher's input for a sitting window.
type ScheduleDraft struct {
	ExamID        string    `json:"examId" validate:"required"`
	ClassID       string    `json:"classId" validate:"required_without=StudentIDs"`
	StudentIDs    []string  `json:"studentIds" validate:"omitempty,dive,required"`
	StartDateTime time.Time `json:"startDateTime" validate:"required"`
	EndDateTime   time.Time `json:"endDateTime" validate:"required,gtfield=StartDateTime"`
}

type CourseDraft struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	TeacherID   string `json:"teacherId"`
}

type ClassDraft struct {
	Name      string   `json:"name" validate:"required"`
	CourseIDs []string `json:"courseIds"`
}

type StudentDraft struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	ClassID   string `json:"classId" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
}

type TeacherDraft struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateQuestion, domain.Question{})
	return v
}

func validateQuestion(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.Question)
	if q.CorrectAnswer >= len(q.Options) {
		sl.ReportError(q.CorrectAnswer, "CorrectAnswer", "correctAnswer", "ltoptions", "")
	}
}

func (s *PortalService) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// CreateExam stores a new exam and attaches it to its course when one is given.
func (s *PortalService) CreateExam(ctx context.Context, draft ExamDraft) (domain.Exam, error) {
	if err := s.check(draft); err != nil {
		return domain.Exam{}, err
	}
	if draft.CourseID != "" {
		if _, err := s.store.GetCourse(ctx, draft.CourseID); err != nil {
			return domain.Exam{}, err
		}
	}

	exam, err := s.store.CreateExam(ctx, domain.Exam{
		Title:       draft.Title,
		Description: draft.Description,
		Duration:    draft.Duration,
		Questions:   draft.Questions,
		IsActive:    draft.IsActive,
		CourseID:    draft.CourseID,
		TeacherID:   draft.TeacherID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return domain.Exam{}, err
	}

	if err := s.attachExam(ctx, exam.CourseID, exam.ID); err != nil {
		return exam, err
	}
	return exam, nil
}

// UpdateExam replaces an exam's content. Sessions already open keep the version they started with.
func (s *PortalService) UpdateExam(ctx context.Context, examID string, draft ExamDraft) (domain.Exam, error) {
	if err := s.check(draft); err != nil {
		return domain.Exam{}, err
	}
	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return domain.Exam{}, err
	}
	if draft.CourseID != "" && draft.CourseID != exam.CourseID {
		if _, err := s.store.GetCourse(ctx, draft.CourseID); err != nil {
			return domain.Exam{}, err
		}
	}
	previousCourse := exam.CourseID
	exam.Title = draft.Title
	exam.Description = draft.Description
	exam.Duration = draft.Duration
	exam.Questions = draft.Questions
	exam.IsActive = draft.IsActive
	exam.CourseID = draft.CourseID
	exam.TeacherID = draft.TeacherID

	updated, err := s.store.UpdateExam(ctx, exam)
	if err != nil {
		return domain.Exam{}, err
	}
	s.exams.Invalidate(ctx, examID)

	if previousCourse != updated.CourseID {
		if err := s.detachExam(ctx, previousCourse, examID); err != nil {
			return updated, err
		}
		if err := s.attachExam(ctx, updated.CourseID, examID); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// ListExams returns every exam, oldest first.
func (s *PortalService) ListExams(ctx context.Context) ([]domain.Exam, error) {
	return s.store.ListExams(ctx)
}

// DeleteExam removes an exam and detaches it from its course. Existing results are kept.
func (s *PortalService) DeleteExam(ctx context.Context, examID string) error {
	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExam(ctx, examID); err != nil {
		return err
	}
	s.exams.Invalidate(ctx, examID)
	return s.detachExam(ctx, exam.CourseID, examID)
}

func (s *PortalService) attachExam(ctx context.Context, courseID, examID string) error {
	if courseID == "" {
		return nil
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("attach exam to course: %w", err)
	}
	for _, id := range course.ExamIDs {
		if id == examID {
			return nil
		}
	}
	course.ExamIDs = append(course.ExamIDs, examID)
	if _, err := s.store.UpdateCourse(ctx, course); err != nil {
		return fmt.Errorf("attach exam to course: %w", err)
	}
	return nil
}

// detachExam tolerates a course that no longer exists.
func (s *PortalService) detachExam(ctx context.Context, courseID, examID string) error {
	if courseID == "" {
		return nil
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("detach exam from course: %w", err)
	}
	kept := make([]string, 0, len(course.ExamIDs))
	for _, id := range course.ExamIDs {
		if id != examID {
			kept = append(kept, id)
		}
	}
	course.ExamIDs = kept
	if _, err := s.store.UpdateCourse(ctx, course); err != nil {
		return fmt.Errorf("detach exam from course: %w", err)
	}
	return nil
}

// SetExamActive opens or closes an exam to new sessions.
func (s *PortalService) SetExamActive(ctx context.Context, examID string, active bool) (domain.Exam, error) {
	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return domain.Exam{}, err
	}
	exam.IsActive = active
	updated, err := s.store.UpdateExam(ctx, exam)
	if err != nil {
		return domain.Exam{}, err
	}
	s.exams.Invalidate(ctx, examID)
	return updated, nil
}

// ScheduleExam creates a sitting window for an existing exam.
func (s *PortalService) ScheduleExam(ctx context.Context, draft ScheduleDraft) (domain.ScheduledExam, error) {
	if err := s.checkSchedule(ctx, draft); err != nil {
		return domain.ScheduledExam{}, err
	}
	return s.store.CreateScheduledExam(ctx, scheduleFromDraft(draft))
}

// RescheduleExam replaces the window or audience of a schedule.
func (s *PortalService) RescheduleExam(ctx context.Context, scheduleID string, draft ScheduleDraft) (domain.ScheduledExam, error) {
	if _, err := s.store.GetScheduledExam(ctx, scheduleID); err != nil {
		return domain.ScheduledExam{}, err
	}
	if err := s.checkSchedule(ctx, draft); err != nil {
		return domain.ScheduledExam{}, err
	}
	schedule := scheduleFromDraft(draft)
	schedule.ID = scheduleID
	return s.store.UpdateScheduledExam(ctx, schedule)
}

func (s *PortalService) CancelSchedule(ctx context.Context, scheduleID string) error {
	return s.store.DeleteScheduledExam(ctx, scheduleID)
}

func (s *PortalService) checkSchedule(ctx context.Context, draft ScheduleDraft) error {
	if err := s.check(draft); err != nil {
		return err
	}
	if _, err := s.store.GetExam(ctx, draft.ExamID); err != nil {
		return err
	}
	if draft.ClassID != "" {
		if _, err := s.store.GetClass(ctx, draft.ClassID); err != nil {
			return err
		}
	}
	return nil
}

func scheduleFromDraft(draft ScheduleDraft) domain.ScheduledExam {
	return domain.ScheduledExam{
		ExamID:        draft.ExamID,
		ClassID:       draft.ClassID,
		StudentIDs:    draft.StudentIDs,
		StartDateTime: draft.StartDateTime,
		EndDateTime:   draft.EndDateTime,
	}
}

func (s *PortalService) CreateCourse(ctx context.Context, draft CourseDraft) (domain.Course, error) {
	if err := s.check(draft); err != nil {
		return domain.Course{}, err
	}
	return s.store.CreateCourse(ctx, domain.Course{
		Title:       draft.Title,
		Description: draft.Description,
		TeacherID:   draft.TeacherID,
	})
}

func (s *PortalService) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.store.ListCourses(ctx)
}

// DeleteCourse removes a course; its exams stay and keep their course id.
func (s *PortalService) DeleteCourse(ctx context.Context, courseID string) error {
	return s.store.DeleteCourse(ctx, courseID)
}

func (s *PortalService) CreateClass(ctx context.Context, draft ClassDraft) (domain.Class, error) {
	if err := s.check(draft); err != nil {
		return domain.Class{}, err
	}
	return s.store.CreateClass(ctx, domain.Class{Name: draft.Name, CourseIDs: draft.CourseIDs})
}

func (s *PortalService) ListClasses(ctx context.Context) ([]domain.Class, error) {
	return s.store.ListClasses(ctx)
}

// RegisterStudent adds a student to an existing class.
func (s *PortalService) RegisterStudent(ctx context.Context, draft StudentDraft) (domain.Student, error) {
	if err := s.check(draft); err != nil {
		return domain.Student{}, err
	}
	if _, err := s.store.GetClass(ctx, draft.ClassID); err != nil {
		return domain.Student{}, err
	}
	return s.store.CreateStudent(ctx, domain.Student{
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		ClassID:   draft.ClassID,
		Email:     draft.Email,
	})
}

func (s *PortalService) RegisterTeacher(ctx context.Context, draft TeacherDraft) (domain.Teacher, error) {
	if err := s.check(draft); err != nil {
		return domain.Teacher{}, err
	}
	return s.store.CreateTeacher(ctx, domain.Teacher{
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		Email:     draft.Email,
	})
}

func (s *PortalService) Teacher(ctx context.Context, teacherID string) (domain.Teacher, error) {
	return s.store.GetTeacher(ctx, teacherID)
}
