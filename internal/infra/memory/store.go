package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"exam-portal/internal/domain"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of app.Store, useful for tests and demos.
type Store struct {
	clock         func() time.Time
	uniqueResults bool

	mu          sync.RWMutex
	exams       map[string]domain.Exam
	schedules   map[string]domain.ScheduledExam
	results     []domain.Result
	courses     map[string]domain.Course
	classes     map[string]domain.Class
	students    map[string]domain.Student
	teachers    map[string]domain.Teacher
	invitations []domain.EmailInvitation
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithStoreClock fixes the timestamps assigned to results and invitations.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.clock = now }
}

// WithUniqueResults rejects a second result for the same student and exam.
func WithUniqueResults() StoreOption {
	return func(s *Store) { s.uniqueResults = true }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		clock:     time.Now,
		exams:     make(map[string]domain.Exam),
		schedules: make(map[string]domain.ScheduledExam),
		courses:   make(map[string]domain.Course),
		classes:   make(map[string]domain.Class),
		students:  make(map[string]domain.Student),
		teachers:  make(map[string]domain.Teacher),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Store) CreateExam(_ context.Context, exam domain.Exam) (domain.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exam.ID = newID(exam.ID)
	s.exams[exam.ID] = cloneExam(exam)
	return exam, nil
}

func (s *Store) UpdateExam(_ context.Context, exam domain.Exam) (domain.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[exam.ID]; !ok {
		return domain.Exam{}, domain.ErrExamNotFound
	}
	s.exams[exam.ID] = cloneExam(exam)
	return exam, nil
}

func (s *Store) GetExam(_ context.Context, id string) (domain.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exam, ok := s.exams[id]
	if !ok {
		return domain.Exam{}, domain.ErrExamNotFound
	}
	return cloneExam(exam), nil
}

func (s *Store) ListExams(_ context.Context) ([]domain.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Exam, 0, len(s.exams))
	for _, exam := range s.exams {
		out = append(out, cloneExam(exam))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteExam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		return domain.ErrExamNotFound
	}
	delete(s.exams, id)
	return nil
}

func (s *Store) CreateScheduledExam(_ context.Context, schedule domain.ScheduledExam) (domain.ScheduledExam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule.ID = newID(schedule.ID)
	s.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (s *Store) UpdateScheduledExam(_ context.Context, schedule domain.ScheduledExam) (domain.ScheduledExam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[schedule.ID]; !ok {
		return domain.ScheduledExam{}, domain.ErrScheduleNotFound
	}
	s.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (s *Store) GetScheduledExam(_ context.Context, id string) (domain.ScheduledExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedule, ok := s.schedules[id]
	if !ok {
		return domain.ScheduledExam{}, domain.ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *Store) ListScheduledExams(_ context.Context) ([]domain.ScheduledExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScheduledExam, 0, len(s.schedules))
	for _, schedule := range s.schedules {
		out = append(out, schedule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.Before(out[j].StartDateTime) })
	return out, nil
}

func (s *Store) DeleteScheduledExam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return domain.ErrScheduleNotFound
	}
	delete(s.schedules, id)
	return nil
}

// SaveResult appends; existing results are never overwritten.
func (s *Store) SaveResult(_ context.Context, draft domain.ResultDraft) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uniqueResults {
		for _, r := range s.results {
			if r.ExamID == draft.ExamID && sameStudent(r, draft) {
				return domain.Result{}, domain.ErrDuplicateResult
			}
		}
	}
	result := domain.Result{
		ID:             uuid.NewString(),
		ExamID:         draft.ExamID,
		ScheduleID:     draft.ScheduleID,
		StudentID:      draft.StudentID,
		StudentName:    draft.StudentName,
		Score:          draft.Score,
		CorrectAnswers: draft.CorrectAnswers,
		TotalQuestions: draft.TotalQuestions,
		Answers:        cloneAnswers(draft.Answers),
		SubmittedAt:    s.clock(),
	}
	s.results = append(s.results, result)
	return result, nil
}

func sameStudent(r domain.Result, draft domain.ResultDraft) bool {
	if draft.StudentID != "" {
		return r.StudentID == draft.StudentID
	}
	return r.StudentID == "" && r.StudentName == draft.StudentName
}

func (s *Store) ResultsByStudent(_ context.Context, studentIDOrName string) ([]domain.Result, error) {
	return s.filterResults(func(r domain.Result) bool {
		return r.StudentID == studentIDOrName || r.StudentName == studentIDOrName
	}), nil
}

func (s *Store) ResultsByExam(_ context.Context, examID string) ([]domain.Result, error) {
	return s.filterResults(func(r domain.Result) bool { return r.ExamID == examID }), nil
}

func (s *Store) filterResults(match func(domain.Result) bool) []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, r := range s.results {
		if match(r) {
			r.Answers = cloneAnswers(r.Answers)
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) CreateCourse(_ context.Context, course domain.Course) (domain.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	course.ID = newID(course.ID)
	s.courses[course.ID] = course
	return course, nil
}

func (s *Store) UpdateCourse(_ context.Context, course domain.Course) (domain.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return domain.Course{}, domain.ErrNotFound
	}
	s.courses[course.ID] = course
	return course, nil
}

func (s *Store) GetCourse(_ context.Context, id string) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	if !ok {
		return domain.Course{}, domain.ErrNotFound
	}
	return course, nil
}

func (s *Store) ListCourses(_ context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *Store) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.courses, id)
	return nil
}

func (s *Store) CreateClass(_ context.Context, class domain.Class) (domain.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	class.ID = newID(class.ID)
	s.classes[class.ID] = class
	return class, nil
}

func (s *Store) GetClass(_ context.Context, id string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	class, ok := s.classes[id]
	if !ok {
		return domain.Class{}, domain.ErrNotFound
	}
	return class, nil
}

func (s *Store) ListClasses(_ context.Context) ([]domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Class, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateStudent(_ context.Context, student domain.Student) (domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student.ID = newID(student.ID)
	s.students[student.ID] = student
	return student, nil
}

func (s *Store) GetStudent(_ context.Context, id string) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[id]
	if !ok {
		return domain.Student{}, domain.ErrNotFound
	}
	return student, nil
}

func (s *Store) StudentsByClass(_ context.Context, classID string) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Student, 0)
	for _, st := range s.students {
		if st.ClassID == classID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateTeacher(_ context.Context, teacher domain.Teacher) (domain.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teacher.ID = newID(teacher.ID)
	s.teachers[teacher.ID] = teacher
	return teacher, nil
}

func (s *Store) GetTeacher(_ context.Context, id string) (domain.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teacher, ok := s.teachers[id]
	if !ok {
		return domain.Teacher{}, domain.ErrNotFound
	}
	return teacher, nil
}

func (s *Store) SaveEmailInvitation(_ context.Context, inv domain.EmailInvitation) (domain.EmailInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = newID(inv.ID)
	if inv.SentAt.IsZero() {
		inv.SentAt = s.clock()
	}
	s.invitations = append(s.invitations, inv)
	return inv, nil
}

func (s *Store) InvitationsBySchedule(_ context.Context, scheduleID string) ([]domain.EmailInvitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EmailInvitation, 0)
	for _, inv := range s.invitations {
		if inv.ScheduleID == scheduleID {
			out = append(out, inv)
		}
	}
	return out, nil
}

// cloneExam keeps callers from mutating stored question slices.
func cloneExam(exam domain.Exam) domain.Exam {
	questions := make([]domain.Question, len(exam.Questions))
	for i, q := range exam.Questions {
		q.Options = append([]string(nil), q.Options...)
		questions[i] = q
	}
	exam.Questions = questions
	return exam
}

func cloneAnswers(in map[int]int) map[int]int {
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
