package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exam-portal/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store keeps every entity as a JSONB document, with the columns queries filter on
// pulled out next to it.
type Store struct {
	pool          *pgxpool.Pool
	clock         func() time.Time
	uniqueResults bool
}

func NewStore(pool *pgxpool.Pool, uniqueResults bool) *Store {
	return &Store{pool: pool, clock: time.Now, uniqueResults: uniqueResults}
}

func getDoc[T any](ctx context.Context, pool *pgxpool.Pool, notFound error, query string, args ...interface{}) (T, error) {
	var out T
	var raw []byte
	err := pool.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, notFound
	}
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal document: %w", err)
	}
	return out, nil
}

func listDocs[T any](ctx context.Context, pool *pgxpool.Pool, query string, args ...interface{}) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) exec(ctx context.Context, notFound error, query string, args ...interface{}) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if notFound != nil && tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Store) CreateExam(ctx context.Context, exam domain.Exam) (domain.Exam, error) {
	exam.ID = newID(exam.ID)
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = s.clock()
	}
	data, err := json.Marshal(exam)
	if err != nil {
		return domain.Exam{}, err
	}
	if err := s.exec(ctx, nil, `INSERT INTO exams (id, created_at, data) VALUES ($1, $2, $3)`, exam.ID, exam.CreatedAt, data); err != nil {
		return domain.Exam{}, fmt.Errorf("insert exam: %w", err)
	}
	return exam, nil
}

func (s *Store) UpdateExam(ctx context.Context, exam domain.Exam) (domain.Exam, error) {
	data, err := json.Marshal(exam)
	if err != nil {
		return domain.Exam{}, err
	}
	if err := s.exec(ctx, domain.ErrExamNotFound, `UPDATE exams SET data=$2 WHERE id=$1`, exam.ID, data); err != nil {
		return domain.Exam{}, err
	}
	return exam, nil
}

func (s *Store) GetExam(ctx context.Context, id string) (domain.Exam, error) {
	return getDoc[domain.Exam](ctx, s.pool, domain.ErrExamNotFound, `SELECT data FROM exams WHERE id=$1`, id)
}

func (s *Store) ListExams(ctx context.Context) ([]domain.Exam, error) {
	return listDocs[domain.Exam](ctx, s.pool, `SELECT data FROM exams ORDER BY created_at`)
}

func (s *Store) DeleteExam(ctx context.Context, id string) error {
	return s.exec(ctx, domain.ErrExamNotFound, `DELETE FROM exams WHERE id=$1`, id)
}

func (s *Store) CreateScheduledExam(ctx context.Context, schedule domain.ScheduledExam) (domain.ScheduledExam, error) {
	schedule.ID = newID(schedule.ID)
	data, err := json.Marshal(schedule)
	if err != nil {
		return domain.ScheduledExam{}, err
	}
	if err := s.exec(ctx, nil, `INSERT INTO scheduled_exams (id, exam_id, start_at, data) VALUES ($1, $2, $3, $4)`,
		schedule.ID, schedule.ExamID, schedule.StartDateTime, data); err != nil {
		return domain.ScheduledExam{}, fmt.Errorf("insert scheduled exam: %w", err)
	}
	return schedule, nil
}

func (s *Store) UpdateScheduledExam(ctx context.Context, schedule domain.ScheduledExam) (domain.ScheduledExam, error) {
	data, err := json.Marshal(schedule)
	if err != nil {
		return domain.ScheduledExam{}, err
	}
	if err := s.exec(ctx, domain.ErrScheduleNotFound, `UPDATE scheduled_exams SET exam_id=$2, start_at=$3, data=$4 WHERE id=$1`,
		schedule.ID, schedule.ExamID, schedule.StartDateTime, data); err != nil {
		return domain.ScheduledExam{}, err
	}
	return schedule, nil
}

func (s *Store) GetScheduledExam(ctx context.Context, id string) (domain.ScheduledExam, error) {
	return getDoc[domain.ScheduledExam](ctx, s.pool, domain.ErrScheduleNotFound, `SELECT data FROM scheduled_exams WHERE id=$1`, id)
}

func (s *Store) ListScheduledExams(ctx context.Context) ([]domain.ScheduledExam, error) {
	return listDocs[domain.ScheduledExam](ctx, s.pool, `SELECT data FROM scheduled_exams ORDER BY start_at`)
}

func (s *Store) DeleteScheduledExam(ctx context.Context, id string) error {
	return s.exec(ctx, domain.ErrScheduleNotFound, `DELETE FROM scheduled_exams WHERE id=$1`, id)
}

// SaveResult only ever inserts. With unique results enabled the insert runs
// under a transaction-scoped advisory lock keyed on (exam, student), so two
// concurrent submissions cannot both pass the existence check.
func (s *Store) SaveResult(ctx context.Context, draft domain.ResultDraft) (domain.Result, error) {
	result := domain.Result{
		ID:             uuid.NewString(),
		ExamID:         draft.ExamID,
		ScheduleID:     draft.ScheduleID,
		StudentID:      draft.StudentID,
		StudentName:    draft.StudentName,
		Score:          draft.Score,
		CorrectAnswers: draft.CorrectAnswers,
		TotalQuestions: draft.TotalQuestions,
		Answers:        draft.Answers,
		SubmittedAt:    s.clock().UTC(),
	}
	if result.Answers == nil {
		result.Answers = map[int]int{}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return domain.Result{}, err
	}

	args := []interface{}{result.ID, result.ExamID, result.StudentID, result.StudentName, result.SubmittedAt, data}
	if !s.uniqueResults {
		if err := s.exec(ctx, nil, insertResultSQL, args...); err != nil {
			return domain.Result{}, fmt.Errorf("insert result: %w", err)
		}
		return result, nil
	}

	err = s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resultLockKey(result)); err != nil {
			return fmt.Errorf("lock result: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM results WHERE exam_id=$1 AND student_id=$2 AND ($2 <> '' OR student_name=$3))`,
			result.ExamID, result.StudentID, result.StudentName,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check result: %w", err)
		}
		if exists {
			return domain.ErrDuplicateResult
		}
		if _, err := tx.Exec(ctx, insertResultSQL, args...); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Result{}, err
	}
	return result, nil
}

const insertResultSQL = `INSERT INTO results (id, exam_id, student_id, student_name, submitted_at, data) VALUES ($1, $2, $3, $4, $5, $6)`

// resultLockKey identifies a student's attempt at an exam: by id when registered, by typed name otherwise.
func resultLockKey(r domain.Result) string {
	if r.StudentID != "" {
		return r.ExamID + ":id:" + r.StudentID
	}
	return r.ExamID + ":name:" + r.StudentName
}

func (s *Store) ResultsByStudent(ctx context.Context, studentIDOrName string) ([]domain.Result, error) {
	return listDocs[domain.Result](ctx, s.pool,
		`SELECT data FROM results WHERE student_id=$1 OR student_name=$1 ORDER BY submitted_at`, studentIDOrName)
}

func (s *Store) ResultsByExam(ctx context.Context, examID string) ([]domain.Result, error) {
	return listDocs[domain.Result](ctx, s.pool, `SELECT data FROM results WHERE exam_id=$1 ORDER BY submitted_at`, examID)
}

func (s *Store) CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	course.ID = newID(course.ID)
	if err := s.putDoc(ctx, "courses", course.ID, course); err != nil {
		return domain.Course{}, err
	}
	return course, nil
}

func (s *Store) UpdateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	data, err := json.Marshal(course)
	if err != nil {
		return domain.Course{}, err
	}
	if err := s.exec(ctx, domain.ErrNotFound, `UPDATE courses SET data=$2 WHERE id=$1`, course.ID, data); err != nil {
		return domain.Course{}, err
	}
	return course, nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (domain.Course, error) {
	return getDoc[domain.Course](ctx, s.pool, domain.ErrNotFound, `SELECT data FROM courses WHERE id=$1`, id)
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return listDocs[domain.Course](ctx, s.pool, `SELECT data FROM courses ORDER BY data->>'title'`)
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return s.exec(ctx, domain.ErrNotFound, `DELETE FROM courses WHERE id=$1`, id)
}

func (s *Store) CreateClass(ctx context.Context, class domain.Class) (domain.Class, error) {
	class.ID = newID(class.ID)
	if err := s.putDoc(ctx, "classes", class.ID, class); err != nil {
		return domain.Class{}, err
	}
	return class, nil
}

func (s *Store) GetClass(ctx context.Context, id string) (domain.Class, error) {
	return getDoc[domain.Class](ctx, s.pool, domain.ErrNotFound, `SELECT data FROM classes WHERE id=$1`, id)
}

func (s *Store) ListClasses(ctx context.Context) ([]domain.Class, error) {
	return listDocs[domain.Class](ctx, s.pool, `SELECT data FROM classes ORDER BY data->>'name'`)
}

func (s *Store) CreateStudent(ctx context.Context, student domain.Student) (domain.Student, error) {
	student.ID = newID(student.ID)
	data, err := json.Marshal(student)
	if err != nil {
		return domain.Student{}, err
	}
	if err := s.exec(ctx, nil, `INSERT INTO students (id, class_id, data) VALUES ($1, $2, $3)`, student.ID, student.ClassID, data); err != nil {
		return domain.Student{}, fmt.Errorf("insert student: %w", err)
	}
	return student, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (domain.Student, error) {
	return getDoc[domain.Student](ctx, s.pool, domain.ErrNotFound, `SELECT data FROM students WHERE id=$1`, id)
}

func (s *Store) StudentsByClass(ctx context.Context, classID string) ([]domain.Student, error) {
	return listDocs[domain.Student](ctx, s.pool, `SELECT data FROM students WHERE class_id=$1 ORDER BY id`, classID)
}

func (s *Store) CreateTeacher(ctx context.Context, teacher domain.Teacher) (domain.Teacher, error) {
	teacher.ID = newID(teacher.ID)
	if err := s.putDoc(ctx, "teachers", teacher.ID, teacher); err != nil {
		return domain.Teacher{}, err
	}
	return teacher, nil
}

func (s *Store) GetTeacher(ctx context.Context, id string) (domain.Teacher, error) {
	return getDoc[domain.Teacher](ctx, s.pool, domain.ErrNotFound, `SELECT data FROM teachers WHERE id=$1`, id)
}

func (s *Store) SaveEmailInvitation(ctx context.Context, inv domain.EmailInvitation) (domain.EmailInvitation, error) {
	inv.ID = newID(inv.ID)
	if inv.SentAt.IsZero() {
		inv.SentAt = s.clock().UTC()
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return domain.EmailInvitation{}, err
	}
	if err := s.exec(ctx, nil, `INSERT INTO email_invitations (id, schedule_id, data) VALUES ($1, $2, $3)`, inv.ID, inv.ScheduleID, data); err != nil {
		return domain.EmailInvitation{}, fmt.Errorf("insert invitation: %w", err)
	}
	return inv, nil
}

func (s *Store) InvitationsBySchedule(ctx context.Context, scheduleID string) ([]domain.EmailInvitation, error) {
	return listDocs[domain.EmailInvitation](ctx, s.pool, `SELECT data FROM email_invitations WHERE schedule_id=$1`, scheduleID)
}

// putDoc inserts into one of the id+data tables; table is never user input.
func (s *Store) putDoc(ctx context.Context, table, id string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.exec(ctx, nil, `INSERT INTO `+table+` (id, data) VALUES ($1, $2)`, id, data); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}
