package domain

import "time"

// Question models an MCQ question; CorrectAnswer indexes into Options.
type Question struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0"`
}

// Exam is an ordered set of questions with a time limit in minutes.
type Exam struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    int        `json:"duration"`
	Questions   []Question `json:"questions"`
	IsActive    bool       `json:"isActive"`
	CourseID    string     `json:"courseId,omitempty"`
	TeacherID   string     `json:"teacherId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ScheduledExam binds an exam to one sitting window for a class or an explicit roster.
type ScheduledExam struct {
	ID            string    `json:"id"`
	ExamID        string    `json:"examId"`
	ClassID       string    `json:"classId"`
	StudentIDs    []string  `json:"studentIds,omitempty"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
}

// HasRoster reports whether the explicit student list overrides class-wide eligibility.
func (s ScheduledExam) HasRoster() bool {
	return len(s.StudentIDs) > 0
}

// Result is one completed attempt. It is never updated once stored.
type Result struct {
	ID             string      `json:"id"`
	ExamID         string      `json:"examId"`
	ScheduleID     string      `json:"scheduleId,omitempty"`
	StudentID      string      `json:"studentId,omitempty"`
	StudentName    string      `json:"studentName"`
	Score          int         `json:"score"`
	CorrectAnswers int         `json:"correctAnswers"`
	TotalQuestions int         `json:"totalQuestions"`
	Answers        map[int]int `json:"answers"`
	SubmittedAt    time.Time   `json:"submittedAt"`
}

// ResultDraft is what the session hands to the store; the store assigns ID and SubmittedAt.
type ResultDraft struct {
	ExamID         string
	ScheduleID     string
	StudentID      string
	StudentName    string
	Score          int
	CorrectAnswers int
	TotalQuestions int
	Answers        map[int]int
}

// Outcome is the scored summary of an attempt.
type Outcome struct {
	Score          int `json:"score"`
	CorrectAnswers int `json:"correctAnswers"`
	TotalQuestions int `json:"totalQuestions"`
}

type Student struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ClassID   string `json:"classId"`
	Email     string `json:"email"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

type Teacher struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type Class struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CourseIDs []string `json:"courseIds,omitempty"`
}

type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TeacherID   string   `json:"teacherId,omitempty"`
	ExamIDs     []string `json:"examIds,omitempty"`
}

// EmailInvitation is a fire-and-forget notification record.
type EmailInvitation struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"scheduleId"`
	ExamID     string    `json:"examId"`
	StudentID  string    `json:"studentId"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	SentAt     time.Time `json:"sentAt"`
}

// Viewer is the current user, passed explicitly instead of read from process state.
// StudentID is empty for teachers and for anonymous exam takers.
type Viewer struct {
	StudentID string
	Name      string
}
