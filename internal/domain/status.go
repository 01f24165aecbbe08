package domain

// Status is the availability of a schedule relative to an instant and a student's history.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusAvailable Status = "AVAILABLE"
	StatusExpired   Status = "EXPIRED"
	StatusCompleted Status = "COMPLETED"
)

// Label is the badge text shown on the teacher's scheduling view.
func (s Status) Label() string {
	switch s {
	case StatusUpcoming:
		return "À venir"
	case StatusAvailable:
		return "En cours"
	case StatusExpired:
		return "Terminé"
	case StatusCompleted:
		return "Complété"
	}
	return string(s)
}

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionNotStarted SessionStatus = "NOT_STARTED"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionSubmitted  SessionStatus = "SUBMITTED"
)

// SessionState is the snapshot exposed to the UI.
type SessionState struct {
	ID                   string        `json:"id"`
	ExamID               string        `json:"examId"`
	Status               SessionStatus `json:"status"`
	StudentName          string        `json:"studentName,omitempty"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	TotalQuestions       int           `json:"totalQuestions"`
	Answers              map[int]int   `json:"answers"`
	RemainingSeconds     int           `json:"remainingSeconds"`
}

// ScheduleView pairs a schedule with its derived status for dashboards.
type ScheduleView struct {
	Schedule    ScheduledExam `json:"schedule"`
	ExamTitle   string        `json:"examTitle"`
	Status      Status        `json:"status"`
	Label       string        `json:"label"`
	ResultCount int           `json:"resultCount,omitempty"`
}
