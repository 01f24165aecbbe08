package app

import (
	"time"

	"exam-portal/internal/domain"
)

// Resolve classifies a schedule for one student. A result for the same exam
// wins over any timing rule, so a completed exam can never be retaken.
func Resolve(schedule domain.ScheduledExam, now time.Time, history []domain.Result) domain.Status {
	for _, r := range history {
		if r.ExamID == schedule.ExamID {
			return domain.StatusCompleted
		}
	}
	return ResolveWindow(schedule, now)
}

// ResolveWindow applies only the timing rules; both window bounds are inclusive.
// The teacher's view uses it since it is not tied to a student.
func ResolveWindow(schedule domain.ScheduledExam, now time.Time) domain.Status {
	switch {
	case now.Before(schedule.StartDateTime):
		return domain.StatusUpcoming
	case now.After(schedule.EndDateTime):
		return domain.StatusExpired
	default:
		return domain.StatusAvailable
	}
}

// Eligible reports whether a student may sit the schedule: the explicit roster
// when present, otherwise every student of the class.
func Eligible(schedule domain.ScheduledExam, student domain.Student) bool {
	if schedule.HasRoster() {
		for _, id := range schedule.StudentIDs {
			if id == student.ID {
				return true
			}
		}
		return false
	}
	return schedule.ClassID != "" && schedule.ClassID == student.ClassID
}
