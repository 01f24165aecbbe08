package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"exam-portal/internal/domain"
)

// ExamReport lists every result recorded for an exam.
type ExamReport struct {
	Exam         domain.Exam     `json:"exam"`
	Results      []domain.Result `json:"results"`
	AverageScore float64         `json:"averageScore"`
}

// StudentSchedules lists the schedules the student is eligible for, each with its status.
func (s *PortalService) StudentSchedules(ctx context.Context, viewer domain.Viewer) ([]domain.ScheduleView, error) {
	if viewer.StudentID == "" {
		return nil, fmt.Errorf("%w: student id is required", domain.ErrValidation)
	}
	student, err := s.store.GetStudent(ctx, viewer.StudentID)
	if err != nil {
		return nil, err
	}
	schedules, err := s.store.ListScheduledExams(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ResultsByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]domain.ScheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		if !Eligible(schedule, student) {
			continue
		}
		title, err := s.examTitle(ctx, schedule.ExamID)
		if err != nil {
			return nil, err
		}
		status := Resolve(schedule, now, history)
		views = append(views, domain.ScheduleView{
			Schedule:  schedule,
			ExamTitle: title,
			Status:    status,
			Label:     status.Label(),
		})
	}
	sortViews(views)
	return views, nil
}

// TeacherSchedules lists every schedule with its window badge and the number of results it produced.
func (s *PortalService) TeacherSchedules(ctx context.Context) ([]domain.ScheduleView, error) {
	schedules, err := s.store.ListScheduledExams(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]domain.ScheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		title, err := s.examTitle(ctx, schedule.ExamID)
		if err != nil {
			return nil, err
		}
		results, err := s.store.ResultsByExam(ctx, schedule.ExamID)
		if err != nil {
			return nil, err
		}
		count := 0
		for _, r := range results {
			if r.ScheduleID == schedule.ID {
				count++
			}
		}
		status := ResolveWindow(schedule, now)
		views = append(views, domain.ScheduleView{
			Schedule:    schedule,
			ExamTitle:   title,
			Status:      status,
			Label:       status.Label(),
			ResultCount: count,
		})
	}
	sortViews(views)
	return views, nil
}

// ExamResults returns the results of an exam with their average score.
func (s *PortalService) ExamResults(ctx context.Context, examID string) (ExamReport, error) {
	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return ExamReport{}, err
	}
	results, err := s.store.ResultsByExam(ctx, examID)
	if err != nil {
		return ExamReport{}, err
	}
	report := ExamReport{Exam: exam, Results: results}
	if len(results) > 0 {
		sum := 0
		for _, r := range results {
			sum += r.Score
		}
		report.AverageScore = float64(sum) / float64(len(results))
	}
	return report, nil
}

// examTitle tolerates schedules whose exam has since been deleted.
func (s *PortalService) examTitle(ctx context.Context, examID string) (string, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if errors.Is(err, domain.ErrExamNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return exam.Title, nil
}

func sortViews(views []domain.ScheduleView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Schedule.StartDateTime.Before(views[j].Schedule.StartDateTime)
	})
}
