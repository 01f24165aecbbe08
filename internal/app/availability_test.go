package app

import (
	"testing"
	"time"

	"exam-portal/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestResolveFollowsTheWindow(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	schedule := domain.ScheduledExam{
		ID:            "s1",
		ExamID:        "exam-1",
		StartDateTime: start,
		EndDateTime:   start.Add(time.Hour),
	}

	require.Equal(t, domain.StatusUpcoming, Resolve(schedule, start.Add(-10*time.Second), nil))
	require.Equal(t, domain.StatusAvailable, Resolve(schedule, start.Add(10*time.Second), nil))
	require.Equal(t, domain.StatusExpired, Resolve(schedule, start.Add(3700*time.Second), nil))
}

func TestResolveWindowBoundsAreInclusive(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	schedule := domain.ScheduledExam{ExamID: "exam-1", StartDateTime: start, EndDateTime: start.Add(time.Hour)}

	require.Equal(t, domain.StatusAvailable, ResolveWindow(schedule, start))
	require.Equal(t, domain.StatusAvailable, ResolveWindow(schedule, start.Add(time.Hour)))
	require.Equal(t, domain.StatusExpired, ResolveWindow(schedule, start.Add(time.Hour+time.Nanosecond)))
}

func TestResolveCompletedWinsOverTiming(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	schedule := domain.ScheduledExam{ExamID: "exam-1", StartDateTime: start, EndDateTime: start.Add(time.Hour)}
	history := []domain.Result{
		{ExamID: "other"},
		{ExamID: "exam-1", Score: 40},
	}

	for _, now := range []time.Time{start.Add(-time.Hour), start, start.Add(2 * time.Hour)} {
		require.Equal(t, domain.StatusCompleted, Resolve(schedule, now, history))
	}
}

func TestResolveIgnoresResultsOfOtherExams(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	schedule := domain.ScheduledExam{ExamID: "exam-1", StartDateTime: start, EndDateTime: start.Add(time.Hour)}

	got := Resolve(schedule, start.Add(time.Minute), []domain.Result{{ExamID: "exam-2"}})

	require.Equal(t, domain.StatusAvailable, got)
}

func TestResolveReturnsExactlyOneKnownStatus(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	schedule := domain.ScheduledExam{ExamID: "exam-1", StartDateTime: start, EndDateTime: start.Add(time.Hour)}
	known := map[domain.Status]bool{
		domain.StatusUpcoming: true, domain.StatusAvailable: true,
		domain.StatusExpired: true, domain.StatusCompleted: true,
	}
	for offset := -2 * time.Hour; offset <= 2*time.Hour; offset += 17 * time.Minute {
		require.True(t, known[Resolve(schedule, start.Add(offset), nil)])
	}
}

func TestStatusLabels(t *testing.T) {
	require.Equal(t, "À venir", domain.StatusUpcoming.Label())
	require.Equal(t, "En cours", domain.StatusAvailable.Label())
	require.Equal(t, "Terminé", domain.StatusExpired.Label())
}

func TestEligibleUsesRosterOverClass(t *testing.T) {
	inClass := domain.Student{ID: "st-1", ClassID: "c1"}
	onRoster := domain.Student{ID: "st-2", ClassID: "c2"}

	classWide := domain.ScheduledExam{ClassID: "c1"}
	require.True(t, Eligible(classWide, inClass))
	require.False(t, Eligible(classWide, onRoster))

	roster := domain.ScheduledExam{ClassID: "c1", StudentIDs: []string{"st-2"}}
	require.True(t, Eligible(roster, onRoster))
	require.False(t, Eligible(roster, inClass))
}
