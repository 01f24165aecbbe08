package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeInviter struct {
	window   time.Duration
	deadline bool
	calls    int
	err      error
}

func (f *fakeInviter) InviteUpcoming(ctx context.Context, window time.Duration) (int, error) {
	f.calls++
	f.window = window
	_, f.deadline = ctx.Deadline()
	return 2, f.err
}

func TestInvitationJobRunsWithWindowAndTimeout(t *testing.T) {
	inviter := &fakeInviter{}
	job := NewInvitationJob(inviter, 90*time.Minute)

	job.Run()

	if inviter.calls != 1 {
		t.Fatalf("expected one call, got %d", inviter.calls)
	}
	if inviter.window != 90*time.Minute {
		t.Fatalf("expected window passed through, got %v", inviter.window)
	}
	if !inviter.deadline {
		t.Fatalf("expected the run to be bounded by a deadline")
	}
}

func TestInvitationJobSurvivesErrors(t *testing.T) {
	inviter := &fakeInviter{err: errors.New("store down")}
	job := NewInvitationJob(inviter, time.Hour)

	job.Run()
	job.Run()

	if inviter.calls != 2 {
		t.Fatalf("expected the job to keep running, got %d calls", inviter.calls)
	}
}

func TestScheduleValidatesSpec(t *testing.T) {
	job := NewInvitationJob(&fakeInviter{}, time.Hour)

	if _, err := Schedule("not a cron spec", job); err == nil {
		t.Fatalf("expected invalid spec to be rejected")
	}

	c, err := Schedule("*/5 * * * *", job)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := len(c.Entries()); got != 1 {
		t.Fatalf("expected one entry, got %d", got)
	}
}
