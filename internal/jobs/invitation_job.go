package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Inviter is the use case the job drives.
type Inviter interface {
	InviteUpcoming(ctx context.Context, window time.Duration) (int, error)
}

// InvitationJob mails students about schedules opening within Window.
type InvitationJob struct {
	inviter Inviter
	window  time.Duration
	timeout time.Duration
}

func NewInvitationJob(inviter Inviter, window time.Duration) *InvitationJob {
	return &InvitationJob{inviter: inviter, window: window, timeout: time.Minute}
}

// Run satisfies cron.Job.
func (j *InvitationJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	sent, err := j.inviter.InviteUpcoming(ctx, j.window)
	if err != nil {
		log.Printf("invitation job: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("invitation job: %d invitations sent", sent)
	}
}

// Schedule registers the job on a cron scheduler and returns it unstarted.
func Schedule(spec string, job cron.Job) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(job)); err != nil {
		return nil, err
	}
	return c, nil
}
