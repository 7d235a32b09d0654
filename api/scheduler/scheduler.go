package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer drops invitations that can no longer be answered
type Expirer interface {
	Expire(now time.Time) int
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron        *cron.Cron
	invitations Expirer
	schedule    string
	now         func() time.Time
}

// NewScheduler creates a scheduler sweeping invitations on schedule, a cron
// spec or descriptor such as "@every 30s"
func NewScheduler(invitations Expirer, schedule string) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		invitations: invitations,
		schedule:    schedule,
		now:         time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweepInvitations); err != nil {
		return fmt.Errorf("register invitation sweep %q: %w", s.schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "invitationSweep", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) sweepInvitations() {
	if n := s.invitations.Expire(s.now()); n > 0 {
		zap.S().Debugw("swept expired invitations", "count", n)
	}
}
