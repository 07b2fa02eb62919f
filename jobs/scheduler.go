package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

const (
	DefaultReaperSchedule = "@every 15s"
	DefaultReportSchedule = "*/5 * * * *"
)

type Schedules struct {
	InvitationReaper string
	SlotReport       string
}

// NewScheduler registers the background jobs. Overlapping runs of the same
// job are skipped. The caller starts and stops the returned cron.
func NewScheduler(calls InvitationPurger, slots ExpiredSlotCounter, s Schedules) (*cron.Cron, error) {
	if s.InvitationReaper == "" {
		s.InvitationReaper = DefaultReaperSchedule
	}
	if s.SlotReport == "" {
		s.SlotReport = DefaultReportSchedule
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(s.InvitationReaper, PurgeExpiredInvitations(calls)); err != nil {
		return nil, fmt.Errorf("jobs: invitation reaper schedule %q: %w", s.InvitationReaper, err)
	}
	if _, err := c.AddFunc(s.SlotReport, ReportExpiredOpenSlots(slots)); err != nil {
		return nil, fmt.Errorf("jobs: slot report schedule %q: %w", s.SlotReport, err)
	}
	return c, nil
}
