package sweeper

import (
	"context"
	"time"

	domain "github.com/kasu-devops/sitekeeper/internal/domain/page"
	"github.com/kasu-devops/sitekeeper/internal/logger"
)

// task is one deferred dismissal, keyed by alert identity.
type task struct {
	// alertID identifies the alert to dismiss when the task fires.
	alertID string
	// fireAt is the earliest moment the dismissal may happen.
	fireAt time.Time
}

// Scheduler auto-dismisses a page's alerts after a fixed delay.
//
// The alert set is snapshotted once at construction; alerts appended to the
// document afterwards are never scheduled. All document mutation happens on
// the goroutine executing Run, so no locking is needed around the document.
type Scheduler struct {
	// doc is the page whose alerts are swept.
	doc *domain.Document
	// alertIDs is the static snapshot of alert identities taken at creation.
	alertIDs []string
	// delay is how long each alert stays visible before its task fires.
	delay time.Duration

	// dismissed counts alerts whose dismiss control was activated.
	dismissed int
	// skipped counts alerts left alone because they carry no dismiss control.
	skipped int
}

// NewScheduler creates a scheduler for the provided document and delay.
// The alert set is captured here, once.
func NewScheduler(doc *domain.Document, delay time.Duration) *Scheduler {
	snapshot := doc.Snapshot()
	alertIDs := make([]string, 0, len(snapshot))

	for _, alert := range snapshot {
		if alert == nil {
			continue
		}

		alertIDs = append(alertIDs, alert.ID)
	}

	return &Scheduler{
		doc:      doc,
		alertIDs: alertIDs,
		delay:    delay,
	}
}

// Run schedules one dismissal task per snapshot alert and processes them
// until done or the context is canceled. Tasks for alerts dismissed by
// other means in the meantime fire as no-ops; there is no cancellation of
// pending tasks.
func (s *Scheduler) Run(ctx context.Context) error {
	var (
		now   = time.Now()
		tasks = make([]task, 0, len(s.alertIDs))
	)

	for _, alertID := range s.alertIDs {
		tasks = append(tasks, task{
			alertID: alertID,
			fireAt:  now.Add(s.delay),
		})
	}

	logger.InfoKV(ctx, "Scheduled alert dismissals", "alerts", len(tasks), "delay", s.delay.String())

	for _, t := range tasks {
		timer := time.NewTimer(time.Until(t.fireAt))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.fire(ctx, t.alertID)
		}
	}

	return nil
}

// fire activates the dismiss control of the identified alert, if it has one.
// A missing control is a normal condition, not an error.
func (s *Scheduler) fire(ctx context.Context, alertID string) {
	alert := s.doc.Alert(alertID)
	if alert == nil {
		return
	}

	if !alert.HasDismissControl {
		logger.DebugKV(ctx, "Alert has no dismiss control, skipping", "alert_id", alertID)

		s.skipped++

		return
	}

	if alert.Dismiss(time.Now()) {
		s.dismissed++

		logger.InfoKV(ctx, "Alert dismissed", "alert_id", alertID)
	}
}

// Dismissed returns how many alerts were dismissed during Run.
func (s *Scheduler) Dismissed() int {
	return s.dismissed
}

// Skipped returns how many alerts were skipped for lack of a dismiss control.
func (s *Scheduler) Skipped() int {
	return s.skipped
}
