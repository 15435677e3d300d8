package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/kasu-devops/sitekeeper/internal/domain/page"
)

// testDelay keeps the tests fast; production uses the configured 5s delay.
const testDelay = 50 * time.Millisecond

// newTestDocument builds a page with three alerts, two of them closable.
func newTestDocument() *domain.Document {
	doc := &domain.Document{CapturedAt: time.Now()}
	doc.Append(&domain.Alert{ID: "a1", Severity: "success", HasDismissControl: true})
	doc.Append(&domain.Alert{ID: "a2", Severity: "error"})
	doc.Append(&domain.Alert{ID: "a3", Severity: "info", HasDismissControl: true})

	return doc
}

// TestScheduler_DismissesClosableAlertsOnce asserts alerts with a dismiss
// control are activated exactly once, no earlier than the delay, and alerts
// without one are skipped without error.
func TestScheduler_DismissesClosableAlertsOnce(t *testing.T) {
	t.Parallel()

	doc := newTestDocument()
	s := NewScheduler(doc, testDelay)

	start := time.Now()
	require.NoError(t, s.Run(context.Background()))

	require.Equal(t, 2, s.Dismissed())
	require.Equal(t, 1, s.Skipped())

	require.True(t, doc.Alert("a1").Dismissed())
	require.False(t, doc.Alert("a2").Dismissed())
	require.True(t, doc.Alert("a3").Dismissed())

	// No activation happens before the delay elapses.
	for _, id := range []string{"a1", "a3"} {
		dismissedAt := *doc.Alert(id).DismissedAt
		require.GreaterOrEqual(t, dismissedAt.Sub(start), testDelay)
	}
}

// TestScheduler_IgnoresLateAlerts asserts alerts appended after the
// snapshot are never auto-dismissed.
func TestScheduler_IgnoresLateAlerts(t *testing.T) {
	t.Parallel()

	doc := newTestDocument()
	s := NewScheduler(doc, testDelay)

	doc.Append(&domain.Alert{ID: "late", HasDismissControl: true})

	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, 2, s.Dismissed())
	require.False(t, doc.Alert("late").Dismissed())
}

// TestScheduler_ManualDismissMakesTaskNoOp asserts a pending task for an
// alert already dismissed by other means fires as a no-op.
func TestScheduler_ManualDismissMakesTaskNoOp(t *testing.T) {
	t.Parallel()

	doc := newTestDocument()
	s := NewScheduler(doc, testDelay)

	// Dismissed manually before the timers fire.
	manual := time.Now()
	require.True(t, doc.Alert("a1").Dismiss(manual))

	require.NoError(t, s.Run(context.Background()))

	// Only a3 was dismissed by the scheduler; a1 keeps its manual timestamp.
	require.Equal(t, 1, s.Dismissed())
	require.Equal(t, manual, *doc.Alert("a1").DismissedAt)
}

// TestScheduler_ContextCancellation asserts a canceled context stops the
// run before any dismissal.
func TestScheduler_ContextCancellation(t *testing.T) {
	t.Parallel()

	doc := newTestDocument()
	s := NewScheduler(doc, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, s.Dismissed())
	require.False(t, doc.Alert("a1").Dismissed())
}

// TestScheduler_EmptyPage asserts an alert-free page completes immediately.
func TestScheduler_EmptyPage(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&domain.Document{}, testDelay)

	require.NoError(t, s.Run(context.Background()))
	require.Zero(t, s.Dismissed())
	require.Zero(t, s.Skipped())
}
