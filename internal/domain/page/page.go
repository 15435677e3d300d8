package page

import "time"

// Alert is a single dismissible notification banner captured from a
// rendered page. Identity is the server-assigned ID; Position preserves
// document order at capture time.
type Alert struct {
	// ID uniquely identifies the alert within the page.
	ID string `json:"id"`
	// Position is the alert's index in document order when the page was captured.
	Position int `json:"position"`
	// Severity is the presentation category of the alert (success, error, ...).
	Severity string `json:"severity,omitempty"`
	// Message is the rendered alert text.
	Message string `json:"message,omitempty"`
	// HasDismissControl reports whether the alert carries a close control.
	// Alerts without one are never auto-dismissed.
	HasDismissControl bool `json:"has_dismiss_control"`
	// DismissedAt is when the dismiss control was activated, nil while visible.
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`
}

// Dismissed reports whether the alert has already been dismissed.
func (a *Alert) Dismissed() bool {
	return a != nil && a.DismissedAt != nil
}

// Dismiss activates the alert's dismiss control at the given time.
// It returns true only on the first effective activation: alerts without
// a control and alerts already dismissed are left untouched.
func (a *Alert) Dismiss(now time.Time) bool {
	if a == nil || !a.HasDismissControl || a.Dismissed() {
		return false
	}

	a.DismissedAt = &now

	return true
}

// Clone returns a deep copy of the alert.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}

	cloned := *a

	if a.DismissedAt != nil {
		ts := *a.DismissedAt
		cloned.DismissedAt = &ts
	}

	return &cloned
}

// Document is the set of alerts present on a page when it was captured.
type Document struct {
	// CapturedAt is when the page snapshot was taken.
	CapturedAt time.Time `json:"captured_at"`
	// Alerts holds the page's alerts in document order.
	Alerts []*Alert `json:"alerts"`
}

// Snapshot returns a static copy of the alerts currently in the document.
// Alerts appended to the document afterwards are invisible to the copy.
func (d *Document) Snapshot() []*Alert {
	if d == nil {
		return nil
	}

	return append([]*Alert(nil), d.Alerts...)
}

// Alert returns the alert with the given ID, or nil if the page has none.
func (d *Document) Alert(id string) *Alert {
	if d == nil {
		return nil
	}

	for _, a := range d.Alerts {
		if a != nil && a.ID == id {
			return a
		}
	}

	return nil
}

// Append adds an alert to the end of the document, assigning its position.
func (d *Document) Append(alert *Alert) {
	if d == nil || alert == nil {
		return
	}

	alert.Position = len(d.Alerts)
	d.Alerts = append(d.Alerts, alert)
}

// Clone returns a deep copy of the document to avoid leaking internal references.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	cloned := &Document{
		CapturedAt: d.CapturedAt,
		Alerts:     make([]*Alert, 0, len(d.Alerts)),
	}

	for _, a := range d.Alerts {
		cloned.Alerts = append(cloned.Alerts, a.Clone())
	}

	return cloned
}
