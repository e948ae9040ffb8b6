package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	FailureCount      int `yaml:"failure_count" json:"failure_count"`
	FailureWindowHrs  int `yaml:"failure_window_hours" json:"failure_window_hours"`
	WarningCount      int `yaml:"warning_count" json:"warning_count"`
	TransientMaxDays  int `yaml:"transient_max_age_days" json:"transient_max_age_days"`
	MaxEventLogEvents int `yaml:"max_event_log_events" json:"max_event_log_events"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		FailureCount:      3,
		FailureWindowHrs:  24,
		WarningCount:      5,
		TransientMaxDays:  7,
		MaxEventLogEvents: 50000,
	}
}

// TransientItem is a live intermediate output reported by the store for
// staleness checks.
type TransientItem struct {
	Path     string
	Modified time.Time
}

// TransientLister is implemented by the store to enumerate live transient
// items without this package importing the storage layer.
type TransientLister interface {
	TransientItems() ([]TransientItem, error)
}

// AlertEngine evaluates workspace health conditions against the event log
// and the store.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by reading events and checking thresholds.
type alertEngine struct {
	eventLog   EventLog
	store      TransientLister
	thresholds AlertThresholds
}

// NewAlertEngine creates a new AlertEngine. store may be nil, in which
// case the transient-buildup check is skipped.
func NewAlertEngine(eventLog EventLog, store TransientLister, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		store:      store,
		thresholds: thresholds,
	}
}

// Evaluate checks all alert conditions and returns any triggered alerts.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := time.Now().UTC()
	var alerts []Alert

	failureAlerts, err := ae.checkActionFailures(now)
	if err != nil {
		return nil, fmt.Errorf("checking action failures: %w", err)
	}
	alerts = append(alerts, failureAlerts...)

	warningAlerts, err := ae.checkStoreWarnings(now)
	if err != nil {
		return nil, fmt.Errorf("checking store warnings: %w", err)
	}
	alerts = append(alerts, warningAlerts...)

	transientAlerts, err := ae.checkTransientBuildup(now)
	if err != nil {
		return nil, fmt.Errorf("checking transient buildup: %w", err)
	}
	alerts = append(alerts, transientAlerts...)

	sizeAlerts, err := ae.checkEventLogSize(now)
	if err != nil {
		return nil, fmt.Errorf("checking event log size: %w", err)
	}
	alerts = append(alerts, sizeAlerts...)

	return alerts, nil
}

// checkActionFailures looks for actions that failed repeatedly inside the
// failure window.
func (ae *alertEngine) checkActionFailures(now time.Time) ([]Alert, error) {
	since := now.Add(-time.Duration(ae.thresholds.FailureWindowHrs) * time.Hour)
	events, err := ae.eventLog.Read(EventFilter{Type: "action.failed", Since: &since})
	if err != nil {
		return nil, err
	}

	failuresByAction := make(map[string]int)
	for _, event := range events {
		name, _ := event.Data["action"].(string)
		if name == "" {
			name = "(unknown)"
		}
		failuresByAction[name]++
	}

	var alerts []Alert
	for name, count := range failuresByAction {
		if count >= ae.thresholds.FailureCount {
			alerts = append(alerts, Alert{
				ID:        fmt.Sprintf("failures-%s", name),
				Condition: "action_failing_repeatedly",
				Severity:  SeverityHigh,
				Message: fmt.Sprintf("action %s failed %d times in the last %d hours",
					name, count, ae.thresholds.FailureWindowHrs),
				TriggeredAt: now,
			})
		}
	}

	return alerts, nil
}

// checkStoreWarnings counts skipped or unreadable items reported during
// scans inside the failure window.
func (ae *alertEngine) checkStoreWarnings(now time.Time) ([]Alert, error) {
	since := now.Add(-time.Duration(ae.thresholds.FailureWindowHrs) * time.Hour)
	events, err := ae.eventLog.Read(EventFilter{Type: "store.skip", Since: &since})
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	if len(events) >= ae.thresholds.WarningCount {
		alerts = append(alerts, Alert{
			ID:        "store-warnings",
			Condition: "unreadable_items",
			Severity:  SeverityMedium,
			Message: fmt.Sprintf("%d items were skipped as unreadable in the last %d hours; inspect the workspace",
				len(events), ae.thresholds.FailureWindowHrs),
			TriggeredAt: now,
		})
	}

	return alerts, nil
}

// checkTransientBuildup looks for intermediate outputs that were never
// swept after their composite action finished.
func (ae *alertEngine) checkTransientBuildup(now time.Time) ([]Alert, error) {
	if ae.store == nil {
		return nil, nil
	}

	items, err := ae.store.TransientItems()
	if err != nil {
		return nil, err
	}

	maxAge := time.Duration(ae.thresholds.TransientMaxDays) * 24 * time.Hour
	stale := 0
	for _, item := range items {
		if now.Sub(item.Modified) > maxAge {
			stale++
		}
	}

	var alerts []Alert
	if stale > 0 {
		alerts = append(alerts, Alert{
			ID:        "transient-buildup",
			Condition: "transient_items_stale",
			Severity:  SeverityMedium,
			Message: fmt.Sprintf("%d transient items are older than %d days; run cleanup to archive them",
				stale, ae.thresholds.TransientMaxDays),
			TriggeredAt: now,
		})
	}

	return alerts, nil
}

// checkEventLogSize alerts when the event log has grown past the
// configured maximum.
func (ae *alertEngine) checkEventLogSize(now time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	if len(events) > ae.thresholds.MaxEventLogEvents {
		alerts = append(alerts, Alert{
			ID:        "event-log-size",
			Condition: "event_log_too_large",
			Severity:  SeverityLow,
			Message: fmt.Sprintf("event log has %d events, exceeding the maximum of %d; consider rotating it",
				len(events), ae.thresholds.MaxEventLogEvents),
			TriggeredAt: now,
		})
	}

	return alerts, nil
}
