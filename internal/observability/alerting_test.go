package observability

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) EventLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func writeFailures(t *testing.T, log EventLog, action string, count int, age time.Duration) {
	t.Helper()
	base := time.Now().UTC().Add(-age)
	for i := 0; i < count; i++ {
		err := log.Write(Event{
			Time:    base.Add(time.Duration(i) * time.Minute),
			Level:   "ERROR",
			Type:    "action.failed",
			Message: "action failed",
			Data:    map[string]any{"action": action, "error": "boom"},
		})
		if err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestAlertEngine_RepeatedFailures(t *testing.T) {
	log := newTestLog(t)
	writeFailures(t, log, "fetch_page_metadata", 3, 2*time.Hour)

	engine := NewAlertEngine(log, nil, DefaultAlertThresholds())
	alerts, err := engine.Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	found := false
	for _, a := range alerts {
		if a.Condition == "action_failing_repeatedly" && a.ID == "failures-fetch_page_metadata" {
			found = true
			if a.Severity != SeverityHigh {
				t.Errorf("expected high severity, got %s", a.Severity)
			}
		}
	}
	if !found {
		t.Error("expected repeated-failure alert but none found")
	}
}

func TestAlertEngine_FewFailuresNoAlert(t *testing.T) {
	log := newTestLog(t)
	writeFailures(t, log, "concat", 2, time.Hour)

	engine := NewAlertEngine(log, nil, DefaultAlertThresholds())
	alerts, err := engine.Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}
	for _, a := range alerts {
		if a.Condition == "action_failing_repeatedly" {
			t.Error("did not expect failure alert below the threshold")
		}
	}
}

func TestAlertEngine_OldFailuresOutsideWindow(t *testing.T) {
	log := newTestLog(t)
	writeFailures(t, log, "concat", 5, 72*time.Hour)

	engine := NewAlertEngine(log, nil, DefaultAlertThresholds())
	alerts, err := engine.Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}
	for _, a := range alerts {
		if a.Condition == "action_failing_repeatedly" {
			t.Error("failures outside the window should not alert")
		}
	}
}

func TestAlertEngine_StoreWarnings(t *testing.T) {
	log := newTestLog(t)
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		err := log.Write(Event{
			Time:    now.Add(-time.Duration(i) * time.Minute),
			Level:   "WARN",
			Type:    "store.skip",
			Message: "unreadable item",
			Data:    map[string]any{"path": "notes/broken.note.md"},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	engine := NewAlertEngine(log, nil, DefaultAlertThresholds())
	alerts, err := engine.Evaluate()
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, a := range alerts {
		if a.Condition == "unreadable_items" && a.Severity == SeverityMedium {
			found = true
		}
	}
	if !found {
		t.Error("expected unreadable-items alert")
	}
}

type fakeTransientLister struct {
	items []TransientItem
}

func (f *fakeTransientLister) TransientItems() ([]TransientItem, error) {
	return f.items, nil
}

func TestAlertEngine_TransientBuildup(t *testing.T) {
	log := newTestLog(t)
	store := &fakeTransientLister{items: []TransientItem{
		{Path: "docs/old_intermediate.doc.md", Modified: time.Now().UTC().Add(-10 * 24 * time.Hour)},
		{Path: "docs/fresh_intermediate.doc.md", Modified: time.Now().UTC().Add(-time.Hour)},
	}}

	engine := NewAlertEngine(log, store, DefaultAlertThresholds())
	alerts, err := engine.Evaluate()
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, a := range alerts {
		if a.Condition == "transient_items_stale" {
			found = true
		}
	}
	if !found {
		t.Error("expected transient-buildup alert for the stale item")
	}
}

func TestAlertEngine_NoStoreSkipsTransientCheck(t *testing.T) {
	log := newTestLog(t)
	engine := NewAlertEngine(log, nil, DefaultAlertThresholds())
	alerts, err := engine.Evaluate()
	if err != nil {
		t.Fatalf("nil store should not break evaluation: %v", err)
	}
	for _, a := range alerts {
		if a.Condition == "transient_items_stale" {
			t.Error("no transient alert expected without a store")
		}
	}
}

func TestAlertEngine_EventLogSize(t *testing.T) {
	log := newTestLog(t)
	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		if err := log.Write(Event{Time: now, Level: "INFO", Type: "store.saved"}); err != nil {
			t.Fatal(err)
		}
	}

	thresholds := DefaultAlertThresholds()
	thresholds.MaxEventLogEvents = 3
	engine := NewAlertEngine(log, nil, thresholds)
	alerts, err := engine.Evaluate()
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, a := range alerts {
		if a.Condition == "event_log_too_large" && a.Severity == SeverityLow {
			found = true
		}
	}
	if !found {
		t.Error("expected event-log-size alert")
	}
}
