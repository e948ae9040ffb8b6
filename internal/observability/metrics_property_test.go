package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: trove, Property 12: metrics counters match the event stream.
// For any mix of store and action events written after the cutoff, each
// Metrics counter equals the number of events of its type, and EventCount
// equals the total.
func TestMetricsCountersMatchEvents(t *testing.T) {
	dir := t.TempDir()
	run := 0
	rapid.Check(t, func(t *rapid.T) {
		run++
		path := filepath.Join(dir, fmt.Sprintf("events-%d.jsonl", run))
		log, err := NewJSONLEventLog(path)
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer log.Close()

		types := []string{
			"store.saved", "store.archived", "store.imported",
			"action.completed", "action.cache_hit", "action.failed",
		}
		counts := make(map[string]int)

		base := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
		n := rapid.IntRange(0, 40).Draw(t, "n")
		for i := 0; i < n; i++ {
			typ := rapid.SampledFrom(types).Draw(t, "type")
			counts[typ]++
			event := Event{
				Time:    base.Add(time.Duration(i) * time.Second),
				Level:   "INFO",
				Type:    typ,
				Message: "generated event",
			}
			if typ == "action.completed" {
				event.Data = map[string]any{"action": "copy_items"}
			}
			if err := log.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		calc := NewMetricsCalculator(log)
		m, err := calc.Calculate(base.Add(-time.Hour))
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}

		if m.EventCount != n {
			t.Errorf("expected %d events counted, got %d", n, m.EventCount)
		}
		if m.ItemsSaved != counts["store.saved"] {
			t.Errorf("expected %d saved, got %d", counts["store.saved"], m.ItemsSaved)
		}
		if m.ItemsArchived != counts["store.archived"] {
			t.Errorf("expected %d archived, got %d", counts["store.archived"], m.ItemsArchived)
		}
		if m.ItemsImported != counts["store.imported"] {
			t.Errorf("expected %d imported, got %d", counts["store.imported"], m.ItemsImported)
		}
		if m.ActionsRun != counts["action.completed"] {
			t.Errorf("expected %d actions run, got %d", counts["action.completed"], m.ActionsRun)
		}
		if m.CacheHits != counts["action.cache_hit"] {
			t.Errorf("expected %d cache hits, got %d", counts["action.cache_hit"], m.CacheHits)
		}
		if m.ActionFailures != counts["action.failed"] {
			t.Errorf("expected %d failures, got %d", counts["action.failed"], m.ActionFailures)
		}
		if m.ActionsByName["copy_items"] != counts["action.completed"] {
			t.Errorf("expected %d copy_items runs, got %d", counts["action.completed"], m.ActionsByName["copy_items"])
		}
	})
}

// Feature: trove, Property 13: the since cutoff splits the stream cleanly.
// Writing k events before the cutoff and m events after it, Calculate sees
// exactly the m recent events.
func TestMetricsSinceCutoff(t *testing.T) {
	dir := t.TempDir()
	run := 0
	rapid.Check(t, func(t *rapid.T) {
		run++
		path := filepath.Join(dir, fmt.Sprintf("events-%d.jsonl", run))
		log, err := NewJSONLEventLog(path)
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer log.Close()

		base := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
		cutoff := base.Add(time.Hour)

		before := rapid.IntRange(0, 20).Draw(t, "before")
		after := rapid.IntRange(0, 20).Draw(t, "after")

		for i := 0; i < before; i++ {
			event := Event{
				Time:    base.Add(time.Duration(i) * time.Second),
				Level:   "INFO",
				Type:    "store.saved",
				Message: "old event",
			}
			if err := log.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}
		for i := 0; i < after; i++ {
			event := Event{
				Time:    cutoff.Add(time.Duration(i+1) * time.Second),
				Level:   "INFO",
				Type:    "store.saved",
				Message: "recent event",
			}
			if err := log.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		calc := NewMetricsCalculator(log)
		m, err := calc.Calculate(cutoff)
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}

		if m.EventCount != after {
			t.Errorf("expected %d events after cutoff, got %d", after, m.EventCount)
		}
		if m.ItemsSaved != after {
			t.Errorf("expected %d saved after cutoff, got %d", after, m.ItemsSaved)
		}
	})
}
