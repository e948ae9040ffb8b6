package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	ItemsSaved     int            `json:"items_saved"`
	ItemsArchived  int            `json:"items_archived"`
	ItemsImported  int            `json:"items_imported"`
	ActionsRun     int            `json:"actions_run"`
	ActionsByName  map[string]int `json:"actions_by_name"`
	CacheHits      int            `json:"cache_hits"`
	ActionFailures int            `json:"action_failures"`
	EventCount     int            `json:"event_count"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		ActionsByName: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "store.saved":
			m.ItemsSaved++
		case "store.archived":
			m.ItemsArchived++
		case "store.imported":
			m.ItemsImported++
		case "action.completed":
			m.ActionsRun++
			if name, ok := event.Data["action"].(string); ok {
				m.ActionsByName[name]++
			}
		case "action.cache_hit":
			m.CacheHits++
		case "action.failed":
			m.ActionFailures++
		}
	}

	return m, nil
}
