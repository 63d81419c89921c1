package practice_test

import (
	"testing"

	"github.com/p-n-ai/pai-speak/internal/practice"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := practice.NewMemoryEventLogger()

	err := logger.LogEvent(practice.Event{
		SessionID: "sess-1",
		EventType: practice.EventWizardHandoff,
		Data: map[string]any{
			"topic_id": "t1",
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != practice.EventWizardHandoff {
		t.Errorf("EventType = %q, want %q", events[0].EventType, practice.EventWizardHandoff)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := practice.NewMemoryEventLogger()
	if err := logger.LogEvent(practice.Event{SessionID: "sess-1"}); err == nil {
		t.Fatal("expected error for empty event type")
	}
}

func TestNopEventLogger(t *testing.T) {
	var logger practice.EventLogger = practice.NopEventLogger{}
	if err := logger.LogEvent(practice.Event{}); err != nil {
		t.Errorf("LogEvent() error = %v", err)
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := practice.NewPostgresEventLogger(nil)

	err := logger.LogEvent(practice.Event{
		SessionID: "sess-1",
		EventType: practice.EventRealtimeSessionCreated,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}
