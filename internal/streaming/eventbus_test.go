package streaming

import (
	"context"
	"testing"
	"time"

	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

func receive(t *testing.T, ch <-chan *AnalysisEvent) *AnalysisEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBusDelivery(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()

	all, unsubAll := bus.Subscribe(nil)
	defer unsubAll()
	threats, unsubThreats := bus.Subscribe(&Subscription{ThreatsOnly: true})
	defer unsubThreats()

	if bus.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", bus.SubscriberCount())
	}

	safe := NewAnalysisEvent(testRecord(models.ContentTypeLink, models.VerdictSafe, 95))
	phish := NewAnalysisEvent(testRecord(models.ContentTypeLink, models.VerdictPhishing, 92))
	for _, e := range []*AnalysisEvent{safe, phish} {
		if err := bus.Publish(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	if got := receive(t, all); got.ID != safe.ID {
		t.Errorf("first event = %s, want safe event", got.ID)
	}
	if got := receive(t, all); got.ID != phish.ID {
		t.Errorf("second event = %s, want phishing event", got.ID)
	}
	if got := receive(t, threats); got.ID != phish.ID {
		t.Errorf("threat subscriber got %s, want phishing event", got.ID)
	}
	select {
	case e := <-threats:
		t.Errorf("threat subscriber got extra event %+v", e)
	default:
	}
}

func TestEventBusUnsubscribeAndClose(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())

	ch, unsubscribe := bus.Subscribe(nil)
	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}

	other, unsubOther := bus.Subscribe(nil)
	bus.Close()
	if _, ok := <-other; ok {
		t.Error("channel still open after Close")
	}
	// Unsubscribing after Close must not close the channel twice
	unsubOther()

	if bus.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d after Close", bus.SubscriberCount())
	}
}

func TestEventBusPublisher(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe(nil)
	defer unsubscribe()

	rec := testRecord(models.ContentTypeEmail, models.VerdictPhishing, 90)
	if err := NewEventBusPublisher(bus).PublishAnalysis(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if got := receive(t, ch); got.AnalysisID != rec.Result.ID.String() || got.Type != EventTypeThreatDetected {
		t.Errorf("event = %+v", got)
	}
}
