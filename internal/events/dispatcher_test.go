package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(_ context.Context, e Event) error {
		t.Errorf("handler for a different event type must not fire")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 2 || got[0] != "first:t1" || got[1] != "second:t1" {
		t.Fatalf("deliveries = %v", got)
	}
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	delivered := false
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, e Event) error {
		return errors.New("handler failure")
	})
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, e Event) error {
		delivered = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketStatusChanged}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !delivered {
		t.Fatalf("a failing handler must not block the rest")
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventTicketEnriched}); err != nil {
		t.Fatalf("Publish without subscribers: %v", err)
	}
}
