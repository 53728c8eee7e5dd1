package app

import (
	"testing"
	"time"

	"github.com/nicksbar/YAHAML-sub001/internal/core"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(8)
	ch, cancel := bus.Subscribe()
	defer cancel()

	kinds := []core.EventKind{core.EventRoomCreated, core.EventParticipantJoined, core.EventMuteChanged}
	for _, k := range kinds {
		bus.Publish(core.Event{Kind: k, RoomID: "r"})
	}
	for i, want := range kinds {
		got := <-ch
		if got.Kind != want {
			t.Errorf("event %d: expected %s, got %s", i, want, got.Kind)
		}
	}
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus(8)
	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Publish(core.Event{Kind: core.EventRoomDeleted, RoomID: "r"})

	for name, ch := range map[string]<-chan core.Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Kind != core.EventRoomDeleted {
				t.Errorf("subscriber %s: expected room_deleted, got %s", name, ev.Kind)
			}
		default:
			t.Errorf("subscriber %s: expected a buffered event", name)
		}
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus(8)
	ch, cancel := bus.Subscribe()
	cancel()

	bus.Publish(core.Event{Kind: core.EventRoomCreated, RoomID: "r"})

	if ev, open := <-ch; open {
		t.Errorf("expected closed channel after cancel, got %+v", ev)
	}

	// A second cancel is a no-op.
	cancel()
}

func TestBusCancelUnblocksStalledPublisher(t *testing.T) {
	bus := NewBus(1)
	_, cancel := bus.Subscribe()

	// Fill the subscriber buffer, then block a second publish on it.
	bus.Publish(core.Event{Kind: core.EventRoomCreated, RoomID: "r"})
	published := make(chan struct{})
	go func() {
		bus.Publish(core.Event{Kind: core.EventParticipantJoined, RoomID: "r"})
		close(published)
	}()
	time.Sleep(20 * time.Millisecond)

	canceled := make(chan struct{})
	go func() {
		cancel()
		close(canceled)
	}()

	for name, ch := range map[string]chan struct{}{"cancel": canceled, "publish": published} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s still blocked after the subscriber went away", name)
		}
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus(8)
	ch, _ := bus.Subscribe()
	bus.Close()

	if _, open := <-ch; open {
		t.Error("expected subscriber channel closed after bus Close")
	}

	// Publish and Subscribe after Close are no-ops.
	bus.Publish(core.Event{Kind: core.EventRoomCreated})
	late, cancel := bus.Subscribe()
	defer cancel()
	if _, open := <-late; open {
		t.Error("expected a post-Close subscription to be closed immediately")
	}
}
