package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmitDeliversToSubscriber(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(StatusChanged, func(e Event) { received <- e })

	bus.Emit(StatusChanged, "rig-a", map[string]any{"status": "running"})

	select {
	case e := <-received:
		assert.Equal(t, "rig-a", e.Source)
	case <-time.After(time.Second):
		t.Fatal("expected a delivered event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	sub := bus.Subscribe(ArchiveWritten, func(e Event) { received <- e })
	bus.Unsubscribe(sub)

	bus.Emit(ArchiveWritten, "rig-a", nil)

	select {
	case <-received:
		t.Fatal("did not expect an event after unsubscribing")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitOnlyReachesMatchingType(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(MonitorTriggered, func(e Event) { received <- e })

	bus.Emit(StatusChanged, "rig-a", nil)

	select {
	case <-received:
		t.Fatal("did not expect delivery for a different event type")
	case <-time.After(50 * time.Millisecond):
	}
}
