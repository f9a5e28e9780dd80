package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	var mu sync.Mutex
	var got []interface{}
	done := make(chan struct{})

	bus.Subscribe(EventTypeClick, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Data["total"])
		if len(got) == 3 {
			close(done)
		}
	})

	for i := int64(1); i <= 3; i++ {
		bus.Publish(NewClickEvent("sun.png", 10, 20, 0.9, i))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != int64(i+1) {
			t.Errorf("Event %d: expected total %d, got %v", i, i+1, v)
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Stop()

	id := bus.Subscribe(EventTypeFatal, func(Event) {})
	bus.Subscribe(EventTypeFatal, func(Event) {})
	if n := bus.GetSubscriberCount(EventTypeFatal); n != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", n)
	}

	bus.Unsubscribe(id)
	if n := bus.GetSubscriberCount(EventTypeFatal); n != 1 {
		t.Errorf("Expected 1 subscriber after unsubscribe, got %d", n)
	}

	ids := bus.SubscribeAll(func(Event) {})
	if len(ids) != len(AllEventTypes) {
		t.Errorf("Expected one subscription per event type, got %d", len(ids))
	}
}

func TestStopDrainsQueue(t *testing.T) {
	bus := NewEventBus(8)

	var mu sync.Mutex
	count := 0
	bus.Subscribe(EventTypeRegionChanged, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		bus.Publish(NewRegionChangedEvent(i, i+1))
	}
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	if count != 5 {
		t.Errorf("Expected 5 delivered events, got %d", count)
	}
}

func TestTryPublishDropsWhenFull(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Stop()

	block := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	bus.Subscribe(EventTypeCaptureFailed, func(Event) {
		once.Do(func() { close(started) })
		<-block
	})

	bus.Publish(NewCaptureFailedEvent(1, 1, errors.New("gone")))
	<-started

	if !bus.TryPublish(NewCaptureFailedEvent(1, 2, errors.New("gone"))) {
		t.Error("Expected first TryPublish to fit in the queue")
	}
	if bus.TryPublish(NewCaptureFailedEvent(1, 3, errors.New("gone"))) {
		t.Error("Expected TryPublish to drop when the queue is full")
	}
	if bus.Dropped() != 1 {
		t.Errorf("Expected 1 dropped event, got %d", bus.Dropped())
	}

	close(block)
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Stop()

	done := make(chan struct{})
	bus.Subscribe(EventTypeStateChanged, func(Event) { panic("boom") })
	bus.Subscribe(EventTypeStateChanged, func(Event) { close(done) })

	bus.Publish(NewStateChangedEvent("stopped", "running", "start"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected second handler to run after a panic")
	}
}
