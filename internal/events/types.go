package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Engine lifecycle
	EventTypeStateChanged  EventType = "engine.state_changed"
	EventTypeFatal         EventType = "engine.fatal"
	EventTypeRegionChanged EventType = "engine.region_changed"
	EventTypeConfigChanged EventType = "engine.config_changed"

	// Per-frame activity
	EventTypeClick         EventType = "engine.click"
	EventTypeCaptureFailed EventType = "engine.capture_failed"
	EventTypeScreenFrozen  EventType = "engine.screen_frozen"
)

// AllEventTypes lists every type the engine publishes
var AllEventTypes = []EventType{
	EventTypeStateChanged,
	EventTypeFatal,
	EventTypeRegionChanged,
	EventTypeConfigChanged,
	EventTypeClick,
	EventTypeCaptureFailed,
	EventTypeScreenFrozen,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "dispatch_loop", "health_checker")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish queues an event, blocking while the queue is full
	Publish(event Event)

	// TryPublish queues an event without blocking and reports whether it was accepted
	TryPublish(event Event) bool

	// Stop stops the event bus and drains remaining events
	Stop()
}

const sourceLoop = "dispatch_loop"

// NewStateChangedEvent creates a state transition event
func NewStateChangedEvent(from, to string, reason string) Event {
	return Event{
		Type:      EventTypeStateChanged,
		Source:    sourceLoop,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"from":   from,
			"to":     to,
			"reason": reason,
		},
	}
}

// NewClickEvent creates an event for a dispatched click
func NewClickEvent(template string, x, y int, confidence float64, total int64) Event {
	return Event{
		Type:      EventTypeClick,
		Source:    sourceLoop,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"template":   template,
			"x":          x,
			"y":          y,
			"confidence": confidence,
			"total":      total,
		},
	}
}

// NewCaptureFailedEvent creates an event for a failed frame capture
func NewCaptureFailedEvent(region, consecutive int, err error) Event {
	return Event{
		Type:      EventTypeCaptureFailed,
		Source:    sourceLoop,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"region":      region,
			"consecutive": consecutive,
			"error":       err.Error(),
		},
	}
}

// NewFatalEvent creates an event for an unrecoverable engine condition
func NewFatalEvent(err error) Event {
	return Event{
		Type:      EventTypeFatal,
		Source:    sourceLoop,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"error": err.Error(),
		},
	}
}

// NewRegionChangedEvent creates an event for an active region switch
func NewRegionChangedEvent(from, to int) Event {
	return Event{
		Type:      EventTypeRegionChanged,
		Source:    sourceLoop,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	}
}

// NewConfigChangedEvent creates an event for a runtime setting change
func NewConfigChangedEvent(key string, value interface{}) Event {
	return Event{
		Type:      EventTypeConfigChanged,
		Source:    sourceLoop,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"key":   key,
			"value": value,
		},
	}
}

// NewScreenFrozenEvent creates an event for a capture that stopped changing
func NewScreenFrozenEvent(region int, unchangedFor time.Duration) Event {
	return Event{
		Type:      EventTypeScreenFrozen,
		Source:    "health_checker",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"region":        region,
			"unchanged_for": unchangedFor.String(),
		},
	}
}
