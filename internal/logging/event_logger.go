package logging

import (
	"fmt"

	"jordanella.com/sun-clicker/internal/events"
)

// EventLogger subscribes to the event bus and logs every engine event
type EventLogger struct {
	logger        *Logger
	eventBus      events.EventBus
	subscriptions []events.SubscriptionID
}

// NewEventLogger creates an event logger writing through logger, or a new
// "Events" component logger when logger is nil
func NewEventLogger(eventBus events.EventBus, logger *Logger) *EventLogger {
	if logger == nil {
		logger = NewLogger("Events")
	}

	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
	}

	for _, eventType := range events.AllEventTypes {
		el.subscriptions = append(el.subscriptions, eventBus.Subscribe(eventType, el.handleEvent))
	}

	return el
}

func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"source": event.Source,
	}
	for k, v := range event.Data {
		context[k] = v
	}

	message := fmt.Sprintf("Event: %s", event.Type)
	switch event.Type {
	case events.EventTypeFatal:
		el.logger.ErrorWithContext(message, nil, context)
	case events.EventTypeCaptureFailed, events.EventTypeScreenFrozen:
		el.logger.WarnWithContext(message, context)
	case events.EventTypeClick:
		el.logger.DebugWithContext(message, context)
	default:
		el.logger.InfoWithContext(message, context)
	}
}

// Close unsubscribes from the bus
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptions {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptions = nil
	return nil
}
