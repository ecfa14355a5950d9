package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Close stops the dispatcher's delivery goroutines. Subscriptions made
// before Close receive nothing afterwards.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(SampleRateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case SampleRateChangedEvent:
		event.Publish(b.dispatcher, e)
	case FormatChangedEvent:
		event.Publish(b.dispatcher, e)
	case ReconfigureEvent:
		event.Publish(b.dispatcher, e)
	case DeliveryDroppedEvent:
		event.Publish(b.dispatcher, e)
	case ProfileAppliedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type selects the events it receives. Returns an unsubscribe
// function; unknown handler types get a no-op one.
// Usage: unsub := bus.Subscribe(func(e ReconfigureEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SampleRateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FormatChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReconfigureEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeliveryDroppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProfileAppliedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

