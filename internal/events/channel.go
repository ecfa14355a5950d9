package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges a callback subscription to a channel for
// select-loop consumers. Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- T) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// ForwardToChannel is SubscribeToChannel for consumers that multiplex
// several event types onto one channel.
func ForwardToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
