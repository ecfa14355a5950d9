package events

import (
	"time"

	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// Observer publishes coreaudio lifecycle signals on a Bus.
type Observer struct {
	bus *Bus
}

// NewObserver returns an Observer publishing on bus.
func NewObserver(bus *Bus) *Observer {
	return &Observer{bus: bus}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ReconfigureFinished implements coreaudio.Observer.
func (o *Observer) ReconfigureFinished(res coreaudio.ReconfigureResult) {
	ev := ReconfigureEvent{
		DeviceID:      uint32(res.Device),
		Kind:          string(res.Kind),
		Target:        res.Target,
		Outcome:       string(res.Outcome),
		Notifications: res.Notifications,
		DurationMs:    res.Duration.Milliseconds(),
		Timestamp:     timestamp(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	o.bus.Publish(ev)
}

// ListenerRegistered implements coreaudio.Observer.
func (o *Observer) ListenerRegistered(coreaudio.DeviceID, coreaudio.PropertyAddress) {}

// ListenerUnregistered implements coreaudio.Observer.
func (o *Observer) ListenerUnregistered(coreaudio.DeviceID, coreaudio.PropertyAddress) {}

// DeliveryDropped implements coreaudio.Observer.
func (o *Observer) DeliveryDropped(device coreaudio.DeviceID, addr coreaudio.PropertyAddress) {
	o.bus.Publish(DeliveryDroppedEvent{
		DeviceID:  uint32(device),
		Property:  addr.String(),
		Timestamp: timestamp(),
	})
}
