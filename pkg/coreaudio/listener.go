package coreaudio

import (
	"log/slog"
	"sync"
)

// Addresses observed by the stock listeners.
var (
	nominalSampleRateAddress = GlobalAddress(SelectorNominalSampleRate)
	physicalFormatAddress    = GlobalAddress(SelectorPhysicalFormat)
)

// Listener observes one property of one device. Every notification re-reads
// the property; the value is then sent on the delivery channel when one was
// given, or appended to an unbounded queue otherwise.
//
// A Listener starts unregistered. Register installs it with the HAL,
// Unregister removes it, and Close does the latter without reporting errors.
type Listener[T any] struct {
	sys     *System
	device  DeviceID
	address PropertyAddress
	deliver chan<- T
	logger  *slog.Logger

	queueMu sync.Mutex
	queue   []T

	regMu      sync.Mutex
	token      ListenerToken
	registered bool
}

// NewListener creates an unregistered listener for address on device. When
// deliver is nil, values are queued for Values and Drain.
func NewListener[T any](sys *System, device DeviceID, address PropertyAddress, deliver chan<- T) *Listener[T] {
	return &Listener[T]{
		sys:     sys,
		device:  device,
		address: address,
		deliver: deliver,
		logger:  sys.logger.With("device", device, "property", address.String()),
	}
}

// NewRateListener observes the nominal sample rate of device.
func NewRateListener(sys *System, device DeviceID, deliver chan<- float64) *Listener[float64] {
	return NewListener(sys, device, nominalSampleRateAddress, deliver)
}

// NewFormatListener observes the physical format of device.
func NewFormatListener(sys *System, device DeviceID, deliver chan<- StreamFormat) *Listener[StreamFormat] {
	return NewListener(sys, device, physicalFormatAddress, deliver)
}

// Device returns the observed device.
func (l *Listener[T]) Device() DeviceID { return l.device }

// Address returns the observed property address.
func (l *Listener[T]) Address() PropertyAddress { return l.address }

// Registered reports whether the HAL currently holds the listener.
func (l *Listener[T]) Registered() bool {
	l.regMu.Lock()
	defer l.regMu.Unlock()
	return l.registered
}

// Register installs the listener with the HAL. Registering twice without an
// Unregister in between is a caller error and returns ErrListenerRegistered.
func (l *Listener[T]) Register() error {
	l.regMu.Lock()
	defer l.regMu.Unlock()

	if l.registered {
		return ErrListenerRegistered
	}

	// The platform may call back before AddPropertyListener returns, so the
	// token has to resolve first.
	token := listeners.add(l)
	status := l.sys.hal.AddPropertyListener(l.device, l.address, token)
	if err := checkStatus("add listener for", l.device, l.address, status); err != nil {
		listeners.remove(token)
		return err
	}

	l.token = token
	l.registered = true
	l.sys.observer.ListenerRegistered(l.device, l.address)
	l.logger.Debug("Listener registered", "token", token)
	return nil
}

// Unregister removes the listener from the HAL and waits for callbacks in
// flight. It is a no-op on an unregistered listener. On failure the listener
// stays registered so the call can be retried. Must not be called from the
// listener's own callback.
func (l *Listener[T]) Unregister() error {
	l.regMu.Lock()
	defer l.regMu.Unlock()

	if !l.registered {
		return nil
	}

	status := l.sys.hal.RemovePropertyListener(l.device, l.address, l.token)
	if err := checkStatus("remove listener for", l.device, l.address, status); err != nil {
		return err
	}

	listeners.remove(l.token)
	l.logger.Debug("Listener unregistered", "token", l.token)
	l.token = 0
	l.registered = false
	l.sys.observer.ListenerUnregistered(l.device, l.address)
	return nil
}

// Close unregisters the listener if needed. Errors are logged, not returned,
// so Close can be deferred right after a successful Register.
func (l *Listener[T]) Close() {
	if err := l.Unregister(); err != nil {
		l.logger.Warn("Failed to unregister listener on close", "error", err)
	}
}

// notify runs on a platform thread.
func (l *Listener[T]) notify(obj ObjectID, _ []PropertyAddress) {
	value, err := GetProperty[T](l.sys.hal, obj, l.address)
	if err != nil {
		l.logger.Debug("Failed to read changed property", "error", err)
		return
	}

	if l.deliver != nil {
		select {
		case l.deliver <- value:
		default:
			l.logger.Warn("Listener delivery channel full, value dropped", "value", value)
			l.sys.observer.DeliveryDropped(l.device, l.address)
		}
		return
	}

	l.queueMu.Lock()
	l.queue = append(l.queue, value)
	l.queueMu.Unlock()
}

// Len returns the number of queued values.
func (l *Listener[T]) Len() int {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	return len(l.queue)
}

// Values returns a copy of the queued values, oldest first, leaving the
// queue intact.
func (l *Listener[T]) Values() []T {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	out := make([]T, len(l.queue))
	copy(out, l.queue)
	return out
}

// Drain returns the queued values, oldest first, and empties the queue.
func (l *Listener[T]) Drain() []T {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	out := l.queue
	l.queue = nil
	if out == nil {
		out = []T{}
	}
	return out
}
