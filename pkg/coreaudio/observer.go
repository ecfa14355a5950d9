package coreaudio

import "time"

// Outcome classifies how a reconfiguration ended.
type Outcome string

// Reconfiguration outcomes.
const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeConverged Outcome = "converged"
	OutcomeRejected  Outcome = "rejected"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCanceled  Outcome = "canceled"
	OutcomeFailed    Outcome = "failed"
)

// ReconfigureResult describes one finished SetSampleRate or
// SetPhysicalFormat call.
type ReconfigureResult struct {
	Kind          ReconfigureKind
	Device        DeviceID
	Target        string
	Outcome       Outcome
	Notifications int
	Duration      time.Duration
	Err           error
}

// Observer receives lifecycle signals from a System. Calls may arrive from
// platform callback threads and must not block.
type Observer interface {
	ReconfigureFinished(result ReconfigureResult)
	ListenerRegistered(device DeviceID, addr PropertyAddress)
	ListenerUnregistered(device DeviceID, addr PropertyAddress)
	DeliveryDropped(device DeviceID, addr PropertyAddress)
}

// MultiObserver fans signals out to several observers.
type MultiObserver []Observer

func (m MultiObserver) ReconfigureFinished(result ReconfigureResult) {
	for _, o := range m {
		o.ReconfigureFinished(result)
	}
}

func (m MultiObserver) ListenerRegistered(device DeviceID, addr PropertyAddress) {
	for _, o := range m {
		o.ListenerRegistered(device, addr)
	}
}

func (m MultiObserver) ListenerUnregistered(device DeviceID, addr PropertyAddress) {
	for _, o := range m {
		o.ListenerUnregistered(device, addr)
	}
}

func (m MultiObserver) DeliveryDropped(device DeviceID, addr PropertyAddress) {
	for _, o := range m {
		o.DeliveryDropped(device, addr)
	}
}

type nopObserver struct{}

func (nopObserver) ReconfigureFinished(ReconfigureResult)          {}
func (nopObserver) ListenerRegistered(DeviceID, PropertyAddress)   {}
func (nopObserver) ListenerUnregistered(DeviceID, PropertyAddress) {}
func (nopObserver) DeliveryDropped(DeviceID, PropertyAddress)      {}
