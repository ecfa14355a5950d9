package coreaudio

import (
	"errors"
	"fmt"
	"time"
)

// Status is the raw OSStatus returned by a HAL call.
type Status int32

// HAL status codes.
const (
	StatusOK                   Status = 0
	StatusNotRunning           Status = 's'<<24 | 't'<<16 | 'o'<<8 | 'p'
	StatusUnspecified          Status = 'w'<<24 | 'h'<<16 | 'a'<<8 | 't'
	StatusUnknownProperty      Status = 'w'<<24 | 'h'<<16 | 'o'<<8 | '?'
	StatusBadPropertySize      Status = '!'<<24 | 's'<<16 | 'i'<<8 | 'z'
	StatusIllegalOperation     Status = 'n'<<24 | 'o'<<16 | 'p'<<8 | 'e'
	StatusBadObject            Status = '!'<<24 | 'o'<<16 | 'b'<<8 | 'j'
	StatusBadDevice            Status = '!'<<24 | 'd'<<16 | 'e'<<8 | 'v'
	StatusUnsupportedOperation Status = 'u'<<24 | 'n'<<16 | 'o'<<8 | 'p'
	StatusUnsupportedFormat    Status = '!'<<24 | 'd'<<16 | 'a'<<8 | 't'
	StatusPermissions          Status = '!'<<24 | 'h'<<16 | 'o'<<8 | 'g'
)

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	if s < 0 {
		return fmt.Sprintf("%d", int32(s))
	}
	return fourCC(uint32(s))
}

var (
	// ErrUnsupportedSampleRate reports a sample rate the device does not offer
	// as a discrete value, or a rate change that never converged.
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")

	// ErrUnsupportedFormat reports a physical format the device rejected or
	// never converged to.
	ErrUnsupportedFormat = errors.New("unsupported stream format")

	// ErrNotConverged is matched by every [ConvergenceError].
	ErrNotConverged = errors.New("device did not converge")

	// ErrListenerRegistered is returned by Register on a registered listener.
	ErrListenerRegistered = errors.New("listener already registered")

	// ErrPlatformUnsupported is returned by NewPlatformHAL on systems without
	// Core Audio.
	ErrPlatformUnsupported = errors.New("core audio is not available on this platform")
)

// StatusError wraps a non-success HAL status.
type StatusError struct {
	Op      string
	Object  ObjectID
	Address PropertyAddress
	Status  Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coreaudio: %s %s on object %d: status %s", e.Op, e.Address, e.Object, e.Status)
}

// Is lets errors.Is(err, ErrUnsupportedFormat) match the HAL's
// unsupported-format status.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnsupportedFormat && e.Status == StatusUnsupportedFormat
}

// checkStatus converts a HAL status into an error; StatusOK yields nil.
func checkStatus(op string, obj ObjectID, addr PropertyAddress, status Status) error {
	if status == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Object: obj, Address: addr, Status: status}
}

// ReconfigureKind names the property a reconfiguration targets.
type ReconfigureKind string

// Reconfiguration kinds.
const (
	KindSampleRate     ReconfigureKind = "sample_rate"
	KindPhysicalFormat ReconfigureKind = "physical_format"
)

// ConvergenceError reports a reconfiguration whose write was accepted but
// whose confirmation never arrived before the deadline. It matches
// ErrNotConverged and, depending on Kind, ErrUnsupportedSampleRate or
// ErrUnsupportedFormat.
type ConvergenceError struct {
	Kind          ReconfigureKind
	Device        DeviceID
	Target        string
	Last          string
	Notifications int
	Waited        time.Duration
}

func (e *ConvergenceError) Error() string {
	last := "none"
	if e.Notifications > 0 {
		last = e.Last
	}
	return fmt.Sprintf("coreaudio: device %d did not converge to %s within %s (%d notifications, last %s)",
		e.Device, e.Target, e.Waited.Round(time.Millisecond), e.Notifications, last)
}

func (e *ConvergenceError) Is(target error) bool {
	switch target {
	case ErrNotConverged:
		return true
	case ErrUnsupportedSampleRate:
		return e.Kind == KindSampleRate
	case ErrUnsupportedFormat:
		return e.Kind == KindPhysicalFormat
	}
	return false
}
