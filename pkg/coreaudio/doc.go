// Package coreaudio provides controlled access to hardware audio devices
// through the Core Audio hardware abstraction layer (HAL).
//
// The HAL is consumed through the [HAL] interface: typed property reads and
// writes keyed by a [PropertyAddress], plus listener registration. Two
// implementations ship with the package: the cgo backend returned by
// [NewPlatformHAL] on macOS, and [SimulatedHAL], an in-memory device model
// used by tests and by the CLI on machines without Core Audio.
//
// # Device Enumeration
//
//	sys := coreaudio.NewSystem(hal)
//	ids, err := sys.DeviceIDs()
//	for _, id := range ids {
//	    name, _ := sys.DeviceName(id)
//	    fmt.Printf("%d: %s\n", id, name)
//	}
//
// # Reconfiguration
//
// Changing the nominal sample rate or the physical format of a device is
// asynchronous on the HAL: the write returns immediately and the device
// confirms later through a property notification. [System.SetSampleRate] and
// [System.SetPhysicalFormat] register a [Listener], issue the write and block
// until the device reports the requested value or the convergence timeout
// (one second by default) expires:
//
//	ctx := context.Background()
//	if err := sys.SetSampleRate(ctx, id, 96000); err != nil {
//	    if errors.Is(err, coreaudio.ErrNotConverged) {
//	        // the device accepted the request but never confirmed it
//	    }
//	}
//
// # Listeners
//
// A [Listener] either forwards every observed value to a channel or keeps
// them in an unbounded queue that the owner polls with [Listener.Values] or
// [Listener.Drain]. The platform only ever sees an integer [ListenerToken];
// notifications for tokens that are no longer registered are dropped.
// Always pair [Listener.Register] with a deferred [Listener.Close].
package coreaudio
