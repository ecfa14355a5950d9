// Package pinning keeps audio devices at the sample rate and physical format
// named in a device profile.
package pinning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/internal/metrics"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// Apply triggers.
const (
	TriggerStart  = "start"
	TriggerReload = "reload"
	TriggerDrift  = "drift"
	TriggerManual = "manual"
)

// DefaultDriftInterval is how often Run drains its listeners.
const DefaultDriftInterval = 250 * time.Millisecond

// ErrDeviceNotFound is returned for profile entries naming no present device.
var ErrDeviceNotFound = errors.New("device not found")

// Result summarizes one Apply pass.
type Result struct {
	Devices int
	Changed int
	Failed  []string
}

// Enforcer applies a profile to the devices of one System.
type Enforcer struct {
	sys           *coreaudio.System
	bus           *events.Bus
	logger        *slog.Logger
	path          string
	driftInterval time.Duration

	mu      sync.Mutex
	profile config.Profile
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithBus publishes profile and sample rate events on bus.
func WithBus(bus *events.Bus) Option {
	return func(e *Enforcer) { e.bus = bus }
}

// WithProfilePath makes Run reload the profile when the file changes.
func WithProfilePath(path string) Option {
	return func(e *Enforcer) { e.path = path }
}

// WithDriftInterval sets how often Run checks for external changes.
func WithDriftInterval(d time.Duration) Option {
	return func(e *Enforcer) {
		if d > 0 {
			e.driftInterval = d
		}
	}
}

// WithLogger overrides the "pinning" module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Enforcer for profile.
func New(sys *coreaudio.System, profile config.Profile, opts ...Option) *Enforcer {
	e := &Enforcer{
		sys:           sys,
		logger:        logging.GetLogger("pinning"),
		driftInterval: DefaultDriftInterval,
		profile:       profile,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Profile returns the active profile.
func (e *Enforcer) Profile() config.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

func (e *Enforcer) setProfile(profile config.Profile) {
	e.mu.Lock()
	e.profile = profile
	e.mu.Unlock()
}

// Apply brings every device in the profile to its pinned configuration. A
// device failing does not stop the others; their errors are joined.
func (e *Enforcer) Apply(ctx context.Context, trigger string) (Result, error) {
	profile := e.Profile()
	result := Result{Devices: len(profile.Devices)}

	var errs []error
	for _, want := range profile.Devices {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		changed, err := e.applyDevice(ctx, want)
		if err != nil {
			e.logger.Warn("Failed to pin device", "device", want.Label(), "error", err)
			result.Failed = append(result.Failed, want.Label())
			errs = append(errs, fmt.Errorf("%s: %w", want.Label(), err))
			continue
		}
		if changed {
			result.Changed++
		}
	}

	e.logger.Info("Profile applied",
		"trigger", trigger,
		"devices", result.Devices,
		"changed", result.Changed,
		"failed", len(result.Failed))

	metrics.RecordProfileApply(trigger, result.Devices, result.Failed)
	if e.bus != nil {
		e.bus.Publish(events.ProfileAppliedEvent{
			Path:      e.path,
			Trigger:   trigger,
			Devices:   result.Devices,
			Changed:   result.Changed,
			Failed:    result.Failed,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	return result, errors.Join(errs...)
}

func (e *Enforcer) applyDevice(ctx context.Context, want config.DeviceProfile) (bool, error) {
	id, err := e.resolve(want)
	if err != nil {
		return false, err
	}

	if want.Format != nil {
		target := targetFormat(want)
		current, err := e.sys.PhysicalFormat(id)
		if err == nil && coreaudio.FormatsEqual(current, target) {
			return false, nil
		}
		return true, e.sys.SetPhysicalFormat(ctx, id, target)
	}

	current, err := e.sys.NominalSampleRate(id)
	if err == nil && coreaudio.RatesEqual(current, want.SampleRate) {
		return false, nil
	}
	return true, e.sys.SetSampleRate(ctx, id, want.SampleRate)
}

// resolve maps a profile entry to a present device.
func (e *Enforcer) resolve(want config.DeviceProfile) (coreaudio.DeviceID, error) {
	if want.Name == "" {
		ids, err := e.sys.DeviceIDs()
		if err != nil {
			return coreaudio.UnknownObject, err
		}
		for _, id := range ids {
			if uint32(id) == want.ID {
				return id, nil
			}
		}
		return coreaudio.UnknownObject, ErrDeviceNotFound
	}

	id, ok, err := e.sys.FindDevice(want.Name)
	if err != nil {
		return coreaudio.UnknownObject, err
	}
	if !ok {
		return coreaudio.UnknownObject, ErrDeviceNotFound
	}
	return id, nil
}

func targetFormat(want config.DeviceProfile) coreaudio.StreamFormat {
	f := want.Format
	return coreaudio.NewLinearPCMFormat(want.SampleRate, f.Channels, f.BitsPerChannel, f.Float)
}
