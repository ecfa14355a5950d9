package pinning

import (
	"context"
	"time"

	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// deviceWatch observes one pinned device between Apply passes.
type deviceWatch struct {
	want   config.DeviceProfile
	id     coreaudio.DeviceID
	rate   *coreaudio.Listener[float64]
	format *coreaudio.Listener[coreaudio.StreamFormat]
}

// drifted drains the listeners and reports whether the device left its
// pinned configuration. Every observed rate is published.
func (w *deviceWatch) drifted(e *Enforcer) bool {
	drift := false
	for _, rate := range w.rate.Drain() {
		if e.bus != nil {
			e.bus.Publish(events.SampleRateChangedEvent{
				DeviceID:   uint32(w.id),
				Device:     w.want.Label(),
				SampleRate: rate,
				Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
			})
		}
		if !coreaudio.RatesEqual(rate, w.want.SampleRate) {
			drift = true
		}
	}
	if w.format == nil {
		return drift
	}

	target := targetFormat(w.want)
	for _, format := range w.format.Drain() {
		if e.bus != nil {
			e.bus.Publish(events.FormatChangedEvent{
				DeviceID:  uint32(w.id),
				Device:    w.want.Label(),
				Format:    format.String(),
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			})
		}
		if !coreaudio.FormatsEqual(format, target) {
			drift = true
		}
	}
	return drift
}

func (w *deviceWatch) close() {
	w.rate.Close()
	if w.format != nil {
		w.format.Close()
	}
}

// Run applies the profile, then keeps devices pinned until ctx is done. It
// re-applies when a device drifts or, with WithProfilePath, when the profile
// file changes. Listeners and the file watcher are torn down on return.
func (e *Enforcer) Run(ctx context.Context) error {
	reloads := make(chan config.Profile, 1)
	if e.path != "" {
		watcher := config.NewConfigWatcher(e.path, config.LoadProfile, e.logger)
		watcher.OnReload(func(p config.Profile) {
			// Only the newest profile matters.
			select {
			case <-reloads:
			default:
			}
			reloads <- p
		})
		if err := watcher.Start(ctx); err != nil {
			e.logger.Warn("Failed to start profile watcher, hot-reload disabled", "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	if _, err := e.Apply(ctx, TriggerStart); err != nil {
		e.logger.Warn("Initial profile apply incomplete", "error", err)
	}
	watches := e.watch()
	defer func() { closeWatches(watches) }()

	ticker := time.NewTicker(e.driftInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case p := <-reloads:
			e.logger.Info("Profile reloaded", "path", e.path, "devices", len(p.Devices))
			closeWatches(watches)
			e.setProfile(p)
			if _, err := e.Apply(ctx, TriggerReload); err != nil {
				e.logger.Warn("Reloaded profile apply incomplete", "error", err)
			}
			watches = e.watch()

		case <-ticker.C:
			drifted := false
			for _, w := range watches {
				if w.drifted(e) {
					e.logger.Info("Device drifted from profile", "device", w.want.Label())
					drifted = true
				}
			}
			if !drifted {
				continue
			}
			// Corrections are queued as well and match the profile, so the
			// next tick sees no drift.
			if _, err := e.Apply(ctx, TriggerDrift); err != nil {
				e.logger.Warn("Drift correction incomplete", "error", err)
			}
		}
	}
}

// watch installs queue-mode listeners on every resolvable pinned device.
func (e *Enforcer) watch() []*deviceWatch {
	var watches []*deviceWatch
	for _, want := range e.Profile().Devices {
		id, err := e.resolve(want)
		if err != nil {
			continue
		}
		w := &deviceWatch{want: want, id: id, rate: coreaudio.NewRateListener(e.sys, id, nil)}
		if err := w.rate.Register(); err != nil {
			e.logger.Warn("Failed to watch sample rate", "device", want.Label(), "error", err)
			continue
		}
		if want.Format != nil {
			w.format = coreaudio.NewFormatListener(e.sys, id, nil)
			if err := w.format.Register(); err != nil {
				e.logger.Warn("Failed to watch format", "device", want.Label(), "error", err)
				w.format = nil
			}
		}
		watches = append(watches, w)
	}
	return watches
}

func closeWatches(watches []*deviceWatch) {
	for _, w := range watches {
		w.close()
	}
}
