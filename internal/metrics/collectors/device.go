// Package collectors polls audio devices and exports their state as metrics.
package collectors

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/internal/metrics"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// DeviceSource is the part of coreaudio.System the collector reads.
type DeviceSource interface {
	Devices() ([]coreaudio.DeviceInfo, error)
	NominalSampleRate(device coreaudio.DeviceID) (float64, error)
}

type seenDevice struct {
	id   coreaudio.DeviceID
	name string
}

// DeviceCollector periodically exports the nominal sample rate of every
// device.
type DeviceCollector struct {
	source   DeviceSource
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	seen     map[seenDevice]struct{}
}

// NewDeviceCollector creates a collector polling at interval.
func NewDeviceCollector(source DeviceSource, interval time.Duration) *DeviceCollector {
	return &DeviceCollector{
		source:   source,
		logger:   logging.GetLogger("metrics"),
		interval: interval,
		seen:     make(map[seenDevice]struct{}),
	}
}

// Start begins collecting. The first sample is taken immediately.
func (c *DeviceCollector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run(ctx)
}

// Stop ends collection and waits for the poll loop to exit.
func (c *DeviceCollector) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *DeviceCollector) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *DeviceCollector) collect() {
	devices, err := c.source.Devices()
	if err != nil {
		c.logger.Debug("Failed to list devices", "error", err)
		return
	}

	current := make(map[seenDevice]struct{}, len(devices))
	for _, d := range devices {
		rate, err := c.source.NominalSampleRate(d.ID)
		if err != nil {
			c.logger.Debug("Failed to read sample rate", "device", d.ID, "error", err)
			continue
		}
		key := seenDevice{id: d.ID, name: d.Name}
		current[key] = struct{}{}
		metrics.SetDeviceSampleRate(d.ID, d.Name, rate)
	}

	// Unplugged devices keep no stale series.
	for key := range c.seen {
		if _, ok := current[key]; !ok {
			metrics.DeleteDeviceMetrics(key.id, key.name)
		}
	}
	c.seen = current
}
