package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	profileApplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "profile",
		Name:      "applies_total",
		Help:      "Profile enforcement passes by trigger",
	}, []string{"trigger"})

	profileDeviceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "profile",
		Name:      "device_failures_total",
		Help:      "Devices that could not be brought to their pinned configuration",
	}, []string{"device"})

	profileDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "profile",
		Name:      "devices",
		Help:      "Devices listed in the active profile",
	})
)

// RecordProfileApply counts one enforcement pass and its failed devices.
func RecordProfileApply(trigger string, devices int, failed []string) {
	profileApplies.WithLabelValues(trigger).Inc()
	profileDevices.Set(float64(devices))
	for _, device := range failed {
		profileDeviceFailures.WithLabelValues(device).Inc()
	}
}
