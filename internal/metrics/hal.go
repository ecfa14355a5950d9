// Package metrics provides Prometheus metrics for the HAL layer and the
// profile enforcer.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smazurov/audiohal/pkg/coreaudio"
)

const namespace = "audiohal"

var (
	reconfigurations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hal",
		Name:      "reconfigurations_total",
		Help:      "Sample rate and format changes by kind and outcome",
	}, []string{"kind", "outcome"})

	reconfigureDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "hal",
		Name:      "reconfigure_duration_seconds",
		Help:      "Time from request to confirmation, rejection or timeout",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"kind"})

	reconfigureNotifications = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "hal",
		Name:      "reconfigure_notifications",
		Help:      "Change notifications received while waiting for confirmation",
		Buckets:   prometheus.LinearBuckets(0, 1, 6),
	}, []string{"kind"})

	listenersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hal",
		Name:      "listeners_active",
		Help:      "Property listeners currently installed with the HAL",
	})

	deliveriesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hal",
		Name:      "deliveries_dropped_total",
		Help:      "Listener values dropped because the delivery channel was full",
	}, []string{"property"})

	deviceSampleRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "device",
		Name:      "sample_rate_hz",
		Help:      "Last observed nominal sample rate",
	}, []string{"device_id", "device"})
)

// SetDeviceSampleRate records the nominal sample rate of a device.
func SetDeviceSampleRate(id coreaudio.DeviceID, name string, rate float64) {
	deviceSampleRate.WithLabelValues(deviceLabel(id), name).Set(rate)
}

// DeleteDeviceMetrics removes all metrics for a device.
func DeleteDeviceMetrics(id coreaudio.DeviceID, name string) {
	deviceSampleRate.DeleteLabelValues(deviceLabel(id), name)
}

func deviceLabel(id coreaudio.DeviceID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Observer records coreaudio lifecycle signals.
type Observer struct{}

// ReconfigureFinished implements coreaudio.Observer.
func (Observer) ReconfigureFinished(res coreaudio.ReconfigureResult) {
	kind := string(res.Kind)
	reconfigurations.WithLabelValues(kind, string(res.Outcome)).Inc()
	if res.Outcome == coreaudio.OutcomeUnchanged {
		return
	}
	reconfigureDuration.WithLabelValues(kind).Observe(res.Duration.Seconds())
	reconfigureNotifications.WithLabelValues(kind).Observe(float64(res.Notifications))
}

// ListenerRegistered implements coreaudio.Observer.
func (Observer) ListenerRegistered(coreaudio.DeviceID, coreaudio.PropertyAddress) {
	listenersActive.Inc()
}

// ListenerUnregistered implements coreaudio.Observer.
func (Observer) ListenerUnregistered(coreaudio.DeviceID, coreaudio.PropertyAddress) {
	listenersActive.Dec()
}

// DeliveryDropped implements coreaudio.Observer.
func (Observer) DeliveryDropped(_ coreaudio.DeviceID, addr coreaudio.PropertyAddress) {
	deliveriesDropped.WithLabelValues(addr.Selector.String()).Inc()
}
