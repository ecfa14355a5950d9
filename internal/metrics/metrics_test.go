package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smazurov/audiohal/pkg/coreaudio"
)

func TestObserverReconfigure(t *testing.T) {
	var obs coreaudio.Observer = Observer{}

	before := testutil.ToFloat64(reconfigurations.WithLabelValues("sample_rate", "timeout"))
	obs.ReconfigureFinished(coreaudio.ReconfigureResult{
		Kind:     coreaudio.KindSampleRate,
		Outcome:  coreaudio.OutcomeTimeout,
		Duration: time.Second,
		Err:      errors.New("timeout"),
	})
	if got := testutil.ToFloat64(reconfigurations.WithLabelValues("sample_rate", "timeout")); got != before+1 {
		t.Errorf("reconfigurations = %v, want %v", got, before+1)
	}

	histBefore := testutil.CollectAndCount(reconfigureDuration)
	obs.ReconfigureFinished(coreaudio.ReconfigureResult{
		Kind:    coreaudio.KindPhysicalFormat,
		Outcome: coreaudio.OutcomeUnchanged,
	})
	if got := testutil.ToFloat64(reconfigurations.WithLabelValues("physical_format", "unchanged")); got < 1 {
		t.Errorf("unchanged outcome not counted")
	}
	if got := testutil.CollectAndCount(reconfigureDuration); got != histBefore {
		t.Errorf("unchanged outcome observed a duration: %d series, want %d", got, histBefore)
	}
}

func TestObserverListeners(t *testing.T) {
	var obs coreaudio.Observer = Observer{}
	addr := coreaudio.GlobalAddress(coreaudio.SelectorNominalSampleRate)

	before := testutil.ToFloat64(listenersActive)
	obs.ListenerRegistered(57, addr)
	obs.ListenerRegistered(57, addr)
	obs.ListenerUnregistered(57, addr)
	if got := testutil.ToFloat64(listenersActive); got != before+1 {
		t.Errorf("listenersActive = %v, want %v", got, before+1)
	}
	obs.ListenerUnregistered(57, addr)

	obs.DeliveryDropped(57, addr)
	if got := testutil.ToFloat64(deliveriesDropped.WithLabelValues("'nsrt'")); got < 1 {
		t.Errorf("deliveriesDropped = %v, want >= 1", got)
	}
}

func TestDeviceSampleRate(t *testing.T) {
	SetDeviceSampleRate(57, "Scarlett 2i2 USB", 96000)
	if got := testutil.ToFloat64(deviceSampleRate.WithLabelValues("57", "Scarlett 2i2 USB")); got != 96000 {
		t.Errorf("deviceSampleRate = %v, want 96000", got)
	}

	DeleteDeviceMetrics(57, "Scarlett 2i2 USB")
	// Delete non-existent should not panic
	DeleteDeviceMetrics(999, "missing")
}

func TestRecordProfileApply(t *testing.T) {
	before := testutil.ToFloat64(profileApplies.WithLabelValues("reload"))
	RecordProfileApply("reload", 3, []string{"Scarlett 2i2 USB"})

	if got := testutil.ToFloat64(profileApplies.WithLabelValues("reload")); got != before+1 {
		t.Errorf("profileApplies = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(profileDevices); got != 3 {
		t.Errorf("profileDevices = %v, want 3", got)
	}
	if got := testutil.ToFloat64(profileDeviceFailures.WithLabelValues("Scarlett 2i2 USB")); got < 1 {
		t.Errorf("profileDeviceFailures = %v, want >= 1", got)
	}
}
