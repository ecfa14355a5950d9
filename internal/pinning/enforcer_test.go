package pinning

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

func TestApplySampleRate(t *testing.T) {
	hal := coreaudio.NewDemoHAL()
	profile := config.Profile{Devices: []config.DeviceProfile{
		{Name: "MacBook Pro Speakers", SampleRate: 44100},
		{ID: uint32(coreaudio.DemoUSBInterface), SampleRate: 96000},
	}}
	e, sys := newTestEnforcer(t, hal, profile)

	result, err := e.Apply(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Devices != 2 || result.Changed != 2 || len(result.Failed) != 0 {
		t.Errorf("result = %+v, want 2 devices, 2 changed", result)
	}
	if got := rateOf(t, sys, coreaudio.DemoBuiltInOutput); got != 44100 {
		t.Errorf("speakers rate = %v, want 44100", got)
	}
	if got := rateOf(t, sys, coreaudio.DemoUSBInterface); got != 96000 {
		t.Errorf("usb rate = %v, want 96000", got)
	}

	setsBefore := hal.Stats().Sets
	result, err = e.Apply(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if result.Changed != 0 {
		t.Errorf("second Apply changed %d devices, want 0", result.Changed)
	}
	if got := hal.Stats().Sets; got != setsBefore {
		t.Errorf("second Apply issued %d writes", got-setsBefore)
	}
}

func TestApplyFormat(t *testing.T) {
	hal := coreaudio.NewDemoHAL()
	profile := config.Profile{Devices: []config.DeviceProfile{{
		Name:       "Scarlett 2i2 USB",
		SampleRate: 88200,
		Format:     &config.FormatProfile{Channels: 2, BitsPerChannel: 32},
	}}}
	e, sys := newTestEnforcer(t, hal, profile)

	if _, err := e.Apply(context.Background(), TriggerManual); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := sys.PhysicalFormat(coreaudio.DemoUSBInterface)
	if err != nil {
		t.Fatal(err)
	}
	want := coreaudio.NewLinearPCMFormat(88200, 2, 32, false)
	if !coreaudio.FormatsEqual(got, want) {
		t.Errorf("format = %v, want %v", got, want)
	}
	if rate := rateOf(t, sys, coreaudio.DemoUSBInterface); rate != 88200 {
		t.Errorf("rate = %v, want 88200", rate)
	}
}

func TestApplyPartialFailure(t *testing.T) {
	tests := []struct {
		name    string
		device  config.DeviceProfile
		wantErr error
	}{
		{
			name:    "missing by name",
			device:  config.DeviceProfile{Name: "Unplugged Interface", SampleRate: 48000},
			wantErr: ErrDeviceNotFound,
		},
		{
			name:    "missing by id",
			device:  config.DeviceProfile{ID: 99, SampleRate: 48000},
			wantErr: ErrDeviceNotFound,
		},
		{
			name:    "unsupported rate",
			device:  config.DeviceProfile{Name: "Scarlett 2i2 USB", SampleRate: 22050},
			wantErr: coreaudio.ErrUnsupportedSampleRate,
		},
		{
			name: "unsupported format",
			device: config.DeviceProfile{
				Name:       "MacBook Pro Speakers",
				SampleRate: 48000,
				Format:     &config.FormatProfile{Channels: 6, BitsPerChannel: 32, Float: true},
			},
			wantErr: coreaudio.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hal := coreaudio.NewDemoHAL()
			profile := config.Profile{Devices: []config.DeviceProfile{
				tt.device,
				{Name: "MacBook Pro Microphone", SampleRate: 48000},
				{ID: uint32(coreaudio.DemoBuiltInOutput), SampleRate: 44100},
			}}
			e, sys := newTestEnforcer(t, hal, profile)

			result, err := e.Apply(context.Background(), TriggerManual)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(result.Failed, []string{tt.device.Label()}) {
				t.Errorf("Failed = %v, want [%s]", result.Failed, tt.device.Label())
			}
			if tt.device.Name != "MacBook Pro Speakers" {
				if got := rateOf(t, sys, coreaudio.DemoBuiltInOutput); got != 44100 {
					t.Errorf("later device not applied: rate = %v", got)
				}
			}
		})
	}
}

func TestApplyCanceled(t *testing.T) {
	hal := coreaudio.NewDemoHAL()
	profile := config.Profile{Devices: []config.DeviceProfile{{Name: "MacBook Pro Speakers", SampleRate: 44100}}}
	e, _ := newTestEnforcer(t, hal, profile)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Apply(ctx, TriggerManual)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if result.Changed != 0 {
		t.Errorf("Changed = %d, want 0", result.Changed)
	}
	if hal.Stats().Sets != 0 {
		t.Error("canceled Apply wrote to the device")
	}
}

func TestApplyPublishesEvent(t *testing.T) {
	bus := newTestBus(t)
	ch := make(chan events.ProfileAppliedEvent, 1)
	unsub := events.SubscribeToChannel(bus, ch)
	defer unsub()

	hal := coreaudio.NewDemoHAL()
	profile := config.Profile{Devices: []config.DeviceProfile{
		{Name: "MacBook Pro Speakers", SampleRate: 44100},
		{Name: "Unplugged Interface", SampleRate: 48000},
	}}
	e, _ := newTestEnforcer(t, hal, profile, WithBus(bus), WithProfilePath("/etc/audiohal/profile.toml"))

	_, _ = e.Apply(context.Background(), TriggerManual)

	select {
	case ev := <-ch:
		if ev.Trigger != TriggerManual || ev.Devices != 2 || ev.Changed != 1 {
			t.Errorf("event = %+v", ev)
		}
		if ev.Path != "/etc/audiohal/profile.toml" {
			t.Errorf("Path = %q", ev.Path)
		}
		if !slices.Equal(ev.Failed, []string{"Unplugged Interface"}) {
			t.Errorf("Failed = %v", ev.Failed)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ProfileAppliedEvent")
	}
}
