package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProfile(t *testing.T) {
	path := writeTOML(t, `
version = 1

[[device]]
name = "Scarlett 2i2 USB"
sample_rate = 96000

[device.format]
channels = 2
bits_per_channel = 24

[[device]]
id = 42
sample_rate = 48000
`)

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if len(profile.Devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(profile.Devices))
	}

	usb := profile.Devices[0]
	if usb.Name != "Scarlett 2i2 USB" || usb.SampleRate != 96000 {
		t.Errorf("usb = %+v", usb)
	}
	if usb.Format == nil || usb.Format.Channels != 2 || usb.Format.BitsPerChannel != 24 || usb.Format.Float {
		t.Errorf("usb format = %+v", usb.Format)
	}

	speakers := profile.Devices[1]
	if speakers.ID != 42 || speakers.Format != nil || speakers.Label() != "#42" {
		t.Errorf("speakers = %+v", speakers)
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		device  DeviceProfile
		wantErr string
	}{
		{"no identity", DeviceProfile{SampleRate: 48000}, "name or id is required"},
		{"both identities", DeviceProfile{Name: "x", ID: 4, SampleRate: 48000}, "mutually exclusive"},
		{"nothing to pin", DeviceProfile{Name: "x"}, "nothing to pin"},
		{"negative rate", DeviceProfile{Name: "x", SampleRate: -1}, "must be positive"},
		{"odd bit depth", DeviceProfile{Name: "x", SampleRate: 48000, Format: &FormatProfile{Channels: 2, BitsPerChannel: 12}}, "multiple of 8"},
		{"format without rate", DeviceProfile{Name: "x", Format: &FormatProfile{Channels: 2, BitsPerChannel: 16}}, "format requires sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Profile{Devices: []DeviceProfile{tt.device}}.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	dup := Profile{Devices: []DeviceProfile{
		{Name: "Speakers", SampleRate: 44100},
		{Name: "speakers", SampleRate: 48000},
	}}
	if err := dup.Validate(); err == nil || !strings.Contains(err.Error(), "listed twice") {
		t.Errorf("duplicate Validate() = %v", err)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing profile")
	}
	if _, err := LoadProfile(writeTOML(t, "version = 9\n")); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("expected version error, got %v", err)
	}
	if _, err := LoadProfile(writeTOML(t, "[[device]]\nsample_rate = 48000\n")); err == nil {
		t.Error("expected validation error for anonymous device")
	}
}

func TestSaveProfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.toml")
	want := Profile{Devices: []DeviceProfile{
		{Name: "Scarlett 2i2 USB", SampleRate: 88200, Format: &FormatProfile{Channels: 2, BitsPerChannel: 32}},
	}}

	if err := SaveProfile(path, want); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	got, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if got.Version != ProfileVersion || got.Devices[0].Format.BitsPerChannel != 32 || got.Devices[0].SampleRate != 88200 {
		t.Errorf("round trip = %+v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}

	if err := SaveProfile(path, Profile{Devices: []DeviceProfile{{}}}); err == nil {
		t.Error("SaveProfile accepted an invalid profile")
	}
}
