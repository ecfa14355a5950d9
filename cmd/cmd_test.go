package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

func TestMain(m *testing.M) {
	logging.Initialize(logging.Config{Level: "error", Format: "text"})
	os.Exit(m.Run())
}

func newTestSession(t *testing.T) (*Session, *coreaudio.SimulatedHAL) {
	t.Helper()
	hal := coreaudio.NewDemoHAL()
	t.Cleanup(hal.Wait)
	bus := events.New()
	t.Cleanup(func() { _ = bus.Close() })
	s := NewSession(bus)
	s.Backend = BackendSim
	s.ConvergenceTimeout = 300 * time.Millisecond
	s.PollInterval = 10 * time.Millisecond
	s.hal = hal
	return s, hal
}

func runCmd(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(io.Discard)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestSessionBackends(t *testing.T) {
	s := NewSession(nil)
	s.Backend = BackendSim
	sys, err := s.System()
	if err != nil {
		t.Fatalf("sim backend: %v", err)
	}
	again, _ := s.System()
	if again != sys {
		t.Error("System() opened the backend twice")
	}

	bogus := NewSession(nil)
	bogus.Backend = "alsa"
	if _, err := bogus.System(); err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("unknown backend error = %v", err)
	}
}

func TestResolveDevice(t *testing.T) {
	s, hal := newTestSession(t)
	sys, err := s.System()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		arg  string
		want coreaudio.DeviceID
	}{
		{"", coreaudio.DemoBuiltInOutput},
		{"output", coreaudio.DemoBuiltInOutput},
		{"input", coreaudio.DemoMicrophone},
		{"57", coreaudio.DemoUSBInterface},
		{"Scarlett 2i2 USB", coreaudio.DemoUSBInterface},
		{"MacBook Pro Microphone", coreaudio.DemoMicrophone},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := resolveDevice(sys, tt.arg)
			if err != nil {
				t.Fatalf("resolveDevice(%q): %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("resolveDevice(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}

	if _, err := resolveDevice(sys, "Unplugged Interface"); err == nil {
		t.Error("expected error for unknown name")
	}

	hal.SetDefaultDevice(false, coreaudio.UnknownObject)
	if _, err := resolveDevice(sys, ""); !errors.Is(err, ErrNoDefaultDevice) {
		t.Errorf("err = %v, want ErrNoDefaultDevice", err)
	}
}

func TestDevicesCmd(t *testing.T) {
	s, _ := newTestSession(t)

	out, err := runCmd(t, CreateDevicesCmd(s))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ID", "MacBook Pro Speakers", "Scarlett 2i2 USB", "44100", "output", "input"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = runCmd(t, CreateDevicesCmd(s), "--json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []deviceRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d devices, want 3", len(rows))
	}
	if !rows[0].DefaultOutput || rows[0].SampleRate != 48000 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if !rows[2].DefaultInput || rows[2].Name != "MacBook Pro Microphone" {
		t.Errorf("rows[2] = %+v", rows[2])
	}
}

func TestFormatsCmd(t *testing.T) {
	s, _ := newTestSession(t)

	out, err := runCmd(t, CreateFormatsCmd(s), "Scarlett 2i2 USB")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 12 {
		t.Fatalf("got %d formats, want 12:\n%s", len(lines), out)
	}
	marked := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "*") {
			marked++
			if !strings.Contains(line, "44100 Hz 2ch 24-bit") {
				t.Errorf("wrong current format: %s", line)
			}
		}
	}
	if marked != 1 {
		t.Errorf("%d formats marked current, want 1", marked)
	}
}

func TestRatesCmd(t *testing.T) {
	s, _ := newTestSession(t)

	out, err := runCmd(t, CreateRatesCmd(s), "input")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "current: 48000 Hz") || !strings.Contains(out, "8000-48000 Hz") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSetRateCmd(t *testing.T) {
	s, _ := newTestSession(t)

	out, err := runCmd(t, CreateSetRateCmd(s), "96000", "57")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Scarlett 2i2 USB: 96000 Hz" {
		t.Errorf("output = %q", out)
	}

	_, err = runCmd(t, CreateSetRateCmd(s), "22050", "57")
	if !errors.Is(err, coreaudio.ErrUnsupportedSampleRate) {
		t.Errorf("err = %v, want ErrUnsupportedSampleRate", err)
	}

	if _, err = runCmd(t, CreateSetRateCmd(s), "fast"); err == nil {
		t.Error("expected error for non-numeric rate")
	}
}

func TestSetRateCmdTimeout(t *testing.T) {
	s, hal := newTestSession(t)
	hal.SetApplyMode(coreaudio.ApplySilently)

	_, err := runCmd(t, CreateSetRateCmd(s), "44100")
	if !errors.Is(err, coreaudio.ErrNotConverged) {
		t.Errorf("err = %v, want ErrNotConverged", err)
	}
}

func TestSetFormatCmd(t *testing.T) {
	s, _ := newTestSession(t)

	out, err := runCmd(t, CreateSetFormatCmd(s), "--bits", "16", "Scarlett 2i2 USB")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "44100 Hz 2ch 16-bit") {
		t.Errorf("output = %q", out)
	}

	_, err = runCmd(t, CreateSetFormatCmd(s), "--channels", "6", "Scarlett 2i2 USB")
	if !errors.Is(err, coreaudio.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestWatchCmd(t *testing.T) {
	s, hal := newTestSession(t)

	var out bytes.Buffer
	c := CreateWatchCmd(s)
	c.SetOut(&out)
	c.SetArgs([]string{"--duration", "500ms"})

	done := make(chan error, 1)
	go func() { done <- c.Execute() }()

	deadline := time.Now().Add(time.Second)
	for hal.ActiveListeners() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("listeners not installed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hal.ChangeSampleRate(coreaudio.DemoBuiltInOutput, 44100)

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after --duration")
	}

	got := out.String()
	for _, want := range []string{"watching MacBook Pro Speakers (42)", "rate 44100 Hz", "format 'lpcm' 44100 Hz"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := hal.ActiveListeners(); n != 0 {
		t.Errorf("%d listeners left after watch", n)
	}
}

func TestPinCmd(t *testing.T) {
	s, _ := newTestSession(t)
	path := filepath.Join(t.TempDir(), "profile.toml")
	profile := config.Profile{Devices: []config.DeviceProfile{
		{Name: "Scarlett 2i2 USB", SampleRate: 48000},
		{Name: "MacBook Pro Microphone", SampleRate: 48000},
	}}
	if err := config.SaveProfile(path, profile); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, CreatePinCmd(s, func() string { return path }))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "2 devices, 1 changed, 0 failed" {
		t.Errorf("output = %q", out)
	}

	sys, _ := s.System()
	if rate, _ := sys.NominalSampleRate(coreaudio.DemoUSBInterface); rate != 48000 {
		t.Errorf("rate = %v, want 48000", rate)
	}

	if _, err := runCmd(t, CreatePinCmd(s, func() string { return path }), filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing profile")
	}
}

func TestSnapshotCmd(t *testing.T) {
	s, hal := newTestSession(t)
	path := filepath.Join(t.TempDir(), "snap", "profile.toml")

	out, err := runCmd(t, CreateSnapshotCmd(s), path, "--format")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "wrote 3 devices") {
		t.Errorf("output = %q", out)
	}

	profile, err := config.LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	usb := profile.Devices[1]
	if usb.Name != "Scarlett 2i2 USB" || usb.SampleRate != 44100 {
		t.Errorf("usb entry = %+v", usb)
	}
	if usb.Format == nil || usb.Format.BitsPerChannel != 24 || usb.Format.Float {
		t.Errorf("usb format = %+v", usb.Format)
	}

	// A fresh snapshot pins nothing new.
	if _, err := runCmd(t, CreatePinCmd(s, func() string { return path })); err != nil {
		t.Fatal(err)
	}
	if got := hal.Stats().Sets; got != 0 {
		t.Errorf("pinning a fresh snapshot issued %d writes", got)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, CreateVersionCmd())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "audiohal ") {
		t.Errorf("output = %q", out)
	}
}
