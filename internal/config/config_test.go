package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

// testOptions mirrors the shape of the CLI options struct.
type testOptions struct {
	Config string `help:"Config file path"`

	Backend            string   `toml:"hal.backend" env:"HAL_BACKEND"`
	ConvergenceTimeout string   `toml:"hal.convergence_timeout" env:"HAL_CONVERGENCE_TIMEOUT"`
	Verbose            bool     `toml:"hal.verbose" env:"HAL_VERBOSE"`
	Retries            int      `toml:"hal.retries" env:"HAL_RETRIES"`
	DefaultRate        float64  `toml:"pin.default_rate" env:"PIN_DEFAULT_RATE"`
	Devices            []string `toml:"pin.devices" env:"PIN_DEVICES"`
	MetricsAddr        string   `toml:"metrics.addr" env:"METRICS_ADDR"`
}

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

const sampleTOML = `
[hal]
backend = "sim"
convergence_timeout = "2s"
verbose = true
retries = 3

[pin]
default_rate = 48000
devices = ["Scarlett 2i2 USB", "MacBook Pro Speakers"]

[metrics]
addr = ":9100"
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeTOML(t, sampleTOML)}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:             opts.Config,
		Backend:            "sim",
		ConvergenceTimeout: "2s",
		Verbose:            true,
		Retries:            3,
		DefaultRate:        48000,
		Devices:            []string{"Scarlett 2i2 USB", "MacBook Pro Speakers"},
		MetricsAddr:        ":9100",
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("AUDIOHAL_HAL_BACKEND", "coreaudio")
	t.Setenv("AUDIOHAL_HAL_VERBOSE", "true")
	t.Setenv("AUDIOHAL_HAL_RETRIES", "7")
	t.Setenv("AUDIOHAL_PIN_DEFAULT_RATE", "96000")
	t.Setenv("AUDIOHAL_PIN_DEVICES", " a , b ")

	opts := &testOptions{}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Backend != "coreaudio" || !opts.Verbose || opts.Retries != 7 || opts.DefaultRate != 96000 {
		t.Errorf("unexpected options: %+v", *opts)
	}
	if !reflect.DeepEqual(opts.Devices, []string{"a", "b"}) {
		t.Errorf("Devices = %v, want [a b]", opts.Devices)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("AUDIOHAL_HAL_BACKEND", "coreaudio")
	t.Setenv("AUDIOHAL_METRICS_ADDR", ":9200")

	opts := &testOptions{Config: writeTOML(t, sampleTOML)}

	root := &cobra.Command{Use: "audiohal"}
	root.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "")
	root.PersistentFlags().StringVar(&opts.ConvergenceTimeout, "convergence-timeout", "", "")
	if err := root.PersistentFlags().Set("convergence-timeout", "250ms"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, root); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		field, got, want string
	}{
		{"Backend (env over file)", opts.Backend, "coreaudio"},
		{"MetricsAddr (env over file)", opts.MetricsAddr, ":9200"},
		{"ConvergenceTimeout (flag over file)", opts.ConvergenceTimeout, "250ms"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"hal": map[string]any{
			"timing": map[string]any{
				"poll": "100ms",
			},
			"backend": "sim",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"hal.backend", "sim"},
		{"hal.timing.poll", "100ms"},
		{"nonexistent", nil},
		{"hal.nonexistent", nil},
		{"root.child", nil},
	}

	for _, test := range tests {
		if result := getNestedValue(data, test.path); result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	type target struct {
		Rate    float64
		Retries int
		Enabled bool
	}
	s := &target{}
	v := reflect.ValueOf(s).Elem()

	setFieldValueFromString(v.FieldByName("Rate"), "44100.5")
	setFieldValueFromString(v.FieldByName("Retries"), "not a number")
	setFieldValueFromString(v.FieldByName("Enabled"), "1")

	if s.Rate != 44100.5 {
		t.Errorf("Rate = %v, want 44100.5", s.Rate)
	}
	if s.Retries != 0 {
		t.Errorf("Retries = %d, want unparsable input ignored", s.Retries)
	}
	if !s.Enabled {
		t.Error("Enabled = false, want true")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "nonexistent.toml")}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadConfigUnreadableFile(t *testing.T) {
	// A directory exists but cannot be read as a file.
	opts := &testOptions{Config: t.TempDir()}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("LoadConfig should fail when the config path is unreadable")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	opts := &testOptions{Config: writeTOML(t, "[hal\ninvalid toml syntax\n")}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTOML(t, `
[logging]
level = "warn"
format = "json"
output = "stdout"
hal = "debug"
pinning = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "warn" || cfg.Format != "json" || cfg.Output != "stdout" {
		t.Errorf("globals = %+v", cfg)
	}
	want := map[string]string{"hal": "debug", "pinning": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}

	defaults := LoadLoggingConfig("")
	if defaults.Level != "info" || defaults.Format != "text" || defaults.Output != "stderr" {
		t.Errorf("defaults = %+v", defaults)
	}
}
