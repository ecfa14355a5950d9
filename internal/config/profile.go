package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ProfileVersion is the current device profile schema version.
const ProfileVersion = 1

// FormatProfile describes a desired linear PCM physical format. Geometry
// fields are derived from these.
type FormatProfile struct {
	Channels       uint32 `toml:"channels" json:"channels"`
	BitsPerChannel uint32 `toml:"bits_per_channel" json:"bits_per_channel"`
	Float          bool   `toml:"float,omitempty" json:"float,omitempty"`
}

// DeviceProfile pins one device, matched by Name or by ID.
type DeviceProfile struct {
	Name       string         `toml:"name,omitempty" json:"name,omitempty"`
	ID         uint32         `toml:"id,omitempty" json:"id,omitempty"`
	SampleRate float64        `toml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	Format     *FormatProfile `toml:"format,omitempty" json:"format,omitempty"`
}

// Label returns the name when set, otherwise the numeric ID.
func (d DeviceProfile) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("#%d", d.ID)
}

// Profile is the complete device profile file.
type Profile struct {
	Version int             `toml:"version" json:"version"`
	Devices []DeviceProfile `toml:"device" json:"devices"`
}

// Validate checks that every entry identifies a device and asks for
// something.
func (p Profile) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, d := range p.Devices {
		prefix := fmt.Sprintf("device[%d]", i)
		switch {
		case d.Name == "" && d.ID == 0:
			errs = append(errs, fmt.Errorf("%s: name or id is required", prefix))
		case d.Name != "" && d.ID != 0:
			errs = append(errs, fmt.Errorf("%s: name and id are mutually exclusive", prefix))
		}
		if d.SampleRate < 0 {
			errs = append(errs, fmt.Errorf("%s: sample_rate must be positive", prefix))
		}
		if d.SampleRate == 0 && d.Format == nil {
			errs = append(errs, fmt.Errorf("%s: nothing to pin, set sample_rate or format", prefix))
		}
		if f := d.Format; f != nil {
			if f.Channels == 0 {
				errs = append(errs, fmt.Errorf("%s: format.channels is required", prefix))
			}
			if f.BitsPerChannel == 0 || f.BitsPerChannel%8 != 0 {
				errs = append(errs, fmt.Errorf("%s: format.bits_per_channel must be a positive multiple of 8", prefix))
			}
			if d.SampleRate == 0 {
				errs = append(errs, fmt.Errorf("%s: format requires sample_rate", prefix))
			}
		}
		key := strings.ToLower(d.Label())
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: %s listed twice", prefix, d.Label()))
		}
		seen[key] = true
	}
	return errors.Join(errs...)
}

// LoadProfile reads and validates a device profile.
func LoadProfile(path string) (Profile, error) {
	var profile Profile
	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := toml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("failed to parse profile: %w", err)
	}
	if profile.Version == 0 {
		profile.Version = ProfileVersion
	}
	if profile.Version != ProfileVersion {
		return profile, fmt.Errorf("unsupported profile version %d", profile.Version)
	}
	if err := profile.Validate(); err != nil {
		return profile, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return profile, nil
}

// SaveProfile writes a profile, creating the directory if needed. The file is
// replaced atomically so a running watcher never reads it half written.
func SaveProfile(path string, profile Profile) error {
	if profile.Version == 0 {
		profile.Version = ProfileVersion
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid profile: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := toml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profile-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp profile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace profile: %w", err)
	}
	return nil
}
