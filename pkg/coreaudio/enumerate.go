package coreaudio

import (
	"bytes"
	"strings"
)

// deviceNameBufferSize bounds the copy path of DeviceName.
const deviceNameBufferSize = 255

// DeviceInfo summarizes one device for listings.
type DeviceInfo struct {
	ID              DeviceID
	Name            string
	IsDefaultInput  bool
	IsDefaultOutput bool
}

// DefaultDeviceID returns the default input or output device. ok is false
// when the HAL reports no default, for whatever reason.
func (s *System) DefaultDeviceID(input bool) (DeviceID, bool) {
	selector := SelectorDefaultOutputDevice
	if input {
		selector = SelectorDefaultInputDevice
	}
	id, err := GetProperty[DeviceID](s.hal, SystemObject, GlobalAddress(selector))
	if err != nil {
		s.logger.Debug("No default device", "input", input, "error", err)
		return UnknownObject, false
	}
	if id == UnknownObject {
		return UnknownObject, false
	}
	return id, true
}

// DeviceIDs lists every audio device known to the HAL.
func (s *System) DeviceIDs() ([]DeviceID, error) {
	return GetPropertyList[DeviceID](s.hal, SystemObject, GlobalAddress(SelectorDevices))
}

// DeviceName returns the human-readable name of a device.
func (s *System) DeviceName(device DeviceID) (string, error) {
	addr := PropertyAddress{Selector: SelectorDeviceNameCFString, Scope: ScopeOutput, Element: ElementMain}

	ref, status := s.hal.StringProperty(device, addr)
	if err := checkStatus("get", device, addr, status); err != nil {
		return "", err
	}
	defer ref.Release()

	if name, ok := ref.CStringPtr(); ok {
		return strings.ToValidUTF8(name, "\uFFFD"), nil
	}

	buf := make([]byte, deviceNameBufferSize)
	if !ref.CopyCString(buf) {
		return "", &StatusError{Op: "copy string", Object: device, Address: addr, Status: StatusUnspecified}
	}
	return strings.ToValidUTF8(cstr(buf), "\uFFFD"), nil
}

// Devices lists every device with its name and default flags. A device
// whose name cannot be read is listed with an empty name.
func (s *System) Devices() ([]DeviceInfo, error) {
	ids, err := s.DeviceIDs()
	if err != nil {
		return nil, err
	}
	defaultIn, hasIn := s.DefaultDeviceID(true)
	defaultOut, hasOut := s.DefaultDeviceID(false)

	infos := make([]DeviceInfo, 0, len(ids))
	for _, id := range ids {
		name, nameErr := s.DeviceName(id)
		if nameErr != nil {
			s.logger.Debug("Failed to read device name", "device", id, "error", nameErr)
		}
		infos = append(infos, DeviceInfo{
			ID:              id,
			Name:            name,
			IsDefaultInput:  hasIn && id == defaultIn,
			IsDefaultOutput: hasOut && id == defaultOut,
		})
	}
	return infos, nil
}

// FindDevice resolves a device by exact name.
func (s *System) FindDevice(name string) (DeviceID, bool, error) {
	ids, err := s.DeviceIDs()
	if err != nil {
		return UnknownObject, false, err
	}
	for _, id := range ids {
		if n, nameErr := s.DeviceName(id); nameErr == nil && n == name {
			return id, true, nil
		}
	}
	return UnknownObject, false, nil
}

// NominalSampleRate reads the current nominal sample rate of a device.
func (s *System) NominalSampleRate(device DeviceID) (float64, error) {
	return GetProperty[float64](s.hal, device, nominalSampleRateAddress)
}

// AvailableSampleRates lists the sample rate ranges a device supports.
func (s *System) AvailableSampleRates(device DeviceID) ([]ValueRange, error) {
	return GetPropertyList[ValueRange](s.hal, device, GlobalAddress(SelectorAvailableNominalSampleRates))
}

// PhysicalFormat reads the current physical stream format of a device.
func (s *System) PhysicalFormat(device DeviceID) (StreamFormat, error) {
	return GetProperty[StreamFormat](s.hal, device, physicalFormatAddress)
}

// SupportedPhysicalFormats lists the physical formats a device offers.
func (s *System) SupportedPhysicalFormats(device DeviceID) ([]StreamFormat, error) {
	return GetPropertyList[StreamFormat](s.hal, device, GlobalAddress(SelectorAvailablePhysicalFormats))
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
