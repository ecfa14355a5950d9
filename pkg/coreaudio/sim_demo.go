package coreaudio

// Device IDs of the NewDemoHAL devices.
const (
	DemoBuiltInOutput DeviceID = 42
	DemoUSBInterface  DeviceID = 57
	DemoMicrophone    DeviceID = 63
)

// NewDemoHAL returns a SimulatedHAL populated with three typical devices:
// built-in speakers, a multi-rate USB interface and a microphone whose name
// is only reachable through the copy path.
func NewDemoHAL() *SimulatedHAL {
	h := NewSimulatedHAL()

	h.AddDevice(SimulatedDevice{
		ID:          DemoBuiltInOutput,
		Name:        "MacBook Pro Speakers",
		SampleRate:  48000,
		SampleRates: discreteRates(44100, 48000),
		Format:      NewLinearPCMFormat(48000, 2, 32, true),
		Formats: []StreamFormat{
			NewLinearPCMFormat(44100, 2, 32, true),
			NewLinearPCMFormat(48000, 2, 32, true),
		},
	})

	usbFormats := make([]StreamFormat, 0, 12)
	for _, rate := range []float64{44100, 48000, 88200, 96000} {
		usbFormats = append(usbFormats,
			NewLinearPCMFormat(rate, 2, 16, false),
			NewLinearPCMFormat(rate, 2, 24, false),
			NewLinearPCMFormat(rate, 2, 32, false),
		)
	}
	h.AddDevice(SimulatedDevice{
		ID:          DemoUSBInterface,
		Name:        "Scarlett 2i2 USB",
		SampleRate:  44100,
		SampleRates: discreteRates(44100, 48000, 88200, 96000),
		Format:      NewLinearPCMFormat(44100, 2, 24, false),
		Formats:     usbFormats,
	})

	h.AddDevice(SimulatedDevice{
		ID:   DemoMicrophone,
		Name: "MacBook Pro Microphone",
		// Continuous range: no rate inside it is accepted as discrete.
		SampleRate:   48000,
		SampleRates:  []ValueRange{{Minimum: 8000, Maximum: 48000}},
		Format:       NewLinearPCMFormat(48000, 1, 32, true),
		Formats:      []StreamFormat{NewLinearPCMFormat(48000, 1, 32, true)},
		NoDirectName: true,
	})

	h.SetDefaultDevice(false, DemoBuiltInOutput)
	h.SetDefaultDevice(true, DemoMicrophone)
	return h
}

func discreteRates(rates ...float64) []ValueRange {
	out := make([]ValueRange, len(rates))
	for i, r := range rates {
		out[i] = ValueRange{Minimum: r, Maximum: r}
	}
	return out
}
