package events

// Event type constants for kelindar/event.
const (
	TypeSampleRateChanged uint32 = iota + 1
	TypeFormatChanged
	TypeReconfigure
	TypeDeliveryDropped
	TypeProfileApplied
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SampleRateChangedEvent reports a nominal sample rate observed by a
// listener, whoever caused the change.
type SampleRateChangedEvent struct {
	DeviceID   uint32  `json:"device_id"`
	Device     string  `json:"device"`
	SampleRate float64 `json:"sample_rate"`
	Timestamp  string  `json:"timestamp"`
}

// Type returns the event type identifier for SampleRateChangedEvent.
func (e SampleRateChangedEvent) Type() uint32 { return TypeSampleRateChanged }

// FormatChangedEvent reports a physical format observed by a listener.
type FormatChangedEvent struct {
	DeviceID  uint32 `json:"device_id"`
	Device    string `json:"device"`
	Format    string `json:"format"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for FormatChangedEvent.
func (e FormatChangedEvent) Type() uint32 { return TypeFormatChanged }

// ReconfigureEvent reports the end of a sample rate or format change.
type ReconfigureEvent struct {
	DeviceID      uint32 `json:"device_id"`
	Kind          string `json:"kind"`
	Target        string `json:"target"`
	Outcome       string `json:"outcome"`
	Notifications int    `json:"notifications"`
	DurationMs    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Type returns the event type identifier for ReconfigureEvent.
func (e ReconfigureEvent) Type() uint32 { return TypeReconfigure }

// DeliveryDroppedEvent reports a listener value lost to a full channel.
type DeliveryDroppedEvent struct {
	DeviceID  uint32 `json:"device_id"`
	Property  string `json:"property"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeliveryDroppedEvent.
func (e DeliveryDroppedEvent) Type() uint32 { return TypeDeliveryDropped }

// ProfileAppliedEvent summarizes one pass of the profile enforcer.
type ProfileAppliedEvent struct {
	Path      string   `json:"path"`
	Trigger   string   `json:"trigger"`
	Devices   int      `json:"devices"`
	Changed   int      `json:"changed"`
	Failed    []string `json:"failed,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// Type returns the event type identifier for ProfileAppliedEvent.
func (e ProfileAppliedEvent) Type() uint32 { return TypeProfileApplied }
