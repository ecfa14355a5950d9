package coreaudio

import (
	"encoding/binary"
	"slices"
	"sync"
	"time"
)

// SimulatedDevice describes one device of a SimulatedHAL.
type SimulatedDevice struct {
	ID          DeviceID
	Name        string
	SampleRate  float64
	SampleRates []ValueRange
	Format      StreamFormat
	Formats     []StreamFormat

	// NoDirectName hides the fast string path so DeviceName has to copy.
	NoDirectName bool
}

// ApplyMode controls what a SimulatedHAL does with accepted writes.
type ApplyMode int

const (
	// ApplyAndNotify applies the write after the latency and notifies
	// listeners.
	ApplyAndNotify ApplyMode = iota
	// ApplySilently applies the write but sends no notification.
	ApplySilently
	// IgnoreWrites keeps the old value but still notifies, the way a busy
	// device acknowledges a request it does not honor.
	IgnoreWrites
)

// SimOp names a HAL entry point for fault injection.
type SimOp string

// Fault injection points.
const (
	SimOpGetSize        SimOp = "get_size"
	SimOpGet            SimOp = "get"
	SimOpSet            SimOp = "set"
	SimOpString         SimOp = "string"
	SimOpAddListener    SimOp = "add_listener"
	SimOpRemoveListener SimOp = "remove_listener"
)

// SimStats counts calls made against a SimulatedHAL.
type SimStats struct {
	Sets             int
	ListenersAdded   int
	ListenersRemoved int
	StringsReleased  int
}

type simFault struct {
	op       SimOp
	selector Selector
}

type simListener struct {
	obj   ObjectID
	addr  PropertyAddress
	token ListenerToken
}

// SimulatedHAL is an in-memory HAL. Writes are accepted synchronously and
// applied on a separate goroutine after a configurable latency, then
// reported to registered listeners from that goroutine, which mirrors how
// Core Audio confirms reconfiguration.
type SimulatedHAL struct {
	mu         sync.Mutex
	devices    map[DeviceID]*SimulatedDevice
	order      []DeviceID
	defaultIn  DeviceID
	defaultOut DeviceID
	listeners  []simListener
	latency    time.Duration
	mode       ApplyMode
	faults     map[simFault]Status
	stats      SimStats
	pending    sync.WaitGroup
}

// NewSimulatedHAL returns an empty simulated HAL with a 5ms apply latency.
func NewSimulatedHAL() *SimulatedHAL {
	return &SimulatedHAL{
		devices: make(map[DeviceID]*SimulatedDevice),
		latency: 5 * time.Millisecond,
		faults:  make(map[simFault]Status),
	}
}

// AddDevice adds or replaces a device.
func (h *SimulatedHAL) AddDevice(d SimulatedDevice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.devices[d.ID]; !exists {
		h.order = append(h.order, d.ID)
	}
	d.SampleRates = slices.Clone(d.SampleRates)
	d.Formats = slices.Clone(d.Formats)
	h.devices[d.ID] = &d
}

// RemoveDevice detaches a device. Its default role, if any, is cleared.
func (h *SimulatedHAL) RemoveDevice(id DeviceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.devices, id)
	h.order = slices.DeleteFunc(h.order, func(d DeviceID) bool { return d == id })
	if h.defaultIn == id {
		h.defaultIn = UnknownObject
	}
	if h.defaultOut == id {
		h.defaultOut = UnknownObject
	}
}

// SetDefaultDevice sets the default input or output device. UnknownObject
// clears it.
func (h *SimulatedHAL) SetDefaultDevice(input bool, id DeviceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if input {
		h.defaultIn = id
	} else {
		h.defaultOut = id
	}
}

// SetLatency sets the delay between an accepted write and its application.
func (h *SimulatedHAL) SetLatency(d time.Duration) {
	h.mu.Lock()
	h.latency = d
	h.mu.Unlock()
}

// SetApplyMode selects how accepted writes are handled.
func (h *SimulatedHAL) SetApplyMode(mode ApplyMode) {
	h.mu.Lock()
	h.mode = mode
	h.mu.Unlock()
}

// Fail makes op return status for selector. A zero selector matches every
// selector.
func (h *SimulatedHAL) Fail(op SimOp, selector Selector, status Status) {
	h.mu.Lock()
	h.faults[simFault{op: op, selector: selector}] = status
	h.mu.Unlock()
}

// ClearFaults removes every injected failure.
func (h *SimulatedHAL) ClearFaults() {
	h.mu.Lock()
	clear(h.faults)
	h.mu.Unlock()
}

// Stats returns call counters.
func (h *SimulatedHAL) Stats() SimStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// ActiveListeners returns the number of installed listeners.
func (h *SimulatedHAL) ActiveListeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Wait blocks until every pending write has been applied and reported.
func (h *SimulatedHAL) Wait() {
	h.pending.Wait()
}

// ChangeSampleRate changes a device's rate out of band, as another process
// would, and notifies listeners from the calling goroutine.
func (h *SimulatedHAL) ChangeSampleRate(id DeviceID, rate float64) {
	h.mu.Lock()
	d, ok := h.devices[id]
	if ok {
		d.SampleRate = rate
		d.Format.SampleRate = rate
	}
	h.mu.Unlock()
	if ok {
		h.notify(id, nominalSampleRateAddress, physicalFormatAddress)
	}
}

// Notify reports a change of addr on obj without changing anything.
func (h *SimulatedHAL) Notify(obj ObjectID, addr PropertyAddress) {
	h.notify(obj, addr)
}

func (h *SimulatedHAL) fault(op SimOp, selector Selector) Status {
	if st, ok := h.faults[simFault{op: op, selector: selector}]; ok {
		return st
	}
	if st, ok := h.faults[simFault{op: op}]; ok {
		return st
	}
	return StatusOK
}

// PropertyDataSize implements HAL.
func (h *SimulatedHAL) PropertyDataSize(obj ObjectID, addr PropertyAddress) (uint32, Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st := h.fault(SimOpGetSize, addr.Selector); st != StatusOK {
		return 0, st
	}
	data, st := h.encodeLocked(obj, addr)
	return uint32(len(data)), st
}

// PropertyData implements HAL.
func (h *SimulatedHAL) PropertyData(obj ObjectID, addr PropertyAddress, buf []byte) (uint32, Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st := h.fault(SimOpGet, addr.Selector); st != StatusOK {
		return 0, st
	}
	data, st := h.encodeLocked(obj, addr)
	if st != StatusOK {
		return 0, st
	}
	if len(buf) < len(data) && !isListSelector(addr.Selector) {
		return 0, StatusBadPropertySize
	}
	n := copy(buf, data)
	return uint32(n), StatusOK
}

func isListSelector(sel Selector) bool {
	switch sel {
	case SelectorDevices, SelectorAvailableNominalSampleRates, SelectorAvailablePhysicalFormats:
		return true
	}
	return false
}

// encodeLocked renders a property value in platform layout.
func (h *SimulatedHAL) encodeLocked(obj ObjectID, addr PropertyAddress) ([]byte, Status) {
	var value any
	if obj == SystemObject {
		switch addr.Selector {
		case SelectorDevices:
			value = slices.Clone(h.order)
		case SelectorDefaultInputDevice:
			if h.defaultIn == UnknownObject {
				return nil, StatusUnknownProperty
			}
			value = h.defaultIn
		case SelectorDefaultOutputDevice:
			if h.defaultOut == UnknownObject {
				return nil, StatusUnknownProperty
			}
			value = h.defaultOut
		default:
			return nil, StatusUnknownProperty
		}
	} else {
		d, ok := h.devices[obj]
		if !ok {
			return nil, StatusBadObject
		}
		switch addr.Selector {
		case SelectorNominalSampleRate:
			value = d.SampleRate
		case SelectorAvailableNominalSampleRates:
			value = d.SampleRates
		case SelectorPhysicalFormat:
			value = d.Format
		case SelectorAvailablePhysicalFormats:
			value = d.Formats
		default:
			return nil, StatusUnknownProperty
		}
	}
	data, err := binary.Append(nil, binary.NativeEndian, value)
	if err != nil {
		return nil, StatusUnspecified
	}
	return data, StatusOK
}

// SetPropertyData implements HAL. Rates must be one of the device's
// discrete rates and formats one of its listed formats.
func (h *SimulatedHAL) SetPropertyData(obj ObjectID, addr PropertyAddress, data []byte) Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st := h.fault(SimOpSet, addr.Selector); st != StatusOK {
		return st
	}
	d, ok := h.devices[obj]
	if !ok {
		return StatusBadObject
	}

	var apply func()
	switch addr.Selector {
	case SelectorNominalSampleRate:
		var rate float64
		if _, err := binary.Decode(data, binary.NativeEndian, &rate); err != nil {
			return StatusBadPropertySize
		}
		if !slices.ContainsFunc(d.SampleRates, func(r ValueRange) bool {
			return rate >= r.Minimum && rate <= r.Maximum
		}) {
			return StatusIllegalOperation
		}
		apply = func() {
			d.SampleRate = rate
			d.Format.SampleRate = rate
		}
	case SelectorPhysicalFormat:
		var format StreamFormat
		if _, err := binary.Decode(data, binary.NativeEndian, &format); err != nil {
			return StatusBadPropertySize
		}
		if !slices.ContainsFunc(d.Formats, func(f StreamFormat) bool { return FormatsEqual(f, format) }) {
			return StatusUnsupportedFormat
		}
		apply = func() {
			d.Format = format
			d.SampleRate = format.SampleRate
		}
	default:
		return StatusUnsupportedOperation
	}

	h.stats.Sets++
	latency, mode := h.latency, h.mode
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		time.Sleep(latency)

		h.mu.Lock()
		_, attached := h.devices[obj]
		if attached && mode != IgnoreWrites {
			apply()
		}
		h.mu.Unlock()

		if attached && mode != ApplySilently {
			h.notify(obj, addr)
		}
	}()
	return StatusOK
}

// StringProperty implements HAL.
func (h *SimulatedHAL) StringProperty(obj ObjectID, addr PropertyAddress) (StringRef, Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st := h.fault(SimOpString, addr.Selector); st != StatusOK {
		return nil, st
	}
	d, ok := h.devices[obj]
	if !ok {
		return nil, StatusBadObject
	}
	if addr.Selector != SelectorDeviceNameCFString {
		return nil, StatusUnknownProperty
	}
	return &simString{hal: h, s: d.Name, direct: !d.NoDirectName}, StatusOK
}

// AddPropertyListener implements HAL.
func (h *SimulatedHAL) AddPropertyListener(obj ObjectID, addr PropertyAddress, token ListenerToken) Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st := h.fault(SimOpAddListener, addr.Selector); st != StatusOK {
		return st
	}
	if _, ok := h.devices[obj]; !ok && obj != SystemObject {
		return StatusBadObject
	}
	h.listeners = append(h.listeners, simListener{obj: obj, addr: addr, token: token})
	h.stats.ListenersAdded++
	return StatusOK
}

// RemovePropertyListener implements HAL.
func (h *SimulatedHAL) RemovePropertyListener(obj ObjectID, addr PropertyAddress, token ListenerToken) Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st := h.fault(SimOpRemoveListener, addr.Selector); st != StatusOK {
		return st
	}
	want := simListener{obj: obj, addr: addr, token: token}
	i := slices.Index(h.listeners, want)
	if i < 0 {
		return StatusIllegalOperation
	}
	h.listeners = slices.Delete(h.listeners, i, i+1)
	h.stats.ListenersRemoved++
	return StatusOK
}

// notify dispatches to every listener on obj whose address is in addrs. The
// lock is not held while listeners run, since they read properties back.
func (h *SimulatedHAL) notify(obj ObjectID, addrs ...PropertyAddress) {
	h.mu.Lock()
	var targets []simListener
	for _, l := range h.listeners {
		if l.obj == obj && slices.Contains(addrs, l.addr) {
			targets = append(targets, l)
		}
	}
	h.mu.Unlock()

	for _, l := range targets {
		dispatchPropertyChange(l.token, obj, []PropertyAddress{l.addr})
	}
}

type simString struct {
	hal    *SimulatedHAL
	s      string
	direct bool
}

func (s *simString) CStringPtr() (string, bool) {
	if !s.direct {
		return "", false
	}
	return s.s, true
}

func (s *simString) CopyCString(buf []byte) bool {
	if len(s.s)+1 > len(buf) {
		return false
	}
	n := copy(buf, s.s)
	buf[n] = 0
	return true
}

func (s *simString) Release() {
	s.hal.mu.Lock()
	s.hal.stats.StringsReleased++
	s.hal.mu.Unlock()
}
