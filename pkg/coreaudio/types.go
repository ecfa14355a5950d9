package coreaudio

import (
	"fmt"
	"strconv"
)

// ObjectID is the HAL handle of an audio object (the system object, a device
// or a stream).
type ObjectID uint32

// DeviceID names a hardware device. The platform owns the value; it stays
// stable for as long as the device is attached.
type DeviceID = ObjectID

// Well-known objects.
const (
	UnknownObject ObjectID = 0
	SystemObject  ObjectID = 1
)

// Selector identifies a property of an audio object.
type Selector uint32

// Scope restricts a property to a direction of a device.
type Scope uint32

// Element selects a channel or bus within a scope. ElementMain addresses the
// object as a whole.
type Element uint32

// Property selectors used by this package.
const (
	SelectorDevices                     Selector = 'd'<<24 | 'e'<<16 | 'v'<<8 | '#'
	SelectorDefaultInputDevice          Selector = 'd'<<24 | 'I'<<16 | 'n'<<8 | ' '
	SelectorDefaultOutputDevice         Selector = 'd'<<24 | 'O'<<16 | 'u'<<8 | 't'
	SelectorDeviceNameCFString          Selector = 'l'<<24 | 'n'<<16 | 'a'<<8 | 'm'
	SelectorNominalSampleRate           Selector = 'n'<<24 | 's'<<16 | 'r'<<8 | 't'
	SelectorAvailableNominalSampleRates Selector = 'n'<<24 | 's'<<16 | 'r'<<8 | '#'
	SelectorPhysicalFormat              Selector = 'p'<<24 | 'f'<<16 | 't'<<8 | ' '
	SelectorAvailablePhysicalFormats    Selector = 'p'<<24 | 'f'<<16 | 't'<<8 | '#'
)

// Property scopes.
const (
	ScopeGlobal Scope = 'g'<<24 | 'l'<<16 | 'o'<<8 | 'b'
	ScopeInput  Scope = 'i'<<24 | 'n'<<16 | 'p'<<8 | 't'
	ScopeOutput Scope = 'o'<<24 | 'u'<<16 | 't'<<8 | 'p'
)

// ElementMain addresses the main element of an object.
const ElementMain Element = 0

// PropertyAddress is the (selector, scope, element) key of a property.
// Addresses are plain values and compare with ==.
type PropertyAddress struct {
	Selector Selector
	Scope    Scope
	Element  Element
}

// GlobalAddress returns the address of selector in the global scope on the
// main element.
func GlobalAddress(selector Selector) PropertyAddress {
	return PropertyAddress{Selector: selector, Scope: ScopeGlobal, Element: ElementMain}
}

func (s Selector) String() string { return fourCC(uint32(s)) }

func (s Scope) String() string { return fourCC(uint32(s)) }

func (a PropertyAddress) String() string {
	return fmt.Sprintf("%s/%s/%d", a.Selector, a.Scope, a.Element)
}

// fourCC renders a four-character code as 'abcd', falling back to the
// decimal value when any byte is not printable ASCII.
func fourCC(v uint32) string {
	b := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return strconv.FormatUint(uint64(v), 10)
		}
	}
	return "'" + string(b[:]) + "'"
}
