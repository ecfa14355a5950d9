//go:build darwin && cgo

package coreaudio

/*
#cgo LDFLAGS: -framework CoreAudio -framework CoreFoundation
#include <stdint.h>
#include <CoreAudio/CoreAudio.h>
#include <CoreFoundation/CoreFoundation.h>

OSStatus audiohalAddListener(AudioObjectID obj, const AudioObjectPropertyAddress *addr, uintptr_t token);
OSStatus audiohalRemoveListener(AudioObjectID obj, const AudioObjectPropertyAddress *addr, uintptr_t token);
*/
import "C"

import (
	"unsafe"
)

const utf8Encoding = C.CFStringEncoding(C.kCFStringEncodingUTF8)

type coreAudioHAL struct{}

// NewPlatformHAL returns the Core Audio backend.
func NewPlatformHAL() (HAL, error) {
	return coreAudioHAL{}, nil
}

func cAddress(a PropertyAddress) C.AudioObjectPropertyAddress {
	return C.AudioObjectPropertyAddress{
		mSelector: C.AudioObjectPropertySelector(a.Selector),
		mScope:    C.AudioObjectPropertyScope(a.Scope),
		mElement:  C.AudioObjectPropertyElement(a.Element),
	}
}

func (coreAudioHAL) PropertyDataSize(obj ObjectID, addr PropertyAddress) (uint32, Status) {
	caddr := cAddress(addr)
	var size C.UInt32
	status := C.AudioObjectGetPropertyDataSize(C.AudioObjectID(obj), &caddr, 0, nil, &size) //nolint:gocritic // CGO false positive
	return uint32(size), Status(status)
}

func (coreAudioHAL) PropertyData(obj ObjectID, addr PropertyAddress, buf []byte) (uint32, Status) {
	caddr := cAddress(addr)
	size := C.UInt32(len(buf))
	var data unsafe.Pointer
	if len(buf) > 0 {
		data = unsafe.Pointer(&buf[0])
	}
	status := C.AudioObjectGetPropertyData(C.AudioObjectID(obj), &caddr, 0, nil, &size, data) //nolint:gocritic // CGO false positive
	return uint32(size), Status(status)
}

func (coreAudioHAL) SetPropertyData(obj ObjectID, addr PropertyAddress, data []byte) Status {
	caddr := cAddress(addr)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	return Status(C.AudioObjectSetPropertyData(C.AudioObjectID(obj), &caddr, 0, nil, C.UInt32(len(data)), ptr)) //nolint:gocritic // CGO false positive
}

func (coreAudioHAL) StringProperty(obj ObjectID, addr PropertyAddress) (StringRef, Status) {
	caddr := cAddress(addr)
	var ref C.CFStringRef
	size := C.UInt32(unsafe.Sizeof(ref))
	status := C.AudioObjectGetPropertyData(C.AudioObjectID(obj), &caddr, 0, nil, &size, unsafe.Pointer(&ref)) //nolint:gocritic // CGO false positive
	if status != 0 {
		return nil, Status(status)
	}
	return cfString{ref: ref}, StatusOK
}

func (coreAudioHAL) AddPropertyListener(obj ObjectID, addr PropertyAddress, token ListenerToken) Status {
	caddr := cAddress(addr)
	return Status(C.audiohalAddListener(C.AudioObjectID(obj), &caddr, C.uintptr_t(token))) //nolint:gocritic // CGO false positive
}

func (coreAudioHAL) RemovePropertyListener(obj ObjectID, addr PropertyAddress, token ListenerToken) Status {
	caddr := cAddress(addr)
	return Status(C.audiohalRemoveListener(C.AudioObjectID(obj), &caddr, C.uintptr_t(token))) //nolint:gocritic // CGO false positive
}

//export audiohalPropertyChanged
func audiohalPropertyChanged(obj C.AudioObjectID, count C.UInt32, addrs *C.AudioObjectPropertyAddress, token C.uintptr_t) {
	raw := unsafe.Slice(addrs, int(count))
	changed := make([]PropertyAddress, len(raw))
	for i, a := range raw {
		changed[i] = PropertyAddress{
			Selector: Selector(a.mSelector),
			Scope:    Scope(a.mScope),
			Element:  Element(a.mElement),
		}
	}
	dispatchPropertyChange(ListenerToken(token), ObjectID(obj), changed)
}

type cfString struct {
	ref C.CFStringRef
}

func (s cfString) CStringPtr() (string, bool) {
	p := C.CFStringGetCStringPtr(s.ref, utf8Encoding)
	if p == nil {
		return "", false
	}
	return C.GoString(p), true
}

func (s cfString) CopyCString(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	ok := C.CFStringGetCString(s.ref, (*C.char)(unsafe.Pointer(&buf[0])), C.CFIndex(len(buf)), utf8Encoding)
	return ok != 0
}

func (s cfString) Release() {
	if s.ref != 0 {
		C.CFRelease(C.CFTypeRef(s.ref))
	}
}
