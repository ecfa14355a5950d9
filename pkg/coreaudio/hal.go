package coreaudio

// ListenerToken is the opaque value the HAL hands back when a registered
// property changes. It is an index into the process-wide listener registry,
// never a pointer.
type ListenerToken uint64

// HAL is the platform property service. Methods return the raw platform
// status; the typed helpers in this package map statuses to errors.
//
// Implementations deliver property notifications for a registered token by
// calling the registry from any goroutine or thread they own.
type HAL interface {
	// PropertyDataSize reports the byte size of a property's current value.
	PropertyDataSize(obj ObjectID, addr PropertyAddress) (uint32, Status)

	// PropertyData copies the property value into buf and reports how many
	// bytes were written.
	PropertyData(obj ObjectID, addr PropertyAddress, buf []byte) (uint32, Status)

	// SetPropertyData writes a property. A successful status only means the
	// request was accepted; the change may be applied later.
	SetPropertyData(obj ObjectID, addr PropertyAddress, data []byte) Status

	// StringProperty reads a string-typed property. The caller releases the
	// returned handle.
	StringProperty(obj ObjectID, addr PropertyAddress) (StringRef, Status)

	// AddPropertyListener asks the platform to report changes of addr on obj
	// to token.
	AddPropertyListener(obj ObjectID, addr PropertyAddress, token ListenerToken) Status

	// RemovePropertyListener undoes AddPropertyListener.
	RemovePropertyListener(obj ObjectID, addr PropertyAddress, token ListenerToken) Status
}

// StringRef is a platform string handle.
type StringRef interface {
	// CStringPtr returns the UTF-8 text without copying through a caller
	// buffer. ok is false when the platform has no direct representation.
	CStringPtr() (s string, ok bool)

	// CopyCString writes NUL-terminated UTF-8 into buf and reports success.
	CopyCString(buf []byte) bool

	// Release frees the handle.
	Release()
}
